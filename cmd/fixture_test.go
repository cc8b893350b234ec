package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const fixtureToken = "fixture-token"

// apiRequest is one call seen by the fake API server.
type apiRequest struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Body        []byte
}

// fakeAPIServer serves discovery for v1 (pods, namespaces) and apps/v1
// (deployments) plus the object routes registered by a test. Requests
// without the expected bearer token are rejected with 401.
type fakeAPIServer struct {
	*httptest.Server

	token string

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []apiRequest
}

func newFakeAPIServer(t *testing.T) *fakeAPIServer {
	t.Helper()

	f := &fakeAPIServer{
		token:  fixtureToken,
		routes: make(map[string]http.HandlerFunc),
	}

	f.handleJSON("GET /api/v1", http.StatusOK, metav1.APIResourceList{
		GroupVersion: "v1",
		APIResources: []metav1.APIResource{
			{
				Name:         "pods",
				SingularName: "pod",
				Namespaced:   true,
				Kind:         "Pod",
				Verbs:        metav1.Verbs{"create", "delete", "deletecollection", "get", "list", "patch", "update"},
				ShortNames:   []string{"po"},
				Categories:   []string{"all"},
			},
			{
				Name:         "namespaces",
				SingularName: "namespace",
				Kind:         "Namespace",
				Verbs:        metav1.Verbs{"create", "delete", "get", "list", "patch", "update"},
				ShortNames:   []string{"ns"},
			},
		},
	})
	f.handleJSON("GET /apis", http.StatusOK, metav1.APIGroupList{
		Groups: []metav1.APIGroup{
			{
				Name:             "apps",
				Versions:         []metav1.GroupVersionForDiscovery{{GroupVersion: "apps/v1", Version: "v1"}},
				PreferredVersion: metav1.GroupVersionForDiscovery{GroupVersion: "apps/v1", Version: "v1"},
			},
		},
	})
	f.handleJSON("GET /apis/apps/v1", http.StatusOK, metav1.APIResourceList{
		GroupVersion: "apps/v1",
		APIResources: []metav1.APIResource{
			{
				Name:         "deployments",
				SingularName: "deployment",
				Namespaced:   true,
				Kind:         "Deployment",
				Verbs:        metav1.Verbs{"create", "delete", "get", "list", "patch", "update"},
				ShortNames:   []string{"deploy"},
				Categories:   []string{"all"},
			},
		},
	})

	f.Server = httptest.NewTLSServer(f)
	t.Cleanup(f.Close)

	return f
}

func (f *fakeAPIServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, apiRequest{
		Method:      r.Method,
		Path:        r.URL.EscapedPath(),
		RawQuery:    r.URL.RawQuery,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	handler, ok := f.routes[r.Method+" "+r.URL.EscapedPath()]
	token := f.token
	f.mu.Unlock()

	r.Body = io.NopCloser(bytes.NewReader(body))

	switch {
	case r.Header.Get("Authorization") != "Bearer "+token:
		writeStatus(w, http.StatusUnauthorized, metav1.StatusReasonUnauthorized, "Unauthorized")
	case !ok:
		writeStatus(w, http.StatusNotFound, metav1.StatusReasonNotFound, "the server could not find the requested resource")
	default:
		handler(w, r)
	}
}

func (f *fakeAPIServer) handle(route string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = handler
}

func (f *fakeAPIServer) handleJSON(route string, status int, body interface{}) {
	f.handle(route, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	})
}

// echo answers with the request body.
func (f *fakeAPIServer) echo(route string, status int) {
	f.handle(route, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})
}

// recorded returns the calls matching method and path.
func (f *fakeAPIServer) recorded(method, path string) []apiRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []apiRequest
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// flags returns the connection flags pointing at the fake server.
func (f *fakeAPIServer) flags(args ...string) []string {
	return append(args, "--server", f.URL, "--token", f.token, "--insecure-skip-tls-verify")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeStatus(w http.ResponseWriter, code int, reason metav1.StatusReason, message string) {
	writeJSON(w, code, metav1.Status{
		TypeMeta: metav1.TypeMeta{Kind: "Status", APIVersion: "v1"},
		Status:   metav1.StatusFailure,
		Message:  message,
		Reason:   reason,
		Code:     int32(code),
	})
}

// isolateEnv points HOME and KUBECONFIG at an empty directory and clears the
// variables that would leak settings into a command.
func isolateEnv(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("KUBECONFIG", filepath.Join(home, "missing-kubeconfig"))
	t.Setenv("KUBERNETES_SERVICE_HOST", "")
	t.Setenv("INSTRUMENTATION_ENABLED", "")
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, envPrefix+"_") {
			t.Setenv(name, "")
		}
	}
	return home
}

// runCommand executes a fresh command tree with args.
func runCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	root.Version = "v0.0.0-test"

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// writeFile writes content below dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func pod(name, namespace string) map[string]interface{} {
	return map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata": map[string]interface{}{
			"name":              name,
			"namespace":         namespace,
			"creationTimestamp": "2024-06-01T10:00:00Z",
		},
	}
}
