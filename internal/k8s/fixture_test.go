package k8s

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const testToken = "test-token"

// recordedRequest is one call seen by the fixture API server.
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// fixtureServer is a fake API server with a legacy v1 group (pods, namespaces)
// and apps/v1 (deployments). Routes are keyed by "METHOD /path".
type fixtureServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
}

func newFixtureServer(t *testing.T) *fixtureServer {
	t.Helper()

	f := &fixtureServer{routes: make(map[string]http.HandlerFunc)}

	f.handleJSON("GET /api/v1", http.StatusOK, metav1.APIResourceList{
		GroupVersion: "v1",
		APIResources: []metav1.APIResource{
			{
				Name:         "pods",
				SingularName: "pod",
				Namespaced:   true,
				Kind:         "Pod",
				Verbs:        metav1.Verbs{"create", "delete", "deletecollection", "get", "list", "patch", "update", "watch"},
				ShortNames:   []string{"po"},
				Categories:   []string{"all"},
			},
			{
				Name:       "pods/status",
				Namespaced: true,
				Kind:       "Pod",
				Verbs:      metav1.Verbs{"get", "patch", "update"},
			},
			{
				Name:         "namespaces",
				SingularName: "namespace",
				Namespaced:   false,
				Kind:         "Namespace",
				Verbs:        metav1.Verbs{"create", "delete", "get", "list", "patch", "update", "watch"},
				ShortNames:   []string{"ns"},
			},
			{
				Name:         "componentstatuses",
				SingularName: "componentstatus",
				Namespaced:   false,
				Kind:         "ComponentStatus",
				Verbs:        metav1.Verbs{"get", "list"},
				ShortNames:   []string{"cs"},
			},
		},
	})

	f.handleJSON("GET /apis", http.StatusOK, metav1.APIGroupList{
		Groups: []metav1.APIGroup{
			{
				Name: "apps",
				Versions: []metav1.GroupVersionForDiscovery{
					{GroupVersion: "apps/v1", Version: "v1"},
				},
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
				Verbs:        metav1.Verbs{"create", "delete", "deletecollection", "get", "list", "patch", "update", "watch"},
				ShortNames:   []string{"deploy"},
				Categories:   []string{"all"},
			},
			{
				Name:       "deployments/scale",
				Namespaced: true,
				Group:      "autoscaling",
				Version:    "v1",
				Kind:       "Scale",
				Verbs:      metav1.Verbs{"get", "patch", "update"},
			},
		},
	})

	f.Server = httptest.NewServer(f)
	t.Cleanup(f.Close)

	return f
}

// ServeHTTP records the request and dispatches it to the registered route.
func (f *fixtureServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	handler, ok := f.routes[r.Method+" "+r.URL.EscapedPath()]
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, metav1.Status{
			TypeMeta: metav1.TypeMeta{Kind: "Status", APIVersion: "v1"},
			Status:   metav1.StatusFailure,
			Message:  "the server could not find the requested resource",
			Reason:   metav1.StatusReasonNotFound,
			Code:     http.StatusNotFound,
		})
		return
	}
	handler(w, r)
}

func (f *fixtureServer) handle(route string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = handler
}

func (f *fixtureServer) handleJSON(route string, status int, body interface{}) {
	f.handle(route, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	})
}

// enableOpenShift makes the server answer the OpenShift probe and serve /oapi/v1.
func (f *fixtureServer) enableOpenShift() {
	f.handleJSON("GET /version/openshift", http.StatusOK, map[string]string{"major": "3", "minor": "11"})
	f.handleJSON("GET /oapi/v1", http.StatusOK, metav1.APIResourceList{
		GroupVersion: "v1",
		APIResources: []metav1.APIResource{
			{
				Name:         "routes",
				SingularName: "route",
				Namespaced:   true,
				Kind:         "Route",
				Verbs:        metav1.Verbs{"create", "delete", "get", "list", "patch", "update"},
			},
		},
	})
}

// recorded returns the calls matching method and path.
func (f *fixtureServer) recorded(method, path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []recordedRequest
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fixtureServer) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fixtureServer) config() *Config {
	return &Config{
		Server:      f.URL,
		BearerToken: testToken,
	}
}

func (f *fixtureServer) newClient(t *testing.T) *DynamicClient {
	t.Helper()
	client, err := NewClient(context.Background(), f.config())
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// testDescriptor builds a descriptor without going through discovery.
func testDescriptor(group, version, name, kind string, namespaced bool, verbs ...string) ResourceDescriptor {
	rd := ResourceDescriptor{
		Platform:    PlatformKubernetes,
		RoutePrefix: defaultRoutePrefix(group, version),
		Group:       group,
		Version:     version,
		Name:        name,
		Kind:        kind,
		Namespaced:  namespaced,
		Verbs:       verbs,
		Preferred:   true,
	}
	return rd
}
