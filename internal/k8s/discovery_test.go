package k8s

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// fakeMetrics records what the client reports.
type fakeMetrics struct {
	mu         sync.Mutex
	operations []string
	statuses   []int
	discovery  []string
	discovered int
}

func (m *fakeMetrics) RecordRequest(_ context.Context, operation, _ string, statusCode int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations = append(m.operations, operation)
	m.statuses = append(m.statuses, statusCode)
}

func (m *fakeMetrics) RecordDiscovery(_ context.Context, status string, resources int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discovery = append(m.discovery, status)
	m.discovered = resources
}

func TestDiscover(t *testing.T) {
	server := newFixtureServer(t)
	client := server.newClient(t)

	registry := client.Registry()
	require.Equal(t, 4, registry.Len())

	names := make([]string, 0, registry.Len())
	for _, rd := range registry.All() {
		names = append(names, rd.QualifiedName())
	}
	assert.Equal(t, []string{"pods", "namespaces", "componentstatuses", "deployments.apps"}, names)
	assert.Equal(t, []string{"v1", "apps/v1"}, client.GroupVersions())

	for _, rd := range registry.All() {
		assert.NotContains(t, rd.Name, "/", "sub-resources never enter the registry")
		assert.True(t, rd.Preferred)
		assert.Equal(t, PlatformKubernetes, rd.Platform)
	}

	deployments := registry.ByName("deployments")
	require.Len(t, deployments, 1)
	assert.Equal(t, RouteExtended, deployments[0].RoutePrefix)
	assert.Equal(t, []string{"deploy"}, deployments[0].ShortNames)
	assert.Equal(t, []string{"all"}, deployments[0].Categories)
	assert.Equal(t, "deployment", deployments[0].SingularName)
}

func TestDiscoverGroups(t *testing.T) {
	server := newFixtureServer(t)
	server.handleJSON("GET /apis", http.StatusOK, metav1.APIGroupList{
		Groups: []metav1.APIGroup{
			{
				Name: "autoscaling",
				Versions: []metav1.GroupVersionForDiscovery{
					{GroupVersion: "autoscaling/v2", Version: "v2"},
					{GroupVersion: "autoscaling/v1", Version: "v1"},
				},
				PreferredVersion: metav1.GroupVersionForDiscovery{GroupVersion: "autoscaling/v2", Version: "v2"},
			},
		},
	})

	discoverer, err := NewDiscoverer(server.config())
	require.NoError(t, err)

	groups, err := discoverer.DiscoverGroups(context.Background())
	require.NoError(t, err)

	expected := []GroupVersion{
		{Platform: PlatformKubernetes, RoutePrefix: RouteLegacy, Version: "v1", Preferred: true},
		{Platform: PlatformKubernetes, RoutePrefix: RouteExtended, Group: "autoscaling", Version: "v2", Preferred: true},
		{Platform: PlatformKubernetes, RoutePrefix: RouteExtended, Group: "autoscaling", Version: "v1", Preferred: false},
	}
	assert.Equal(t, expected, groups)
}

func TestDiscoverOpenShift(t *testing.T) {
	t.Run("probe fails", func(t *testing.T) {
		server := newFixtureServer(t)
		client := server.newClient(t)

		assert.Len(t, server.recorded(http.MethodGet, OpenShiftVersionPath), 1)
		assert.Empty(t, server.recorded(http.MethodGet, "/oapi/v1"))
		assert.Empty(t, client.Registry().ByName("routes"))
	})

	t.Run("probe succeeds", func(t *testing.T) {
		server := newFixtureServer(t)
		server.enableOpenShift()
		client := server.newClient(t)

		assert.Len(t, server.recorded(http.MethodGet, "/oapi/v1"), 1)

		routes := client.Registry().ByName("routes")
		require.Len(t, routes, 1)
		assert.Equal(t, PlatformOpenShift, routes[0].Platform)
		assert.Equal(t, "/oapi/v1/namespaces/{namespace}/routes", routes[0].URLs().NamespacedBase)
	})
}

func TestDiscoverAtomicFailure(t *testing.T) {
	tests := []struct {
		name      string
		route     string
		wantGV    string
		wantPath  string
		wantCode  int
		transport bool
	}{
		{
			name:     "resource listing fails",
			route:    "GET /apis/apps/v1",
			wantGV:   "apps/v1",
			wantPath: "/apis/apps/v1",
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "legacy listing fails",
			route:    "GET /api/v1",
			wantGV:   "v1",
			wantPath: "/api/v1",
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "group listing fails",
			route:    "GET /apis",
			wantPath: "/apis",
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newFixtureServer(t)
			server.handle(tt.route, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "etcd unavailable", http.StatusInternalServerError)
			})

			metrics := &fakeMetrics{}
			config := server.config()
			config.Metrics = metrics

			client, err := NewClient(context.Background(), config)
			require.Error(t, err)
			assert.Nil(t, client, "no partial registry is published")
			assert.True(t, errors.Is(err, ErrDiscoveryFailed))

			var discoveryErr *DiscoveryError
			require.True(t, errors.As(err, &discoveryErr))
			assert.Equal(t, tt.wantGV, discoveryErr.GroupVersion)
			assert.Equal(t, tt.wantPath, discoveryErr.Path)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantCode, apiErr.StatusCode)
			assert.Equal(t, "etcd unavailable", apiErr.Message)

			assert.Equal(t, []string{"error"}, metrics.discovery)
		})
	}
}

func TestDiscoverStrictDecoding(t *testing.T) {
	server := newFixtureServer(t)
	server.handle("GET /apis/apps/v1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"kind":"APIResourceList","groupVersion":"apps/v1","resources":[` +
			`{"name":"deployments","namespaced":true,"kind":"Deployment","verbs":["get"],"unexpected":"x"}]}`))
	})

	_, err := NewClient(context.Background(), server.config())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDiscoveryFailed))
	assert.Contains(t, err.Error(), "unexpected")
}

func TestDiscoverRejectsInvalidEntries(t *testing.T) {
	server := newFixtureServer(t)
	server.handleJSON("GET /apis/apps/v1", http.StatusOK, metav1.APIResourceList{
		GroupVersion: "apps/v1",
		APIResources: []metav1.APIResource{{Name: "deployments", Verbs: metav1.Verbs{"get"}}},
	})

	_, err := NewClient(context.Background(), server.config())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDiscoveryFailed))
	assert.True(t, errors.Is(err, ErrInvalidResource))
}

func TestDiscoverConcurrencyIsDeterministic(t *testing.T) {
	server := newFixtureServer(t)
	server.enableOpenShift()

	var results [][]ResourceDescriptor
	for _, concurrency := range []int{1, 2, 8} {
		config := server.config()
		config.DiscoveryConcurrency = concurrency

		discoverer, err := NewDiscoverer(config)
		require.NoError(t, err)

		descriptors, err := discoverer.Discover(context.Background())
		require.NoError(t, err)
		results = append(results, descriptors)
	}

	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}
}

func TestDiscoverRecordsMetrics(t *testing.T) {
	server := newFixtureServer(t)
	metrics := &fakeMetrics{}
	config := server.config()
	config.Metrics = metrics

	_, err := NewClient(context.Background(), config)
	require.NoError(t, err)

	assert.Equal(t, []string{"success"}, metrics.discovery)
	assert.Equal(t, 4, metrics.discovered)
	for _, op := range metrics.operations {
		assert.Equal(t, operationDiscovery, op)
	}
	// openshift probe, /apis, /api/v1, /apis/apps/v1
	assert.Len(t, metrics.operations, 4)
}

func TestDiscoverTransportFailure(t *testing.T) {
	server := newFixtureServer(t)
	config := server.config()
	server.Close()

	_, err := NewClient(context.Background(), config)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDiscoveryFailed))
	assert.True(t, errors.Is(err, ErrTransport))

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.MethodGet, transportErr.Method)
	assert.Equal(t, APIGroupsPath, transportErr.Path)
}
