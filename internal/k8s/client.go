package k8s

import (
	"context"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"

	"github.com/giantswarm/kube-dynamic/internal/logging"
)

// Client defines the interface of the dynamic client: a discovered resource
// catalog plus uniform CRUD against any resource in it.
type Client interface {
	// Resource Dispatch Operations
	Dispatcher

	// Resource Lookup Operations
	ResourceFinder
}

// Dispatcher issues one HTTP call per verb. The descriptor is always an
// explicit argument; every verb fails with *UnsupportedVerbError before any
// request when the descriptor does not advertise it.
type Dispatcher interface {
	// List retrieves a collection. An empty namespace spans all namespaces.
	List(ctx context.Context, rd ResourceDescriptor, opts ListOptions) (*unstructured.Unstructured, error)

	// Get retrieves one object by name, or the collection when name is empty.
	Get(ctx context.Context, rd ResourceDescriptor, name, namespace string) (*unstructured.Unstructured, error)

	// Create posts a new object.
	Create(ctx context.Context, rd ResourceDescriptor, namespace string, body *unstructured.Unstructured) (*unstructured.Unstructured, error)

	// Update replaces an existing object.
	Update(ctx context.Context, rd ResourceDescriptor, name, namespace string, body *unstructured.Unstructured) (*unstructured.Unstructured, error)

	// Patch applies a raw patch document of the given type.
	Patch(ctx context.Context, rd ResourceDescriptor, name, namespace string, patchType types.PatchType, body []byte) (*unstructured.Unstructured, error)

	// Delete removes one object by name.
	Delete(ctx context.Context, rd ResourceDescriptor, name, namespace string) (*unstructured.Unstructured, error)

	// DeleteCollection removes every object matching the options.
	DeleteCollection(ctx context.Context, rd ResourceDescriptor, opts ListOptions) (*unstructured.Unstructured, error)
}

// ResourceFinder looks up descriptors in the discovered catalog.
type ResourceFinder interface {
	// Registry returns the immutable catalog snapshot.
	Registry() *Registry

	// Search returns every descriptor matching term, best first.
	Search(term string) []ResourceDescriptor

	// Resolve returns the single best descriptor for term.
	Resolve(term string) (ResourceDescriptor, error)
}

// DynamicClient implements Client against one API server.
type DynamicClient struct {
	*RequestDispatcher

	registry *Registry
	matcher  *Matcher
}

var _ Client = (*DynamicClient)(nil)

// NewClient validates config, runs discovery and returns a ready client.
// Discovery is all-or-nothing: any failing group/version fails construction
// with a *DiscoveryError.
func NewClient(ctx context.Context, config *Config) (*DynamicClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	req, err := newRequester(config)
	if err != nil {
		return nil, err
	}

	config.Logger.Debug("Connecting to API server",
		logging.Host(config.Server),
		"token", logging.SanitizeToken(config.BearerToken))

	descriptors, err := newDiscoverer(req, config).Discover(ctx)
	if err != nil {
		return nil, err
	}

	return &DynamicClient{
		RequestDispatcher: &RequestDispatcher{requester: req},
		registry:          NewRegistry(descriptors, config.Logger),
		matcher:           NewMatcher(config.Singularizer),
	}, nil
}

// Registry returns the catalog built at construction.
func (c *DynamicClient) Registry() *Registry {
	return c.registry
}

// Search returns every descriptor matching term, best first.
func (c *DynamicClient) Search(term string) []ResourceDescriptor {
	return c.matcher.Match(term, c.registry)
}

// Resolve returns the single best descriptor for term.
func (c *DynamicClient) Resolve(term string) (ResourceDescriptor, error) {
	return c.matcher.Resolve(term, c.registry)
}

// GroupVersions returns the distinct apiVersions present in the catalog.
func (c *DynamicClient) GroupVersions() []string {
	return c.registry.GroupVersions()
}
