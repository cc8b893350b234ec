package k8s

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	jsonpatch "github.com/evanphx/json-patch"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
)

// ListOptions provides configuration for list and delete-collection operations.
type ListOptions struct {
	Namespace     string `json:"namespace,omitempty"`
	LabelSelector string `json:"labelSelector,omitempty"`
	FieldSelector string `json:"fieldSelector,omitempty"`

	// Pagination options
	Limit    int64  `json:"limit,omitempty"`    // Maximum number of items to return (0 = no limit)
	Continue string `json:"continue,omitempty"` // Continue token from a previous list call
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.LabelSelector != "" {
		q.Set("labelSelector", o.LabelSelector)
	}
	if o.FieldSelector != "" {
		q.Set("fieldSelector", o.FieldSelector)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.FormatInt(o.Limit, 10))
	}
	if o.Continue != "" {
		q.Set("continue", o.Continue)
	}
	return q
}

// RequestDispatcher translates verbs on a descriptor into HTTP calls.
type RequestDispatcher struct {
	requester *requester
}

// NewDispatcher returns a dispatcher for the server described by config.
// It does not run discovery; descriptors are supplied by the caller.
func NewDispatcher(config *Config) (*RequestDispatcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	req, err := newRequester(config)
	if err != nil {
		return nil, err
	}
	return &RequestDispatcher{requester: req}, nil
}

// List retrieves the collection of rd. A namespaced resource listed without
// a namespace spans all namespaces.
func (d *RequestDispatcher) List(ctx context.Context, rd ResourceDescriptor, opts ListOptions) (*unstructured.Unstructured, error) {
	// Validate operation
	if err := checkVerb(rd, VerbList); err != nil {
		return nil, err
	}

	return d.requester.do(ctx, request{
		operation: VerbList,
		resource:  rd.QualifiedName(),
		namespace: opts.Namespace,
		method:    http.MethodGet,
		path:      ResolvePath(rd, opts.Namespace, ""),
		query:     opts.query(),
	})
}

// Get retrieves one object of rd. An empty name lists the collection instead.
func (d *RequestDispatcher) Get(ctx context.Context, rd ResourceDescriptor, name, namespace string) (*unstructured.Unstructured, error) {
	if name == "" {
		return d.List(ctx, rd, ListOptions{Namespace: namespace})
	}

	// Validate operation
	if err := checkVerb(rd, VerbGet); err != nil {
		return nil, err
	}

	return d.requester.do(ctx, request{
		operation: VerbGet,
		resource:  rd.QualifiedName(),
		namespace: namespace,
		name:      name,
		method:    http.MethodGet,
		path:      ResolvePath(rd, namespace, name),
	})
}

// Create posts body to the collection of rd. When namespace is empty the
// body's metadata.namespace is used; without either the cluster-scoped
// collection is targeted. The body is not modified.
func (d *RequestDispatcher) Create(ctx context.Context, rd ResourceDescriptor, namespace string, body *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	// Validate operation
	if err := checkVerb(rd, VerbCreate); err != nil {
		return nil, err
	}
	if body == nil || body.Object == nil {
		return nil, fmt.Errorf("%w: create %s requires a body", ErrInvalidRequest, rd.QualifiedName())
	}

	if namespace == "" {
		namespace = body.GetNamespace()
	}

	data, err := json.Marshal(body.Object)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode body: %v", ErrInvalidRequest, err)
	}

	return d.requester.do(ctx, request{
		operation: VerbCreate,
		resource:  rd.QualifiedName(),
		namespace: namespace,
		method:    http.MethodPost,
		path:      ResolvePath(rd, namespace, ""),
		body:      data,
	})
}

// Update replaces an object of rd with body. Name and namespace fall back to
// the body's metadata.
func (d *RequestDispatcher) Update(ctx context.Context, rd ResourceDescriptor, name, namespace string, body *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	// Validate operation
	if err := checkVerb(rd, VerbUpdate); err != nil {
		return nil, err
	}
	if body == nil || body.Object == nil {
		return nil, fmt.Errorf("%w: update %s requires a body", ErrInvalidRequest, rd.QualifiedName())
	}

	if name == "" {
		name = body.GetName()
	}
	if namespace == "" {
		namespace = body.GetNamespace()
	}
	if name == "" {
		return nil, fmt.Errorf("%w: update %s requires a name", ErrInvalidRequest, rd.QualifiedName())
	}

	data, err := json.Marshal(body.Object)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode body: %v", ErrInvalidRequest, err)
	}

	return d.requester.do(ctx, request{
		operation: VerbUpdate,
		resource:  rd.QualifiedName(),
		namespace: namespace,
		name:      name,
		method:    http.MethodPut,
		path:      ResolvePath(rd, namespace, name),
		body:      data,
	})
}

// Patch sends a raw patch document for an object of rd. An empty patchType
// means JSON patch. When namespace is empty it is read from the patch body's
// metadata.namespace, if the body carries one.
func (d *RequestDispatcher) Patch(ctx context.Context, rd ResourceDescriptor, name, namespace string, patchType types.PatchType, body []byte) (*unstructured.Unstructured, error) {
	// Validate operation
	if err := checkVerb(rd, VerbPatch); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: patch %s requires a name", ErrInvalidRequest, rd.QualifiedName())
	}
	if patchType == "" {
		patchType = types.JSONPatchType
	}
	if err := validatePatch(patchType, body); err != nil {
		return nil, err
	}

	if namespace == "" {
		namespace = patchNamespace(body)
	}

	return d.requester.do(ctx, request{
		operation:   VerbPatch,
		resource:    rd.QualifiedName(),
		namespace:   namespace,
		name:        name,
		method:      http.MethodPatch,
		path:        ResolvePath(rd, namespace, name),
		body:        body,
		contentType: string(patchType),
	})
}

// Delete removes one object of rd.
func (d *RequestDispatcher) Delete(ctx context.Context, rd ResourceDescriptor, name, namespace string) (*unstructured.Unstructured, error) {
	// Validate operation
	if err := checkVerb(rd, VerbDelete); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: delete %s requires a name", ErrInvalidRequest, rd.QualifiedName())
	}

	return d.requester.do(ctx, request{
		operation: VerbDelete,
		resource:  rd.QualifiedName(),
		namespace: namespace,
		name:      name,
		method:    http.MethodDelete,
		path:      ResolvePath(rd, namespace, name),
	})
}

// DeleteCollection removes every object of rd matching opts.
func (d *RequestDispatcher) DeleteCollection(ctx context.Context, rd ResourceDescriptor, opts ListOptions) (*unstructured.Unstructured, error) {
	// Validate operation
	if err := checkVerb(rd, VerbDeleteCollection); err != nil {
		return nil, err
	}

	return d.requester.do(ctx, request{
		operation: VerbDeleteCollection,
		resource:  rd.QualifiedName(),
		namespace: opts.Namespace,
		method:    http.MethodDelete,
		path:      ResolvePath(rd, opts.Namespace, ""),
		query:     opts.query(),
	})
}

func checkVerb(rd ResourceDescriptor, verb string) error {
	if !rd.HasVerb(verb) {
		return &UnsupportedVerbError{Verb: verb, Resource: rd}
	}
	return nil
}

// validatePatch rejects unsupported patch types and malformed bodies.
func validatePatch(patchType types.PatchType, body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("%w: patch body is empty", ErrInvalidRequest)
	}

	switch patchType {
	case types.JSONPatchType:
		if _, err := jsonpatch.DecodePatch(body); err != nil {
			return fmt.Errorf("%w: invalid JSON patch: %v", ErrInvalidRequest, err)
		}
	case types.MergePatchType, types.StrategicMergePatchType:
		var doc map[string]interface{}
		if err := json.Unmarshal(body, &doc); err != nil {
			return fmt.Errorf("%w: %s body must be a JSON object: %v", ErrInvalidRequest, patchType, err)
		}
	default:
		return fmt.Errorf("%w: unsupported patch type %q", ErrInvalidRequest, patchType)
	}
	return nil
}

// patchNamespace reads metadata.namespace from a merge-style patch body.
func patchNamespace(body []byte) string {
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}
	namespace, _, _ := unstructured.NestedString(doc, "metadata", "namespace")
	return namespace
}
