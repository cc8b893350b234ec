package k8s

import (
	"fmt"
	"slices"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Platform identifies which flavour of API server owns a legacy route.
type Platform string

const (
	PlatformKubernetes Platform = "kubernetes"
	PlatformOpenShift  Platform = "openshift"
)

// RoutePrefix is the top-level route namespace a group/version lives under.
type RoutePrefix string

const (
	// RouteLegacy is /api for Kubernetes and /oapi for OpenShift.
	RouteLegacy RoutePrefix = "legacy"
	// RouteExtended is /apis.
	RouteExtended RoutePrefix = "extended"
)

// Supported verbs as advertised by discovery.
const (
	VerbList             = "list"
	VerbGet              = "get"
	VerbCreate           = "create"
	VerbUpdate           = "update"
	VerbPatch            = "patch"
	VerbDelete           = "delete"
	VerbDeleteCollection = "deletecollection"
	VerbWatch            = "watch"
	VerbProxy            = "proxy"
)

// GroupVersion identifies one API group and version to query during discovery.
type GroupVersion struct {
	Platform    Platform
	RoutePrefix RoutePrefix
	Group       string
	Version     string
	Preferred   bool
}

// Root returns the route root, e.g. /api/v1, /oapi/v1 or /apis/apps/v1.
func (gv GroupVersion) Root() string {
	return routeRoot(gv.Platform, gv.RoutePrefix, gv.Group, gv.Version)
}

// String renders the group/version the way apiVersion fields do.
func (gv GroupVersion) String() string {
	return schema.GroupVersion{Group: gv.Group, Version: gv.Version}.String()
}

// ResourceDescriptor is the runtime-discovered metadata of one resource kind.
// Descriptors are built once during discovery and never mutated.
type ResourceDescriptor struct {
	Platform     Platform
	RoutePrefix  RoutePrefix
	Group        string
	Version      string
	Kind         string
	Name         string
	Namespaced   bool
	Verbs        []string
	ShortNames   []string
	Categories   []string
	SingularName string
	Preferred    bool
}

// NewKubernetesResource builds a descriptor served by a Kubernetes API server.
// Legacy resources are rooted at /api.
func NewKubernetesResource(gv GroupVersion, resource metav1.APIResource) (ResourceDescriptor, error) {
	return newResource(PlatformKubernetes, gv, resource)
}

// NewOpenShiftResource builds a descriptor served by the OpenShift legacy API.
// Legacy resources are rooted at /oapi.
func NewOpenShiftResource(gv GroupVersion, resource metav1.APIResource) (ResourceDescriptor, error) {
	return newResource(PlatformOpenShift, gv, resource)
}

func newResource(platform Platform, gv GroupVersion, resource metav1.APIResource) (ResourceDescriptor, error) {
	if resource.Name == "" || resource.Kind == "" || gv.Version == "" {
		return ResourceDescriptor{}, fmt.Errorf("%w: name, kind and version are required (name=%q kind=%q version=%q)",
			ErrInvalidResource, resource.Name, resource.Kind, gv.Version)
	}
	if isSubresource(resource.Name) {
		return ResourceDescriptor{}, fmt.Errorf("%w: %q is a sub-resource", ErrInvalidResource, resource.Name)
	}

	prefix := gv.RoutePrefix
	if prefix == "" {
		prefix = defaultRoutePrefix(gv.Group, gv.Version)
	}

	return ResourceDescriptor{
		Platform:     platform,
		RoutePrefix:  prefix,
		Group:        gv.Group,
		Version:      gv.Version,
		Kind:         resource.Kind,
		Name:         resource.Name,
		Namespaced:   resource.Namespaced,
		Verbs:        slices.Clone([]string(resource.Verbs)),
		ShortNames:   slices.Clone(resource.ShortNames),
		Categories:   slices.Clone(resource.Categories),
		SingularName: resource.SingularName,
		Preferred:    gv.Preferred,
	}, nil
}

// defaultRoutePrefix picks the route namespace when discovery did not say:
// the ungrouped v1 lives under the legacy root, everything else under /apis.
func defaultRoutePrefix(group, version string) RoutePrefix {
	if group == "" && version == "v1" {
		return RouteLegacy
	}
	return RouteExtended
}

// isSubresource reports whether a discovery name denotes a sub-resource (pods/status).
func isSubresource(name string) bool {
	return strings.Contains(name, "/")
}

// Root returns the route root of the descriptor's group/version.
func (r ResourceDescriptor) Root() string {
	return routeRoot(r.Platform, r.RoutePrefix, r.Group, r.Version)
}

// GroupVersion returns the group/version the descriptor was discovered under.
func (r ResourceDescriptor) GroupVersion() GroupVersion {
	return GroupVersion{
		Platform:    r.Platform,
		RoutePrefix: r.RoutePrefix,
		Group:       r.Group,
		Version:     r.Version,
		Preferred:   r.Preferred,
	}
}

// GroupVersionResource returns the apimachinery identifier of the descriptor.
func (r ResourceDescriptor) GroupVersionResource() schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: r.Group, Version: r.Version, Resource: r.Name}
}

// GroupVersionKind returns the apimachinery kind identifier of the descriptor.
func (r ResourceDescriptor) GroupVersionKind() schema.GroupVersionKind {
	return schema.GroupVersionKind{Group: r.Group, Version: r.Version, Kind: r.Kind}
}

// APIVersion renders the apiVersion value objects of this resource carry.
func (r ResourceDescriptor) APIVersion() string {
	return schema.GroupVersion{Group: r.Group, Version: r.Version}.String()
}

// QualifiedName renders name.group (kubectl style), or just name for the legacy group.
func (r ResourceDescriptor) QualifiedName() string {
	if r.Group == "" {
		return r.Name
	}
	return r.Name + "." + r.Group
}

// Key uniquely identifies a descriptor inside a registry snapshot.
func (r ResourceDescriptor) Key() string {
	return r.Group + "/" + r.Version + "/" + r.Name
}

// HasVerb reports whether the descriptor advertises verb.
func (r ResourceDescriptor) HasVerb(verb string) bool {
	return slices.Contains(r.Verbs, verb)
}

// String renders the descriptor as "<Kind group/version>".
func (r ResourceDescriptor) String() string {
	return fmt.Sprintf("<%s %s>", r.Kind, r.APIVersion())
}

func routeRoot(platform Platform, prefix RoutePrefix, group, version string) string {
	var base string
	switch {
	case prefix == RouteExtended:
		base = "/apis"
	case platform == PlatformOpenShift:
		base = "/oapi"
	default:
		base = "/api"
	}
	if group == "" {
		return base + "/" + version
	}
	return base + "/" + group + "/" + version
}
