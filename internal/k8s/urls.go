package k8s

import (
	"net/url"
	"strings"
)

// Placeholders used in URL templates.
const (
	NamespacePlaceholder = "{namespace}"
	NamePlaceholder      = "{name}"
)

// URLTemplates holds the four path templates of a resource. Templates are
// relative to the API server base URL and contain the {namespace} and {name}
// placeholders where a caller value is bound.
type URLTemplates struct {
	Base           string `json:"base"`
	NamespacedBase string `json:"namespacedBase"`
	Full           string `json:"full"`
	NamespacedFull string `json:"namespacedFull"`
}

// URLs returns the path templates of the descriptor.
//
// For a namespaced apps/v1 deployments descriptor:
//
//	base            /apis/apps/v1/deployments
//	namespacedBase  /apis/apps/v1/namespaces/{namespace}/deployments
//	full            /apis/apps/v1/deployments/{name}
//	namespacedFull  /apis/apps/v1/namespaces/{namespace}/deployments/{name}
func (r ResourceDescriptor) URLs() URLTemplates {
	root := r.Root()
	base := root + "/" + r.Name
	namespacedBase := root + "/namespaces/" + NamespacePlaceholder + "/" + r.Name

	return URLTemplates{
		Base:           base,
		NamespacedBase: namespacedBase,
		Full:           base + "/" + NamePlaceholder,
		NamespacedFull: namespacedBase + "/" + NamePlaceholder,
	}
}

// ResolvePath binds namespace and name into the matching template of rd.
//
// The namespaced variant is used iff the resource is namespaced and namespace
// is non-empty. A namespaced resource with an empty namespace resolves to the
// unscoped path, which the API server serves across all namespaces. An empty
// name selects the collection path.
func ResolvePath(rd ResourceDescriptor, namespace, name string) string {
	urls := rd.URLs()
	scoped := rd.Namespaced && namespace != ""

	var template string
	switch {
	case scoped && name != "":
		template = urls.NamespacedFull
	case scoped:
		template = urls.NamespacedBase
	case name != "":
		template = urls.Full
	default:
		template = urls.Base
	}

	return bindPath(template, namespace, name)
}

func bindPath(template, namespace, name string) string {
	replacer := strings.NewReplacer(
		NamespacePlaceholder, url.PathEscape(namespace),
		NamePlaceholder, url.PathEscape(name),
	)
	return replacer.Replace(template)
}
