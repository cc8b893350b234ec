package cmd

import (
	"errors"
	"strings"

	"github.com/giantswarm/kube-dynamic/internal/k8s"
)

// errorKinds maps error categories to the label printed by Execute.
// Order matters: a discovery failure wraps the API or transport error that
// caused it.
var errorKinds = []struct {
	target error
	kind   string
}{
	{k8s.ErrInvalidConfig, "InvalidConfig"},
	{k8s.ErrInvalidRequest, "InvalidRequest"},
	{k8s.ErrInvalidResource, "InvalidResource"},
	{k8s.ErrDiscoveryFailed, "DiscoveryFailed"},
	{k8s.ErrNoResourceMatch, "NoResourceMatch"},
	{k8s.ErrAmbiguousResource, "AmbiguousResource"},
	{k8s.ErrUnsupportedVerb, "UnsupportedVerb"},
	{k8s.ErrUnsupportedMediaType, "UnsupportedMediaType"},
	{k8s.ErrAPIStatus, "APIError"},
	{k8s.ErrTransport, "TransportError"},
}

// errorKind returns the category label of err, or "" for errors outside the
// client's taxonomy such as flag parsing failures.
func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}
	return ""
}

// formatError renders err as a single "Error: <kind>: <message>" line.
func formatError(err error) string {
	message := strings.Join(strings.Fields(err.Error()), " ")
	if kind := errorKind(err); kind != "" {
		return "Error: " + kind + ": " + message
	}
	return "Error: " + message
}
