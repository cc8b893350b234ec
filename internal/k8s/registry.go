package k8s

import (
	"slices"
	"strings"
)

// Registry is an immutable snapshot of the discovered resource catalog.
// It has no mutation API; all methods are safe for concurrent use.
type Registry struct {
	resources     []ResourceDescriptor
	byName        map[string][]int
	byKind        map[string][]int
	groupVersions []string
}

// NewRegistry builds a snapshot from discovered descriptors.
//
// Descriptors are deduplicated by (group, version, name); the first occurrence
// wins. When more than one descriptor of the same (group, kind) is flagged
// preferred, only the first keeps the flag. Sub-resources are dropped.
func NewRegistry(descriptors []ResourceDescriptor, logger Logger) *Registry {
	if logger == nil {
		logger = discardLogger()
	}

	r := &Registry{
		resources: make([]ResourceDescriptor, 0, len(descriptors)),
		byName:    make(map[string][]int),
		byKind:    make(map[string][]int),
	}

	seen := make(map[string]struct{}, len(descriptors))
	preferredKinds := make(map[string]struct{})
	seenGV := make(map[string]struct{})

	for _, rd := range descriptors {
		if isSubresource(rd.Name) {
			continue
		}

		key := rd.Key()
		if _, dup := seen[key]; dup {
			logger.Debug("Dropping duplicate resource", "resource", key)
			continue
		}
		seen[key] = struct{}{}

		if rd.Preferred {
			kindKey := rd.Group + "/" + rd.Kind
			if _, taken := preferredKinds[kindKey]; taken {
				logger.Debug("Demoting duplicate preferred resource", "resource", key, "kind", rd.Kind)
				rd.Preferred = false
			} else {
				preferredKinds[kindKey] = struct{}{}
			}
		}

		idx := len(r.resources)
		r.resources = append(r.resources, rd)
		r.byName[strings.ToLower(rd.Name)] = append(r.byName[strings.ToLower(rd.Name)], idx)
		r.byKind[strings.ToLower(rd.Kind)] = append(r.byKind[strings.ToLower(rd.Kind)], idx)

		gv := rd.APIVersion()
		if _, ok := seenGV[gv]; !ok {
			seenGV[gv] = struct{}{}
			r.groupVersions = append(r.groupVersions, gv)
		}
	}

	return r
}

// All returns a copy of every descriptor in discovery order.
func (r *Registry) All() []ResourceDescriptor {
	return slices.Clone(r.resources)
}

// Len returns the number of descriptors.
func (r *Registry) Len() int {
	return len(r.resources)
}

// Filter returns the descriptors for which keep returns true.
func (r *Registry) Filter(keep func(ResourceDescriptor) bool) []ResourceDescriptor {
	var out []ResourceDescriptor
	for _, rd := range r.resources {
		if keep(rd) {
			out = append(out, rd)
		}
	}
	return out
}

// ByName returns every descriptor with the given plural name, case-insensitively.
func (r *Registry) ByName(name string) []ResourceDescriptor {
	return r.pick(r.byName[strings.ToLower(name)])
}

// ByKind returns every descriptor of the given kind, case-insensitively.
func (r *Registry) ByKind(kind string) []ResourceDescriptor {
	return r.pick(r.byKind[strings.ToLower(kind)])
}

// GroupVersions returns the distinct apiVersion strings in discovery order.
func (r *Registry) GroupVersions() []string {
	return slices.Clone(r.groupVersions)
}

func (r *Registry) pick(indexes []int) []ResourceDescriptor {
	if len(indexes) == 0 {
		return nil
	}
	out := make([]ResourceDescriptor, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, r.resources[i])
	}
	return out
}
