package k8s

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"k8s.io/apimachinery/pkg/version"
)

// Singularizer turns a plural search term into its singular form.
type Singularizer func(string) string

// TrimPluralS strips one trailing "s". It is the default singularizer and
// knowingly gets irregular plurals wrong ("ingresses" becomes "ingresse").
func TrimPluralS(term string) string {
	return strings.TrimSuffix(term, "s")
}

// Matcher finds descriptors by a user-supplied term.
type Matcher struct {
	singularize Singularizer
}

// NewMatcher returns a matcher using singularize, or TrimPluralS when nil.
func NewMatcher(singularize Singularizer) *Matcher {
	if singularize == nil {
		singularize = TrimPluralS
	}
	return &Matcher{singularize: singularize}
}

// Match returns every descriptor in registry matching term, best first.
//
// A descriptor matches when the term, or its singular form, equals the
// descriptor's name, singular name, kind, one of its short names or one of
// its categories, ignoring case. Results are ordered preferred first, then
// by shortest name, then by shortest group, then by group, then by newest
// version.
func (m *Matcher) Match(term string, registry *Registry) []ResourceDescriptor {
	if registry == nil {
		return nil
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	folded := fold(term)
	singular := fold(m.singularize(folded))

	matches := registry.Filter(func(rd ResourceDescriptor) bool {
		return matchesAny(rd, folded, singular)
	})
	slices.SortStableFunc(matches, compareCandidates)

	return matches
}

// Resolve returns the single best descriptor for term. It fails with an
// *AmbiguousResourceError when nothing matches, or when another candidate
// ranks equal to the best one for a different resource.
func (m *Matcher) Resolve(term string, registry *Registry) (ResourceDescriptor, error) {
	matches := m.Match(term, registry)
	if len(matches) == 0 {
		return ResourceDescriptor{}, &AmbiguousResourceError{Term: term}
	}

	best := matches[0]
	tied := []ResourceDescriptor{best}
	for _, rd := range matches[1:] {
		if !sameRank(best, rd) {
			break
		}
		if rd.Group != best.Group || rd.Name != best.Name {
			tied = append(tied, rd)
		}
	}
	if len(tied) > 1 {
		return ResourceDescriptor{}, &AmbiguousResourceError{Term: term, Candidates: tied}
	}

	return best, nil
}

func matchesAny(rd ResourceDescriptor, term, singular string) bool {
	candidates := make([]string, 0, 3+len(rd.ShortNames)+len(rd.Categories))
	candidates = append(candidates, rd.Name, rd.SingularName, rd.Kind)
	candidates = append(candidates, rd.ShortNames...)
	candidates = append(candidates, rd.Categories...)

	for _, c := range candidates {
		if c == "" {
			continue
		}
		c = fold(c)
		if c == term || c == singular {
			return true
		}
	}
	return false
}

// compareCandidates orders descriptors by rank, best first.
func compareCandidates(a, b ResourceDescriptor) int {
	if a.Preferred != b.Preferred {
		if a.Preferred {
			return -1
		}
		return 1
	}
	if d := len(a.Name) - len(b.Name); d != 0 {
		return d
	}
	if d := len(a.Group) - len(b.Group); d != 0 {
		return d
	}
	if c := strings.Compare(a.Group, b.Group); c != 0 {
		return c
	}
	// Newest version first: v1 > v1beta1 > v1alpha1.
	return -version.CompareKubeAwareVersionStrings(a.Version, b.Version)
}

func sameRank(a, b ResourceDescriptor) bool {
	return a.Preferred == b.Preferred && len(a.Name) == len(b.Name) && len(a.Group) == len(b.Group)
}

// fold creates a fresh caser per call; cases.Caser is not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}
