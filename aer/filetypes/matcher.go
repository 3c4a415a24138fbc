package filetypes

import (
	"slices"
)

// Matcher decides whether a file extension belongs to a compiled category.
// A Matcher is immutable once returned by Compile.
type Matcher struct {
	category string
	all      bool
	exts     map[Extension]struct{}
}

// MatchAll returns a matcher accepting every extension, including NoExtension.
func MatchAll() *Matcher {
	return &Matcher{all: true}
}

// Accepts reports whether ext is in the matcher's closure. The comparison is case-insensitive.
func (m *Matcher) Accepts(ext Extension) bool {
	if m.all {
		return true
	}
	_, ok := m.exts[NormalizeExtension(string(ext))]
	return ok
}

// AcceptsPath is Accepts applied to the extension of path.
func (m *Matcher) AcceptsPath(path string) bool {
	return m.Accepts(ExtensionOf(path))
}

// All reports whether the matcher accepts everything.
func (m *Matcher) All() bool {
	return m.all
}

// Category is the name the matcher was compiled from, empty for MatchAll.
func (m *Matcher) Category() string {
	return m.category
}

// Extensions returns the sorted closure. It is nil for MatchAll.
func (m *Matcher) Extensions() []Extension {
	if m.all {
		return nil
	}
	exts := make([]Extension, 0, len(m.exts))
	for ext := range m.exts {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Compile resolves name against a finalized registry. An empty name yields MatchAll.
// Unknown names fail with *UnknownCategoryError.
func Compile(r *Registry, name string) (*Matcher, error) {
	if !r.Finalized() {
		return nil, ErrRegistryNotFinalized
	}

	name = normalizeName(name)
	if name == "" {
		return MatchAll(), nil
	}
	if _, ok := r.defs[name]; !ok {
		return nil, &UnknownCategoryError{Name: name}
	}

	memo := make(map[string]map[Extension]struct{})

	// Finalize rejected cycles, so the recursion terminates.
	var closure func(string) map[Extension]struct{}
	closure = func(n string) map[Extension]struct{} {
		if set, ok := memo[n]; ok {
			return set
		}
		set := make(map[Extension]struct{})
		switch d := r.defs[n].(type) {
		case Primitive:
			for _, ext := range d.Extensions {
				set[ext] = struct{}{}
			}
		case Composite:
			for _, ref := range d.Includes {
				for ext := range closure(ref) {
					set[ext] = struct{}{}
				}
			}
		}
		memo[n] = set
		return set
	}

	return &Matcher{category: name, exts: closure(name)}, nil
}
