package filetypes

import (
	"slices"
	"strings"
)

// Registry maps category names to definitions. It is filled with Register and sealed with
// Finalize; a finalized registry never changes and is safe for concurrent readers.
type Registry struct {
	defs      map[string]Definition
	order     []string
	owners    map[Extension]string
	finalized bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]Definition),
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a definition under name. Names are case-insensitive.
func (r *Registry) Register(name string, def Definition) error {
	if r.finalized {
		return ErrRegistryFinalized
	}

	name = normalizeName(name)
	if name == "" {
		return &InvalidDefinitionError{Name: name, Reason: "name cannot be empty"}
	}
	if _, exists := r.defs[name]; exists {
		return &DuplicateNameError{Name: name}
	}

	stored, err := validateDefinition(name, def)
	if err != nil {
		return err
	}

	r.defs[name] = stored
	r.order = append(r.order, name)
	return nil
}

// validateDefinition checks a definition and returns a private copy of it.
func validateDefinition(name string, def Definition) (Definition, error) {
	switch d := def.(type) {
	case Primitive:
		if len(d.Extensions) == 0 {
			return nil, &InvalidDefinitionError{Name: name, Reason: "primitive category needs at least one extension"}
		}
		exts := make([]Extension, 0, len(d.Extensions))
		for _, ext := range d.Extensions {
			ext = NormalizeExtension(string(ext))
			if ext == NoExtension {
				return nil, &InvalidDefinitionError{Name: name, Reason: "extension cannot be empty"}
			}
			if slices.Contains(exts, ext) {
				return nil, &InvalidDefinitionError{Name: name, Reason: "duplicate extension " + string(ext)}
			}
			exts = append(exts, ext)
		}
		return Primitive{Extensions: exts}, nil

	case Composite:
		if len(d.Includes) == 0 {
			return nil, &InvalidDefinitionError{Name: name, Reason: "composite category needs at least one include"}
		}
		refs := make([]string, 0, len(d.Includes))
		for _, ref := range d.Includes {
			ref = normalizeName(ref)
			if ref == "" {
				return nil, &InvalidDefinitionError{Name: name, Reason: "include cannot be empty"}
			}
			if slices.Contains(refs, ref) {
				return nil, &InvalidDefinitionError{Name: name, Reason: "duplicate include " + ref}
			}
			refs = append(refs, ref)
		}
		return Composite{Includes: refs}, nil

	default:
		return nil, &InvalidDefinitionError{Name: name, Reason: "definition must be a primitive or a composite"}
	}
}

// Finalize checks that every include resolves and that composites are acyclic, then seals
// the registry. Calling it again on a finalized registry is a no-op.
func (r *Registry) Finalize() error {
	if r.finalized {
		return nil
	}

	for _, name := range r.order {
		c, ok := r.defs[name].(Composite)
		if !ok {
			continue
		}
		for _, ref := range c.Includes {
			if _, exists := r.defs[ref]; !exists {
				return &UnknownReferenceError{Composite: name, Reference: ref}
			}
		}
	}

	if err := r.checkCycles(); err != nil {
		return err
	}

	r.owners = make(map[Extension]string)
	for _, name := range r.order {
		p, ok := r.defs[name].(Primitive)
		if !ok {
			continue
		}
		for _, ext := range p.Extensions {
			if _, claimed := r.owners[ext]; !claimed {
				r.owners[ext] = name
			}
		}
	}

	r.finalized = true
	return nil
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	done
)

// checkCycles runs a depth-first search over composite->composite edges. Reaching a node
// that is still in progress is a back edge and therefore a cycle.
func (r *Registry) checkCycles() error {
	state := make(map[string]visitState, len(r.order))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		state[name] = inProgress
		stack = append(stack, name)

		for _, ref := range r.defs[name].(Composite).Includes {
			if _, ok := r.defs[ref].(Composite); !ok {
				continue
			}
			switch state[ref] {
			case inProgress:
				start := slices.Index(stack, ref)
				path := append(slices.Clone(stack[start:]), ref)
				return &CycleError{Path: path}
			case unvisited:
				if err := visit(ref); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range r.order {
		if _, ok := r.defs[name].(Composite); !ok || state[name] != unvisited {
			continue
		}
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// Finalized reports whether Finalize has succeeded.
func (r *Registry) Finalized() bool {
	return r.finalized
}

// Lookup returns a copy of the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	switch d := r.defs[normalizeName(name)].(type) {
	case Primitive:
		return Primitive{Extensions: slices.Clone(d.Extensions)}, true
	case Composite:
		return Composite{Includes: slices.Clone(d.Includes)}, true
	default:
		return nil, false
	}
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	names := slices.Clone(r.order)
	slices.Sort(names)
	return names
}

// Classify returns the first registered primitive category owning ext, or OtherType.
func (r *Registry) Classify(ext Extension) string {
	if owner, ok := r.owners[NormalizeExtension(string(ext))]; ok {
		return owner
	}
	return OtherType
}
