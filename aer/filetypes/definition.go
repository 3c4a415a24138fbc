package filetypes

// Kind tells primitive and composite definitions apart.
type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindComposite Kind = "composite"
)

// Definition is either a Primitive or a Composite.
type Definition interface {
	Kind() Kind
	definition()
}

// Primitive binds a category directly to extensions.
type Primitive struct {
	Extensions []Extension
}

func (Primitive) Kind() Kind { return KindPrimitive }
func (Primitive) definition() {}

// Composite is the union of the referenced categories.
type Composite struct {
	Includes []string
}

func (Composite) Kind() Kind { return KindComposite }
func (Composite) definition() {}

// Extensions builds a Primitive from raw extension strings.
func Extensions(exts ...string) Primitive {
	p := Primitive{Extensions: make([]Extension, 0, len(exts))}
	for _, ext := range exts {
		p.Extensions = append(p.Extensions, NormalizeExtension(ext))
	}
	return p
}

// Includes builds a Composite from category names.
func Includes(names ...string) Composite {
	c := Composite{Includes: make([]string, 0, len(names))}
	for _, name := range names {
		c.Includes = append(c.Includes, normalizeName(name))
	}
	return c
}
