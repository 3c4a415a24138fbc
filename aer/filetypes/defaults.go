package filetypes

import (
	"fmt"
	"slices"
)

// TableRow is one entry of a category table.
type TableRow struct {
	Name       string
	Definition Definition
}

// DefaultTable is the built-in media category table. Primitive rows come first so that
// Classify names a file after its concrete format.
var DefaultTable = []TableRow{
	{"jpg", Extensions("jpg", "jpeg")},
	{"png", Extensions("png")},
	{"gif", Extensions("gif")},
	{"mp4", Extensions("mp4")},
	{"flac", Extensions("flac")},
	{"mp3", Extensions("mp3")},
	{"webp", Extensions("webp")},
	{"webm", Extensions("webm")},
	{"images", Includes("jpg", "png", "gif", "webp")},
	{"videos", Includes("mp4", "webm")},
	{"animations", Includes("mp4", "webm", "gif")},
	{"audio", Includes("mp3")},
	{"v8", Includes("webp", "webm")},
	{"media", Includes("images", "videos", "audio")},
}

// BuildRegistry registers every row in order and finalizes the result.
func BuildRegistry(rows []TableRow) (*Registry, error) {
	r := NewRegistry()
	for _, row := range rows {
		if err := r.Register(row.Name, row.Definition); err != nil {
			return nil, err
		}
	}
	if err := r.Finalize(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewDefaultRegistry builds the registry for DefaultTable.
func NewDefaultRegistry() (*Registry, error) {
	return BuildRegistry(DefaultTable)
}

// TableWith appends extra primitive and composite rows to base. Extra rows are sorted by
// name, primitives before composites, so the resulting table is deterministic for map input.
func TableWith(base []TableRow, primitives, composites map[string][]string) []TableRow {
	rows := slices.Clone(base)

	for _, name := range sortedKeys(primitives) {
		rows = append(rows, TableRow{Name: name, Definition: Extensions(primitives[name]...)})
	}
	for _, name := range sortedKeys(composites) {
		rows = append(rows, TableRow{Name: name, Definition: Includes(composites[name]...)})
	}
	return rows
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// MustDefaultRegistry builds the default registry and panics if the built-in table is broken.
func MustDefaultRegistry() *Registry {
	r, err := NewDefaultRegistry()
	if err != nil {
		panic(fmt.Sprintf("filetypes: built-in category table: %v", err))
	}
	return r
}
