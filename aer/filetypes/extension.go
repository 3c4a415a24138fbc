package filetypes

import (
	"path/filepath"
	"strings"
)

// Extension is a lowercased file extension without the leading dot.
type Extension string

// NoExtension is the token for files without an extension.
const NoExtension Extension = ""

// OtherType is the classification of extensions no primitive category owns.
const OtherType = "other"

// NormalizeExtension lowercases ext and strips surrounding whitespace and one leading dot.
func NormalizeExtension(ext string) Extension {
	ext = strings.TrimSpace(ext)
	ext = strings.TrimPrefix(ext, ".")
	return Extension(strings.ToLower(ext))
}

// ExtensionOf returns the normalized extension of the final path element.
// A name whose only dot is leading, such as ".profile", has no extension.
func ExtensionOf(path string) Extension {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return NoExtension
	}
	return NormalizeExtension(ext)
}
