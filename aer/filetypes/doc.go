// Package filetypes holds the category table that classifies files by extension.
//
// Primitive categories bind a name to extensions. Composite categories bind a name to other
// category names, primitive or composite. A Registry is filled once, checked by Finalize for
// unknown references and inclusion cycles, and is read-only afterwards. Compile resolves a
// requested category into a Matcher holding the transitive closure of its extensions.
package filetypes
