// Package extract turns one stored dictionary page into an idiom.Record.
//
// Extraction is keyed on the literal heading and label text the dictionary
// prints. The mapping from those labels to record fields lives in rules.go;
// dom.go holds the traversal primitives the rules are built from. Every lookup
// reports whether its anchor was found and leaves the field at its default
// otherwise, so Extract is total: it never fails and never panics on markup
// that lacks a section.
package extract
