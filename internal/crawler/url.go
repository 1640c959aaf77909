package crawler

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// IDPlaceholder is replaced by the identifier in URL templates.
const IDPlaceholder = "{id}"

const (
	documentPrefix = "bookView_"
	documentExt    = ".html"
	recordExt      = ".json"
)

// BuildURL substitutes id into template.
func BuildURL(template string, id int) string {
	return strings.ReplaceAll(template, IDPlaceholder, strconv.Itoa(id))
}

// DocumentName is the file name of the raw page stored for id.
func DocumentName(id int) string {
	return fmt.Sprintf("%s%d%s", documentPrefix, id, documentExt)
}

// RecordName is the file name of the record extracted for id.
func RecordName(id int) string {
	return fmt.Sprintf("%s%d%s", documentPrefix, id, recordExt)
}

// IsDocumentName reports whether name looks like a stored raw page.
func IsDocumentName(name string) bool {
	return strings.HasSuffix(path.Base(name), documentExt)
}

// RecordNameFor maps a stored document's name to its record's name.
func RecordNameFor(documentName string) string {
	base := path.Base(documentName)
	return strings.TrimSuffix(base, documentExt) + recordExt
}

// IDFromName parses the identifier out of a document or record name.
func IDFromName(name string) (int, bool) {
	base := path.Base(name)
	base = strings.TrimSuffix(strings.TrimSuffix(base, documentExt), recordExt)
	if !strings.HasPrefix(base, documentPrefix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(base, documentPrefix))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
