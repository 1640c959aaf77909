package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/idiom"
)

// Extract parses one page and maps it onto a Record. It has no side effects
// and returns a fully defaulted Record for empty or unrelated markup.
func Extract(doc string) idiom.Record {
	rec, err := ExtractReader(strings.NewReader(doc))
	if err != nil {
		return idiom.NewRecord()
	}
	return rec
}

// ExtractReader is Extract over a stream. The only error it reports is a
// failure to read r.
func ExtractReader(r io.Reader) (idiom.Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return idiom.NewRecord(), fmt.Errorf("parse document: %w", err)
	}
	return fromDocument(doc), nil
}

// Extractor adapts Extract to interfaces that expect a method.
type Extractor struct{}

// New returns an Extractor.
func New() Extractor {
	return Extractor{}
}

// Extract implements extraction for callers holding an Extractor.
func (Extractor) Extract(doc string) idiom.Record {
	return Extract(doc)
}

func fromDocument(doc *goquery.Document) idiom.Record {
	rec := idiom.NewRecord()
	if title := doc.Find(titleSelector).First(); title.Length() > 0 {
		rec.Title = strings.TrimSpace(title.Text())
	}
	for _, sec := range sections(doc) {
		rule, ok := ruleFor(sec.heading)
		if !ok {
			continue
		}
		rule.extract(sec, &rec)
	}
	return rec
}
