// Package record serializes idiom records to the JSON layout written next to
// the raw pages, and loads raw pages and records back.
package record

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/crawler"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/idiom"
)

// ContentType is the media type recorded for stored records.
const ContentType = "application/json; charset=utf-8"

const indent = "    "

// Encode writes rec as indented JSON. Non-ASCII text and markup characters
// are written literally.
func Encode(w io.Writer, rec idiom.Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

// Marshal returns the encoded form of rec.
func Marshal(rec idiom.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads one record. Null sequences are normalized to empty ones.
func Load(r io.Reader) (idiom.Record, error) {
	var rec idiom.Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return idiom.Record{}, fmt.Errorf("decode record: %w", err)
	}
	rec.Normalize()
	return rec, nil
}

// Writer persists records under a directory of a blob store.
type Writer struct {
	store crawler.BlobStore
	dir   string
}

// NewWriter returns a Writer storing records under dir.
func NewWriter(store crawler.BlobStore, dir string) *Writer {
	return &Writer{store: store, dir: dir}
}

// Key returns the store key of the record for id.
func (w *Writer) Key(id int) string {
	return path.Join(w.dir, crawler.RecordName(id))
}

// KeyFor returns the store key of the record extracted from documentKey.
func (w *Writer) KeyFor(documentKey string) string {
	return path.Join(w.dir, crawler.RecordNameFor(documentKey))
}

// Write stores rec for id, replacing any earlier record.
func (w *Writer) Write(ctx context.Context, id int, rec idiom.Record) (string, error) {
	return w.put(ctx, w.Key(id), rec)
}

// WriteFor stores rec under the name derived from documentKey.
func (w *Writer) WriteFor(ctx context.Context, documentKey string, rec idiom.Record) (string, error) {
	return w.put(ctx, w.KeyFor(documentKey), rec)
}

// Read loads the record stored for id.
func (w *Writer) Read(ctx context.Context, id int) (idiom.Record, error) {
	data, err := w.store.GetObject(ctx, w.Key(id))
	if err != nil {
		return idiom.Record{}, fmt.Errorf("read record %d: %w", id, err)
	}
	return Load(bytes.NewReader(data))
}

func (w *Writer) put(ctx context.Context, key string, rec idiom.Record) (string, error) {
	payload, err := Marshal(rec)
	if err != nil {
		return "", err
	}
	uri, err := w.store.PutObject(ctx, key, ContentType, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("write record %s: %w", key, err)
	}
	return uri, nil
}

// LoadDocument returns the full text of the raw document stored under key.
func LoadDocument(ctx context.Context, store crawler.BlobStore, key string) (string, error) {
	data, err := store.GetObject(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load document %s: %w", key, err)
	}
	return string(data), nil
}
