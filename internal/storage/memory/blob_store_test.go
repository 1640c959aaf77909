package memory

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("content")
	uri, err := store.PutObject(context.Background(), "html/page.html", "text/html", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if uri != "memory://html/page.html" {
		t.Fatalf("unexpected uri %s", uri)
	}
	payload[0] = 'C'
	stored, err := store.GetObject(context.Background(), "html/page.html")
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	if string(stored) != "content" {
		t.Fatalf("expected stored copy to be immutable, got %q", stored)
	}
}

func TestBlobStoreGetObjectMissing(t *testing.T) {
	t.Parallel()

	_, err := NewBlobStore().GetObject(context.Background(), "html/none.html")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestBlobStoreListObjects(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	ctx := context.Background()
	for _, key := range []string{"html/b.html", "html/a.html", "json/a.json", "root.txt"} {
		if _, err := store.PutObject(ctx, key, "", bytes.NewReader([]byte(key))); err != nil {
			t.Fatalf("PutObject(%s) error = %v", key, err)
		}
	}

	keys, err := store.ListObjects(ctx, "html")
	if err != nil {
		t.Fatalf("ListObjects() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "html/a.html" || keys[1] != "html/b.html" {
		t.Fatalf("unexpected keys %v", keys)
	}

	root, err := store.ListObjects(ctx, "")
	if err != nil {
		t.Fatalf("ListObjects(root) error = %v", err)
	}
	if len(root) != 1 || root[0] != "root.txt" {
		t.Fatalf("unexpected root keys %v", root)
	}
	if store.Len() != 4 {
		t.Fatalf("expected 4 objects, got %d", store.Len())
	}
}
