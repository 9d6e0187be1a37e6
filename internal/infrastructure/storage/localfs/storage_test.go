package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveThenOpenRoundTrip(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "products.csv", strings.NewReader("id,name\n1,A\n")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rc, err := storage.Open(context.Background(), "products.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "id,name\n1,A\n" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestSaveStripsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	storage, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "../../etc/evil.csv", strings.NewReader("x")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// The traversal segments must be gone; only the basename survives.
	if _, err := storage.Open(context.Background(), "evil.csv"); err != nil {
		t.Fatalf("expected file under the archive root, got %v", err)
	}
}

func TestSaveRejectsEmptyKey(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := storage.Save(context.Background(), "..", strings.NewReader("x")); err == nil {
		t.Fatalf("expected invalid key error")
	}
}
