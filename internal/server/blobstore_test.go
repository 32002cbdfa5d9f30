package server

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTestDiskStore(t *testing.T) (BlobStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := NewDiskStore(root)
	if err != nil {
		t.Fatalf("NewDiskStore error: %v", err)
	}
	return store, root
}

func TestDiskStoreRoundTrip(t *testing.T) {
	store, _ := newTestDiskStore(t)
	ctx := context.Background()

	payload := []byte("%PDF-1.4 fake document body")
	if err := store.Put(ctx, "uploads/abc.pdf", bytes.NewReader(payload), int64(len(payload)), "application/pdf"); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	rc, err := store.Get(ctx, "uploads/abc.pdf")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %q want %q", got, payload)
	}
}

func TestDiskStoreCreatesLayout(t *testing.T) {
	_, root := newTestDiskStore(t)

	for _, dir := range []string{"uploads", "qrcodes"} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil {
			t.Fatalf("stat %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("%s is not a directory", dir)
		}
	}
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	store, _ := newTestDiskStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../outside", "uploads/../../etc/passwd", "/absolute"} {
		if err := store.Put(ctx, key, bytes.NewReader(nil), 0, ""); err == nil {
			t.Errorf("Put(%q): expected error", key)
		}
		if _, err := store.Get(ctx, key); err == nil {
			t.Errorf("Get(%q): expected error", key)
		}
	}
}

func TestDiskStoreGetMissing(t *testing.T) {
	store, _ := newTestDiskStore(t)
	if _, err := store.Get(context.Background(), "uploads/nope.pdf"); err == nil {
		t.Fatal("expected error for missing blob")
	}
}

func TestDiskStorePing(t *testing.T) {
	store, root := newTestDiskStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping error: %v", err)
	}

	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("remove root: %v", err)
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("expected Ping error after root removal")
	}
}
