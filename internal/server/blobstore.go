// blobstore.go - Storage abstraction for uploaded files and QR images.
//
// Keys are slash-separated ("uploads/<name>", "qrcodes/<token>.png").
// The disk store maps them onto a directory tree; the MinIO store (see
// minio.go) maps them onto object keys.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore stores and retrieves immutable blobs by key.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Ping(ctx context.Context) error
}

// diskStore keeps blobs as plain files under a root directory.
type diskStore struct {
	root string
}

// NewDiskStore creates the root (and the two well-known subdirectories)
// if missing and returns a disk-backed store.
func NewDiskStore(root string) (BlobStore, error) {
	if root == "" {
		return nil, fmt.Errorf("empty storage root")
	}
	for _, dir := range []string{root, filepath.Join(root, "uploads"), filepath.Join(root, "qrcodes")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &diskStore{root: root}, nil
}

// cleanKey rejects keys that could escape the root.
func (d *diskStore) cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid blob key: %q", key)
	}
	return filepath.Join(d.root, filepath.FromSlash(key)), nil
}

func (d *diskStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := d.cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func (d *diskStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := d.cleanKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (d *diskStore) Ping(ctx context.Context) error {
	info, err := os.Stat(d.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root is not a directory: %s", d.root)
	}
	return nil
}
