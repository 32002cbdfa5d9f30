package server

import (
	"bytes"
	"context"
	"io"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestEncodeQRProducesPNG(t *testing.T) {
	img, err := encodeQR("http://localhost:8080/download/sometoken")
	if err != nil {
		t.Fatalf("encodeQR error: %v", err)
	}
	if len(img) == 0 {
		t.Fatal("expected non-empty image")
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatalf("output is not a PNG, first bytes: %v", img[:4])
	}
}

func TestEncodeQRDeterministic(t *testing.T) {
	const url = "http://localhost:8080/download/tok123"
	a, err := encodeQR(url)
	if err != nil {
		t.Fatalf("encodeQR error: %v", err)
	}
	b, err := encodeQR(url)
	if err != nil {
		t.Fatalf("encodeQR error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("expected identical output for identical input")
	}
}

func TestStoreQR(t *testing.T) {
	store, _ := newTestDiskStore(t)
	ctx := context.Background()

	name, err := storeQR(ctx, store, "tok-abc_123", "http://localhost:8080/download/tok-abc_123")
	if err != nil {
		t.Fatalf("storeQR error: %v", err)
	}
	if name != "tok-abc_123.png" {
		t.Fatalf("unexpected QR filename: %q", name)
	}

	rc, err := store.Get(ctx, "qrcodes/"+name)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer rc.Close()

	img, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatal("stored QR is not a PNG")
	}
}

func TestQRFilenamePattern(t *testing.T) {
	valid := []string{"abc123.png", "a-b_c.png", "X9.png"}
	invalid := []string{"", ".png", "abc.jpg", "../escape.png", "a/b.png", "abc.png.exe", "abc .png"}

	for _, name := range valid {
		if !qrFilenamePattern.MatchString(name) {
			t.Errorf("expected %q to match", name)
		}
	}
	for _, name := range invalid {
		if qrFilenamePattern.MatchString(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}
