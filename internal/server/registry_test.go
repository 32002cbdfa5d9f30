package server

import (
	"sync"
	"testing"
	"time"
)

func TestIssueAndResolve(t *testing.T) {
	tr := NewTokenRegistry()

	rec := FileRecord{
		OriginalName: "report.PDF",
		StorageKey:   "uploads/abc.pdf",
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	}

	token, err := tr.Issue(rec)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	// 16 bytes base64url without padding is 22 characters.
	if len(token) != 22 {
		t.Fatalf("unexpected token length: got %d want 22", len(token))
	}

	got, ok := tr.Resolve(token)
	if !ok {
		t.Fatal("expected token to resolve")
	}
	if got.OriginalName != rec.OriginalName {
		t.Fatalf("unexpected OriginalName: got %q want %q", got.OriginalName, rec.OriginalName)
	}
	if got.StorageKey != rec.StorageKey {
		t.Fatalf("unexpected StorageKey: got %q want %q", got.StorageKey, rec.StorageKey)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	tr := NewTokenRegistry()
	if _, ok := tr.Resolve("no-such-token"); ok {
		t.Fatal("expected unknown token to not resolve")
	}
}

func TestResolveDoesNotCheckExpiry(t *testing.T) {
	tr := NewTokenRegistry()

	token, err := tr.Issue(FileRecord{
		OriginalName: "old.png",
		StorageKey:   "uploads/old.png",
		ExpiresAt:    time.Now().Add(-1 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// Resolve is a pure lookup; the expiration check belongs to the
	// download gateway.
	if _, ok := tr.Resolve(token); !ok {
		t.Fatal("expected expired record to still resolve")
	}
}

func TestIssueTokensAreUnique(t *testing.T) {
	tr := NewTokenRegistry()
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		token, err := tr.Issue(FileRecord{})
		if err != nil {
			t.Fatalf("Issue error: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token issued: %q", token)
		}
		seen[token] = true
	}

	if tr.Len() != 1000 {
		t.Fatalf("unexpected registry size: got %d want 1000", tr.Len())
	}
}

func TestConcurrentIssue(t *testing.T) {
	tr := NewTokenRegistry()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := tr.Issue(FileRecord{}); err != nil {
				t.Errorf("Issue error: %v", err)
			}
		}()
	}
	wg.Wait()

	if tr.Len() != n {
		t.Fatalf("unexpected registry size: got %d want %d", tr.Len(), n)
	}
}
