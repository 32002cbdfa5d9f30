// registry.go - In-memory access-token registry for uploaded files.
//
// Maps opaque download tokens to file records for the lifetime of the
// process. Nothing is persisted: a restart invalidates every token
// issued before it.
package server

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
)

// tokenBytes is the entropy behind each access token. 16 bytes = 128
// bits, enough that collisions and enumeration are not worth checking
// for.
const tokenBytes = 16

// TokenRegistry owns the token -> FileRecord mapping. Mutations are
// serialized through a mutex so concurrent uploads cannot race.
type TokenRegistry struct {
	mu      sync.RWMutex
	records map[string]FileRecord
}

// NewTokenRegistry returns an empty registry.
func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{records: make(map[string]FileRecord)}
}

// Issue generates a fresh random token, stores the mapping and returns
// the token. Tokens are never reused; expiry is not checked here.
func (tr *TokenRegistry) Issue(rec FileRecord) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	tr.mu.Lock()
	tr.records[token] = rec
	tr.mu.Unlock()

	return token, nil
}

// Resolve is a pure lookup. Expiration is the caller's responsibility.
func (tr *TokenRegistry) Resolve(token string) (FileRecord, bool) {
	tr.mu.RLock()
	rec, ok := tr.records[token]
	tr.mu.RUnlock()
	return rec, ok
}

// Len reports the number of issued tokens. Used by health and metrics.
func (tr *TokenRegistry) Len() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.records)
}
