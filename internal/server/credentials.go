// credentials.go - Credential store interface and flat-file implementation.
//
// The flat-file store is an append-only line-oriented record of
// email:hash:name:role, scanned linearly on every lookup. Updates and
// deletions do not exist.
package server

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserExists is returned when signup hits a duplicate email.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown email and bad password;
	// callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserInfo is what a successful authentication yields.
type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CredentialStore persists account records. Implementations: the
// flat-file store below and the Postgres store in pgcredentials.go.
type CredentialStore interface {
	Register(email, password, name, role string) error
	Authenticate(email, password string) (UserInfo, error)
}

// bcryptCost of 12 is a good balance of security and performance.
const bcryptCost = 12

// hashPassword generates a salted bcrypt hash of the password.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword compares a password with its stored hash.
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// fileCredentialStore appends one record per line to a single file.
// A mutex serializes the read-check-append sequence so concurrent
// signups with the same email cannot both win.
type fileCredentialStore struct {
	mu   sync.Mutex
	path string
}

// NewFileCredentialStore creates the backing file if missing.
func NewFileCredentialStore(path string) (CredentialStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty credential file path")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &fileCredentialStore{path: path}, nil
}

// credentialLine is one parsed record. The hash itself may contain
// colons, so parsing takes the first field as email, the last as role,
// the second-to-last as name, and rejoins everything in between.
type credentialLine struct {
	email string
	hash  string
	name  string
	role  string
}

func parseCredentialLine(line string) (credentialLine, bool) {
	parts := strings.Split(strings.TrimRight(line, "\n"), ":")
	if len(parts) < 4 {
		return credentialLine{}, false
	}
	return credentialLine{
		email: parts[0],
		hash:  strings.Join(parts[1:len(parts)-2], ":"),
		name:  parts[len(parts)-2],
		role:  parts[len(parts)-1],
	}, true
}

// scan runs fn over every well-formed record, stopping when fn returns
// true.
func (s *fileCredentialStore) scan(fn func(credentialLine) bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		rec, ok := parseCredentialLine(sc.Text())
		if !ok {
			continue
		}
		if fn(rec) {
			return nil
		}
	}
	return sc.Err()
}

func (s *fileCredentialStore) Register(email, password, name, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	if err := s.scan(func(rec credentialLine) bool {
		if rec.email == email {
			exists = true
			return true
		}
		return false
	}); err != nil {
		return err
	}
	if exists {
		return ErrUserExists
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "%s:%s:%s:%s\n", email, hash, name, role); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *fileCredentialStore) Authenticate(email, password string) (UserInfo, error) {
	var (
		found bool
		info  UserInfo
	)
	if err := s.scan(func(rec credentialLine) bool {
		if rec.email != email {
			return false
		}
		// First email match decides; later duplicates are unreachable.
		if verifyPassword(password, rec.hash) {
			found = true
			info = UserInfo{Name: rec.name, Email: rec.email, Role: rec.role}
		}
		return true
	}); err != nil {
		return UserInfo{}, err
	}
	if !found {
		return UserInfo{}, ErrInvalidCredentials
	}
	return info, nil
}
