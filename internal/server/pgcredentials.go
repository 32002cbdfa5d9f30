// pgcredentials.go - Postgres-backed credential store.
//
// Indexed drop-in behind the same CredentialStore interface as the
// flat file; selected when DATABASE_URL is set. Schema lives in
// internal/db migrations.
package server

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenDB opens a PostgreSQL connection pool using DATABASE_URL.
func OpenDB(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	// Conservative pool defaults.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Validate connectivity immediately.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

type pgCredentialStore struct {
	db *sql.DB
}

// NewPgCredentialStore wraps an open connection pool.
func NewPgCredentialStore(db *sql.DB) CredentialStore {
	return &pgCredentialStore{db: db}
}

func (s *pgCredentialStore) Register(email, password, name, role string) error {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrUserExists
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO users (email, password_hash, display_name, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		email, hash, name, role, time.Now().UTC(),
	)
	return err
}

func (s *pgCredentialStore) Authenticate(email, password string) (UserInfo, error) {
	var (
		hash string
		name string
		role string
	)
	err := s.db.QueryRow(
		"SELECT password_hash, display_name, role FROM users WHERE email = $1", email,
	).Scan(&hash, &name, &role)
	if err != nil {
		if err == sql.ErrNoRows {
			return UserInfo{}, ErrInvalidCredentials
		}
		log.Printf("auth: db query failed: %v", err)
		return UserInfo{}, err
	}

	if !verifyPassword(password, hash) {
		return UserInfo{}, ErrInvalidCredentials
	}

	return UserInfo{Name: name, Email: email, Role: role}, nil
}
