package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"medidrop/internal/db"
	"medidrop/internal/server"
)

func main() {
	addr := getenvDefault("MD_ADDR", ":8080")

	build := server.BuildInfo{
		Version: getenvDefault("MD_VERSION", "dev"),
		Commit:  getenvDefault("MD_COMMIT", "unknown"),
	}

	// Blob storage: local disk by default, MinIO when asked for.
	var (
		blobs server.BlobStore
		err   error
	)
	switch backend := getenvDefault("MD_STORAGE", "disk"); backend {
	case "disk":
		blobs, err = server.NewDiskStore(getenvDefault("MD_DATA_DIR", "data"))
	case "minio":
		blobs, err = server.NewMinioStore()
	default:
		log.Printf("service=backend msg=%q backend=%s", "unknown_storage_backend", backend)
		os.Exit(1)
	}
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "storage_init_failed", err)
		os.Exit(1)
	}

	// Credentials: Postgres when DATABASE_URL is set, flat file otherwise.
	var users server.CredentialStore
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		conn, err := server.OpenDB(dsn)
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
			os.Exit(1)
		}
		defer func() { _ = conn.Close() }()

		log.Printf("service=backend msg=%q", "running_migrations")
		if err := db.RunMigrations(conn); err != nil {
			log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "migrations_complete")

		users = server.NewPgCredentialStore(conn)
	} else {
		users, err = server.NewFileCredentialStore(getenvDefault("MD_USERS_FILE", "users.txt"))
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "users_file_init_failed", err)
			os.Exit(1)
		}
	}

	linkTTL := time.Duration(getenvInt("MD_LINK_TTL_MINUTES", 30)) * time.Minute

	srv := server.New(server.Config{
		Addr:      addr,
		BaseURL:   os.Getenv("MD_BASE_URL"),
		Build:     build,
		Users:     users,
		Blobs:     blobs,
		Registry:  server.NewTokenRegistry(),
		LinkTTL:   linkTTL,
		RateLimit: getenvInt("MD_RATE_LIMIT", 0),
	})

	// Start the HTTP server in a background goroutine so we can listen
	// for OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s version=%s commit=%s",
			"starting", addr, build.Version, build.Commit)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Block until either a shutdown signal is received or the server
	// encounters an error.
	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		// Give in-flight requests 5 seconds to finish.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default
// value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// getenvInt reads an integer environment variable, returning def when
// unset or unparseable.
func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
