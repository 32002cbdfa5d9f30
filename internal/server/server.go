package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
}

// Config carries everything the handlers need. Constructed once in
// main (or in tests) and passed by value.
type Config struct {
	Addr    string // e.g. ":8080"
	BaseURL string // optional absolute base for links; derived from the request host when empty
	Build   BuildInfo

	Users    CredentialStore
	Blobs    BlobStore
	Registry *TokenRegistry

	LinkTTL   time.Duration // download window per upload; 0 means the 30m default
	RateLimit int           // requests per minute per IP; 0 means the default
}

// defaultLinkTTL is the fixed expiration window for download tokens.
const defaultLinkTTL = 30 * time.Minute

func (cfg Config) linkTTL() time.Duration {
	if cfg.LinkTTL <= 0 {
		return defaultLinkTTL
	}
	return cfg.LinkTTL
}

// baseURL returns the absolute URL prefix for links handed to clients.
func (cfg Config) baseURL(r *http.Request) string {
	if cfg.BaseURL != "" {
		return strings.TrimRight(cfg.BaseURL, "/")
	}
	// In local dev this is localhost:8080; behind a proxy it is the
	// proxy host.
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if host == "" {
		host = "localhost:8080"
	}
	return scheme + "://" + host
}

type Server struct {
	httpServer *http.Server
	cfg        Config
}

// New builds the route table and middleware chain.
func New(cfg Config) *Server {
	mux := http.NewServeMux()

	mux.Handle("/signup", cfg.signupHandler())
	mux.Handle("/login", cfg.loginHandler())
	mux.Handle("/upload", cfg.uploadHandler())
	mux.Handle("GET /download/{token}", cfg.downloadHandler())
	mux.Handle("GET /download_qr/{filename}", cfg.qrDownloadHandler())

	mux.Handle("GET /metrics", metricsHandler())

	s := &Server{cfg: cfg}
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /live", s.handleLive)

	rl := newRateLimiter(cfg.rateLimit(), time.Minute)

	// Wrap middleware: requestID -> security headers -> rate limit -> logging -> mux
	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = rl.middleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

const defaultRateLimit = 100 // requests per minute per IP

func (cfg Config) rateLimit() int {
	if cfg.RateLimit <= 0 {
		return defaultRateLimit
	}
	return cfg.RateLimit
}

// Handler exposes the full middleware-wrapped handler for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	Info("listening", map[string]any{
		"addr":    ln.Addr().String(),
		"version": s.cfg.Build.Version,
		"commit":  s.cfg.Build.Commit,
	})
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError is the {"error": ...} shape used on file endpoints.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// writeFailure is the {"success": false, "message": ...} shape used on
// the auth endpoints.
func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}
