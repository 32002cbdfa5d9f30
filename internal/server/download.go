// download.go - Token-gated download gateway.
//
// A token that never existed and a token past its window get the same
// uniform rejection, so tokens cannot be enumerated.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// downloadHandler handles GET /download/{token}. Repeated downloads
// within the window are allowed; the storage key is never exposed.
func (cfg Config) downloadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		token := r.PathValue("token")
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		rec, ok := cfg.Registry.Resolve(token)
		if !ok || rec.Expired(time.Now().UTC()) {
			GetMetrics().RecordDownloadError()
			writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		obj, err := cfg.Blobs.Get(ctx, rec.StorageKey)
		if err != nil {
			GetMetrics().RecordDownloadError()
			writeJSONError(w, http.StatusBadGateway, "storage error")
			return
		}
		defer func() { _ = obj.Close() }()

		w.Header().Set("Content-Type", "application/octet-stream")
		// Encourage safe download behavior in browsers.
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, rec.OriginalName))
		w.WriteHeader(http.StatusOK)

		n, _ := io.Copy(w, obj)
		GetMetrics().RecordDownload(n)
	})
}
