// upload.go - Multipart file ingestion.
//
// Accepts one file per request, persists it under a randomized storage
// key, issues a 30-minute access token and renders the QR image for the
// download link.
package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type uploadResponse struct {
	Message          string `json:"message"`
	DownloadQRURL    string `json:"download_qr_url"`
	OriginalFilename string `json:"original_filename"`
}

// maxUploadBytes reads the MD_MAX_UPLOAD_BYTES environment variable and
// returns the maximum allowed upload size in bytes. Returns 0 if not
// set (meaning no limit).
func maxUploadBytes() (int64, error) {
	raw := os.Getenv("MD_MAX_UPLOAD_BYTES")
	if raw == "" {
		return 0, nil // no limit configured
	}
	return strconv.ParseInt(raw, 10, 64)
}

// storageKeyFor picks a random collision-resistant storage name,
// keeping only the original extension so the path is never
// attacker-controlled.
func storageKeyFor(filename string) string {
	ext := fileExtension(filename)
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return "uploads/" + name
}

// uploadHandler handles POST /upload (multipart form field "file").
func (cfg Config) uploadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit, err := maxUploadBytes()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "server misconfigured")
			return
		}
		if limit > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			GetMetrics().RecordUploadError()
			// If MaxBytesReader tripped, surface 413.
			if _, ok := err.(*http.MaxBytesError); ok {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "file too large")
				return
			}
			writeJSONError(w, http.StatusBadRequest, "No file part in the request")
			return
		}
		defer func() { _ = file.Close() }()

		if err := validateUploadFilename(header.Filename); err != nil {
			GetMetrics().RecordUploadError()
			switch err {
			case errMissingFile:
				writeJSONError(w, http.StatusBadRequest, "No selected file")
			default:
				writeJSONError(w, http.StatusBadRequest, "File type not allowed")
			}
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		key := storageKeyFor(header.Filename)
		contentType := header.Header.Get("Content-Type")

		if err := cfg.Blobs.Put(ctx, key, file, header.Size, contentType); err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=blob_put_failed err=%v", rid, err)
			GetMetrics().RecordUploadError()

			if _, ok := err.(*http.MaxBytesError); ok {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "file too large")
				return
			}
			writeJSONError(w, http.StatusBadGateway, "upload failed")
			return
		}

		rec := FileRecord{
			OriginalName: header.Filename,
			StorageKey:   key,
			ExpiresAt:    time.Now().UTC().Add(cfg.linkTTL()),
		}

		token, err := cfg.Registry.Issue(rec)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=token_issue_failed err=%v", rid, err)
			writeJSONError(w, http.StatusInternalServerError, "token error")
			return
		}

		base := cfg.baseURL(r)
		qrName, err := storeQR(ctx, cfg.Blobs, token, base+"/download/"+token)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=qr_encode_failed err=%v", rid, err)
			writeJSONError(w, http.StatusInternalServerError, "qr generation failed")
			return
		}

		GetMetrics().RecordUpload(header.Size)
		Info("file ingested", map[string]any{
			"original_name": header.Filename,
			"storage_key":   key,
			"expires_at":    rec.ExpiresAt.Format(time.RFC3339),
		})

		writeJSON(w, http.StatusOK, uploadResponse{
			Message:          "File uploaded successfully",
			DownloadQRURL:    base + "/download_qr/" + qrName,
			OriginalFilename: header.Filename,
		})
	})
}
