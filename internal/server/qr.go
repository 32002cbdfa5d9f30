// qr.go - QR image generation and retrieval.
//
// Every accepted upload gets one QR PNG encoding its download URL,
// stored under qrcodes/{token}.png. QR images are never cleaned up.
package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"regexp"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256 // pixels, square

// qrFilenamePattern matches "<base64url token>.png". Anything else is
// rejected before the blob store is consulted.
var qrFilenamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+\.png$`)

// encodeQR renders the given URL as a PNG. Output is deterministic for
// a given input.
func encodeQR(url string) ([]byte, error) {
	return qrcode.Encode(url, qrcode.Medium, qrImageSize)
}

// storeQR encodes the download URL and writes the image to the blob
// store, keyed by the access token. Returns the QR filename.
func storeQR(ctx context.Context, blobs BlobStore, token, downloadURL string) (string, error) {
	png, err := encodeQR(downloadURL)
	if err != nil {
		return "", err
	}
	name := token + ".png"
	if err := blobs.Put(ctx, "qrcodes/"+name, bytes.NewReader(png), int64(len(png)), "image/png"); err != nil {
		return "", err
	}
	return name, nil
}

// qrDownloadHandler handles GET /download_qr/{filename} and serves the
// stored QR image as an attachment.
func (cfg Config) qrDownloadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		name := r.PathValue("filename")
		if !qrFilenamePattern.MatchString(name) {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		obj, err := cfg.Blobs.Get(ctx, "qrcodes/"+name)
		if err != nil {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		defer func() { _ = obj.Close() }()

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, obj)

		GetMetrics().RecordQRServed()
	})
}
