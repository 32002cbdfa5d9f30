package server

import (
	"net/http"
	"sync"
	"time"
)

// Metrics holds application counters. Cheap enough to update inline on
// every request.
type Metrics struct {
	mu sync.RWMutex

	// Account metrics
	signupsTotal       int64
	loginSuccessTotal  int64
	loginFailuresTotal int64

	// Upload metrics
	uploadsTotal      int64
	uploadBytesTotal  int64
	uploadErrorsTotal int64

	// Download metrics
	downloadsTotal      int64
	downloadBytesTotal  int64
	downloadErrorsTotal int64
	qrServedTotal       int64

	// System metrics
	requestsTotal    int64
	requestErrors4xx int64
	requestErrors5xx int64

	startedAt time.Time
}

var globalMetrics = &Metrics{startedAt: time.Now()}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordSignup records a successful account creation
func (m *Metrics) RecordSignup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signupsTotal++
}

// RecordLoginSuccess records a successful login
func (m *Metrics) RecordLoginSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginSuccessTotal++
}

// RecordLoginFailure records a rejected login
func (m *Metrics) RecordLoginFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginFailuresTotal++
}

// RecordUpload records a successful upload
func (m *Metrics) RecordUpload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsTotal++
	if bytes > 0 {
		m.uploadBytesTotal += bytes
	}
}

// RecordUploadError records a rejected or failed upload
func (m *Metrics) RecordUploadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErrorsTotal++
}

// RecordDownload records a served download
func (m *Metrics) RecordDownload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadsTotal++
	if bytes > 0 {
		m.downloadBytesTotal += bytes
	}
}

// RecordDownloadError records a rejected or failed download
func (m *Metrics) RecordDownloadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadErrorsTotal++
}

// RecordQRServed records a served QR image
func (m *Metrics) RecordQRServed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qrServedTotal++
}

// RecordRequest records one completed HTTP request by status class
func (m *Metrics) RecordRequest(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++
	switch {
	case status >= 500:
		m.requestErrors5xx++
	case status >= 400:
		m.requestErrors4xx++
	}
}

// Snapshot returns a copy of all counters for the /metrics endpoint.
func (m *Metrics) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]any{
		"signups_total":         m.signupsTotal,
		"login_success_total":   m.loginSuccessTotal,
		"login_failures_total":  m.loginFailuresTotal,
		"uploads_total":         m.uploadsTotal,
		"upload_bytes_total":    m.uploadBytesTotal,
		"upload_errors_total":   m.uploadErrorsTotal,
		"downloads_total":       m.downloadsTotal,
		"download_bytes_total":  m.downloadBytesTotal,
		"download_errors_total": m.downloadErrorsTotal,
		"qr_served_total":       m.qrServedTotal,
		"requests_total":        m.requestsTotal,
		"request_errors_4xx":    m.requestErrors4xx,
		"request_errors_5xx":    m.requestErrors5xx,
		"uptime_seconds":        int64(time.Since(m.startedAt).Seconds()),
	}
}

// metricsHandler exposes the counters as a JSON document.
func metricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, GetMetrics().Snapshot())
	})
}
