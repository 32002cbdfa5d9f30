package server

import "time"

// FileRecord identifies one uploaded artifact available for time-boxed
// retrieval. Created at successful upload, immutable afterwards.
type FileRecord struct {
	OriginalName string    // user-supplied display name, never used for storage
	StorageKey   string    // server-chosen blob key, never derived from user input
	ExpiresAt    time.Time // fixed at creation, never extended
}

// Expired reports whether the record's download window has closed at the
// given instant. The boundary is strict: at exactly ExpiresAt the record
// is already expired.
func (r FileRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
