// validation.go - Upload filename validation.
package server

import (
	"errors"
	"strings"
)

// allowedExtensions lists the file types permitted for upload. The set
// is deliberately small: documents and medical imaging only.
var allowedExtensions = map[string]bool{
	"pdf":   true,
	"png":   true,
	"jpg":   true,
	"jpeg":  true,
	"dicom": true,
}

var (
	errMissingFile     = errors.New("no file supplied")
	errInvalidFileType = errors.New("file type not allowed")
)

// fileExtension returns the lowercased substring after the last dot,
// or "" when the filename has no extension.
func fileExtension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// validateUploadFilename checks that a filename is present and carries
// an allowed extension (case-insensitive).
func validateUploadFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return errMissingFile
	}
	if !allowedExtensions[fileExtension(filename)] {
		return errInvalidFileType
	}
	return nil
}
