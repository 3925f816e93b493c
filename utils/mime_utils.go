package utils

import (
	"github.com/gabriel-vasile/mimetype"
)

const (
	defaultContentType = "application/octet-stream"
)

// DetectContentType sniffs the file content, octet-stream when it can't tell.
func DetectContentType(file string) string {
	mt, err := mimetype.DetectFile(file)
	if err != nil || mt == nil {
		return defaultContentType
	}
	return mt.String()
}
