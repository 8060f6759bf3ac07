package library

import (
	"fmt"
	"strings"
)

// Uploader names which of the two household users a track belongs to.
type Uploader string

const (
	UploaderMasha Uploader = "masha"
	UploaderDenis Uploader = "denis"
)

// ParseUploader parses a stored uploader value, case-insensitively.
func ParseUploader(value string) (Uploader, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "masha":
		return UploaderMasha, nil
	case "denis":
		return UploaderDenis, nil
	default:
		return "", fmt.Errorf("invalid uploader %q: expected %q or %q", value, UploaderMasha, UploaderDenis)
	}
}

func (u Uploader) String() string {
	return string(u)
}
