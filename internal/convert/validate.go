package convert

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"docconvert/internal/domain"
)

// Validate gates an upload before anything touches disk. Checks run in
// order and stop at the first failure: presence, extension, declared
// content type, measured size. Size is measured by seeking; on success the
// stream is rewound so the caller reads from the beginning.
func Validate(file io.ReadSeeker, filename, contentType string, inputExts map[string]bool, maxBytes int64) error {
	if file == nil || strings.TrimSpace(filename) == "" {
		return domain.ErrNoFile
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !inputExts[ext] {
		return domain.ErrInvalidFileType
	}

	// A missing declared content type is fine; a wrong one is not.
	if contentType != "" && !contentTypeAllowed(ext, contentType) {
		return domain.ErrInvalidFileFormat
	}

	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("validate: measure size: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("validate: rewind: %w", err)
	}
	if size == 0 {
		return domain.ErrEmptyFile
	}
	if size > maxBytes {
		return domain.ErrFileTooLarge
	}
	return nil
}

func contentTypeAllowed(ext, contentType string) bool {
	declared := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	for _, allowed := range ContentTypes[ext] {
		if declared == allowed {
			return true
		}
	}
	return false
}
