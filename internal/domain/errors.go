package domain

import "errors"

var (
	ErrInvalidMode       = errors.New("invalid mode")
	ErrNoFile            = errors.New("no file provided")
	ErrInvalidFileType   = errors.New("invalid file type")
	ErrInvalidFileFormat = errors.New("invalid file format")
	ErrEmptyFile         = errors.New("empty file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrConversionTimeout = errors.New("conversion timed out")
	ErrConversionFailed  = errors.New("conversion failed")
	ErrOutputMissing     = errors.New("converter produced no output")
)
