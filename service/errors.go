package service

import "errors"

// Client input errors
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrMissingFileName     = errors.New("missing file name")
	ErrFileTooLarge        = errors.New("file too large")
)

// Lookup and authorization errors
var (
	ErrRecordNotFound   = errors.New("file record not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// ErrTranscriptionUnavailable is returned when no audio model is configured
var ErrTranscriptionUnavailable = errors.New("transcription is not configured")
