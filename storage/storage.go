package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when no blob matches a storage code
	ErrNotFound = errors.New("blob not found")

	// ErrInvalidCode is returned for a code that is not CodeLength alphanumerics
	ErrInvalidCode = errors.New("invalid storage code")
)

// WriteError reports an I/O failure while persisting a blob
type WriteError struct {
	Code string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write blob %s: %v", e.Code, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// DeleteError reports an I/O failure while removing blobs
type DeleteError struct {
	Code string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to delete blob %s: %v", e.Code, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// Blob is an opened stored file. The caller must close Body.
type Blob struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.ReadCloser
}

// Storage interface for blob storage operations
type Storage interface {
	// Put stores the data under {code}-{name} and returns the number of bytes written.
	// Either the whole blob becomes visible or nothing does.
	Put(ctx context.Context, code, name string, data io.Reader) (int64, error)

	// DeleteByCode removes every blob whose name starts with {code}-.
	// Returns ErrNotFound when nothing matches.
	DeleteByCode(ctx context.Context, code string) error

	// Open returns the blob stored under code
	Open(ctx context.Context, code string) (*Blob, error)
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	S3Endpoint   string // Optional, for S3-compatible services
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// BlobName returns the stored name of a blob: the code is always a prefix
func BlobName(code, name string) string {
	return code + "-" + name
}

// blobPrefix is the name prefix shared by every blob stored under code
func blobPrefix(code string) string {
	return BlobName(code, "")
}

// originalName strips the code prefix from a stored blob name
func originalName(code, blobName string) string {
	return strings.TrimPrefix(blobName, blobPrefix(code))
}

// ContentType determines content type from filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
