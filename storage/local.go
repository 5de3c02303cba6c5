package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage implements Storage interface for local filesystem.
// Blobs live flat in basePath; write, delete and open all resolve against the same directory.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// BasePath returns the upload directory
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// Put writes the blob to a hidden temp file and renames it into place
func (s *LocalStorage) Put(ctx context.Context, code, name string, data io.Reader) (int64, error) {
	if !ValidCode(code) {
		return 0, &WriteError{Code: code, Err: ErrInvalidCode}
	}
	if err := ctx.Err(); err != nil {
		return 0, &WriteError{Code: code, Err: err}
	}

	// Temp names start with a dot so they never match a code prefix
	tmpPath := filepath.Join(s.basePath, "."+uuid.NewString()+".tmp")
	fullPath := filepath.Join(s.basePath, BlobName(code, name))

	file, err := os.Create(tmpPath)
	if err != nil {
		return 0, &WriteError{Code: code, Err: withoutPath(err)}
	}

	written, err := io.Copy(file, data)
	if err != nil {
		file.Close()
		os.Remove(tmpPath)
		return 0, &WriteError{Code: code, Err: withoutPath(err)}
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return 0, &WriteError{Code: code, Err: withoutPath(err)}
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, &WriteError{Code: code, Err: withoutPath(err)}
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return 0, &WriteError{Code: code, Err: withoutPath(err)}
	}

	return written, nil
}

// DeleteByCode removes every blob stored under code
func (s *LocalStorage) DeleteByCode(ctx context.Context, code string) error {
	if !ValidCode(code) {
		return ErrInvalidCode
	}

	matches, err := s.match(code)
	if err != nil {
		return &DeleteError{Code: code, Err: withoutPath(err)}
	}
	if len(matches) == 0 {
		return fmt.Errorf("code %s: %w", code, ErrNotFound)
	}

	var errs []error
	for _, name := range matches {
		err := os.Remove(filepath.Join(s.basePath, name))
		if err != nil && !os.IsNotExist(err) {
			errs = append(errs, withoutPath(err))
		}
	}
	if len(errs) > 0 {
		return &DeleteError{Code: code, Err: errors.Join(errs...)}
	}

	return nil
}

// Open retrieves the blob stored under code
func (s *LocalStorage) Open(ctx context.Context, code string) (*Blob, error) {
	if !ValidCode(code) {
		return nil, ErrInvalidCode
	}

	matches, err := s.match(code)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage directory: %w", withoutPath(err))
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("code %s: %w", code, ErrNotFound)
	}

	file, err := os.Open(filepath.Join(s.basePath, matches[0]))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("code %s: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open file: %w", withoutPath(err))
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", withoutPath(err))
	}

	name := originalName(code, matches[0])
	return &Blob{
		Name:        name,
		Size:        info.Size(),
		ContentType: ContentType(name),
		Body:        file,
	}, nil
}

// match lists blob names in basePath starting with {code}-.
// Equivalent to the {code}-* glob without interpreting metacharacters in basePath.
func (s *LocalStorage) match(code string) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}

	prefix := blobPrefix(code)
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			matches = append(matches, entry.Name())
		}
	}
	return matches, nil
}

// withoutPath keeps the operation and cause of a filesystem error but drops the path,
// so upload locations stay out of logs.
func withoutPath(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return fmt.Errorf("%s: %w", linkErr.Op, linkErr.Err)
	}
	return err
}
