package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voicevault-backend/metrics"
	"voicevault-backend/models"
	"voicevault-backend/repository"
	"voicevault-backend/storage"
)

// FileRecordStore persists file metadata records
type FileRecordStore interface {
	Create(ctx context.Context, file *models.FileRecord) error
	GetByID(ctx context.Context, id int64) (*models.FileRecord, error)
	ListByOwnerID(ctx context.Context, ownerID int64) ([]*models.FileRecord, error)
	DeleteByID(ctx context.Context, id int64) error
}

// FileService keeps file records and stored blobs consistent.
//
// Record and blob live in independent stores and no lock or transaction spans
// both. If the record fails to persist after the blob was written, the blob is
// left behind as an orphan; it is logged and counted but not removed.
type FileService struct {
	records  FileRecordStore
	storage  storage.Storage
	generate storage.CodeGenerator
	now      func() time.Time
	logger   *slog.Logger
}

// FileServiceOption is a functional option for FileService
type FileServiceOption func(*FileService)

// WithFileRecordStore sets the file record store
func WithFileRecordStore(records FileRecordStore) FileServiceOption {
	return func(s *FileService) {
		s.records = records
	}
}

// WithStorage sets the blob storage
func WithStorage(st storage.Storage) FileServiceOption {
	return func(s *FileService) {
		s.storage = st
	}
}

// WithCodeGenerator overrides the storage code generator
func WithCodeGenerator(generate storage.CodeGenerator) FileServiceOption {
	return func(s *FileService) {
		s.generate = generate
	}
}

// WithClock overrides the time source for creation timestamps
func WithClock(now func() time.Time) FileServiceOption {
	return func(s *FileService) {
		s.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) FileServiceOption {
	return func(s *FileService) {
		s.logger = logger
	}
}

// NewFileService creates a new file service
func NewFileService(opts ...FileServiceOption) *FileService {
	s := &FileService{
		generate: storage.GenerateCode,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FileService) ready() error {
	if s.records == nil {
		return errors.New("file record store not set")
	}
	if s.storage == nil {
		return errors.New("storage not set")
	}
	return nil
}

// CreateFileRequest represents a request to store an uploaded file
type CreateFileRequest struct {
	Candidate models.UploadCandidate
	OwnerID   int64
}

// CreateFileResult represents the result of storing a file
type CreateFileResult struct {
	File *models.FileRecord
}

// CreateFile validates the upload, writes the blob and persists its record
func (s *FileService) CreateFile(ctx context.Context, req CreateFileRequest) (result *CreateFileResult, err error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	defer func() { metrics.ObserveOperation(metrics.OpCreate, err) }()

	name, err := ValidateAudio(req.Candidate)
	if err != nil {
		return nil, err
	}

	code := s.generate()
	written, err := s.storage.Put(ctx, code, name, req.Candidate.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if req.Candidate.Size > 0 && req.Candidate.Size != written {
		s.logger.Warn("Declared upload size differs from stored size",
			slog.String("storage_key", code),
			slog.Int64("declared_bytes", req.Candidate.Size),
			slog.Int64("stored_bytes", written),
		)
	}

	record := &models.FileRecord{
		FileName:    name,
		SizeMB:      SizeInMB(written),
		DownloadURL: models.DownloadURLFor(code),
		OwnerID:     req.OwnerID,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.records.Create(ctx, record); err != nil {
		metrics.OrphanedBlobsTotal.Inc()
		s.logger.Warn("File record not saved, blob left without record",
			slog.String("storage_key", code),
			slog.Int64("owner_id", req.OwnerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}

	s.logger.Info("File stored",
		slog.Int64("file_id", record.ID),
		slog.Int64("owner_id", record.OwnerID),
		slog.String("storage_key", code),
		slog.Float64("size_mb", record.SizeMB),
	)

	return &CreateFileResult{File: record}, nil
}

// DeleteFileRequest represents a request to delete a file
type DeleteFileRequest struct {
	FileID      int64
	RequesterID int64
}

// DeleteFileResult represents the result of deleting a file
type DeleteFileResult struct{}

// DeleteFile removes the blob and then the record of a file owned by the requester.
// A blob that is already gone does not block removal of the record; any other
// storage failure leaves the record in place so the delete can be retried.
func (s *FileService) DeleteFile(ctx context.Context, req DeleteFileRequest) (result *DeleteFileResult, err error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	defer func() { metrics.ObserveOperation(metrics.OpDelete, err) }()

	record, err := s.GetFile(ctx, req.FileID)
	if err != nil {
		return nil, err
	}

	if record.OwnerID != req.RequesterID {
		return nil, ErrPermissionDenied
	}

	code := record.StorageKey()
	if err := s.storage.DeleteByCode(ctx, code); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to delete file: %w", err)
		}
		s.logger.Warn("Blob already missing, removing record",
			slog.Int64("file_id", record.ID),
			slog.String("storage_key", code),
		)
	}

	if err := s.records.DeleteByID(ctx, record.ID); err != nil {
		return nil, fmt.Errorf("failed to delete file record: %w", err)
	}

	s.logger.Info("File deleted",
		slog.Int64("file_id", record.ID),
		slog.Int64("owner_id", record.OwnerID),
		slog.String("storage_key", code),
	)

	return &DeleteFileResult{}, nil
}

// ListFilesRequest represents a request to list a user's files
type ListFilesRequest struct {
	OwnerID int64
}

// ListFilesResult represents the result of listing files
type ListFilesResult struct {
	Files []*models.FileRecord
}

// ListFiles lists the files owned by a user
func (s *FileService) ListFiles(ctx context.Context, req ListFilesRequest) (*ListFilesResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	files, err := s.records.ListByOwnerID(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	return &ListFilesResult{Files: files}, nil
}

// GetFile retrieves a file record by ID
func (s *FileService) GetFile(ctx context.Context, id int64) (*models.FileRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("file %d: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to load file record: %w", err)
	}
	return record, nil
}

// OpenBlob opens the stored bytes for a storage key. The caller must close the body.
func (s *FileService) OpenBlob(ctx context.Context, code string) (*storage.Blob, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.storage.Open(ctx, code)
}
