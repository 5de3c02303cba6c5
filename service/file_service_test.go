package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"voicevault-backend/metrics"
	"voicevault-backend/models"
	"voicevault-backend/repository"
	"voicevault-backend/service"
	"voicevault-backend/service/mocks"
	"voicevault-backend/storage"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newMockedService(records *mocks.MockFileRecordStore, st *mocks.MockStorage) *service.FileService {
	return service.NewFileService(
		service.WithFileRecordStore(records),
		service.WithStorage(st),
		service.WithCodeGenerator(func() string { return "aZ3kQ7mP" }),
		service.WithClock(func() time.Time { return fixedNow }),
	)
}

func audioCandidate(name string, size int) models.UploadCandidate {
	return models.UploadCandidate{
		FileName: name,
		Size:     int64(size),
		Body:     bytes.NewReader(make([]byte, size)),
	}
}

func TestFileService_CreateFile(t *testing.T) {
	records := &mocks.MockFileRecordStore{}
	st := &mocks.MockStorage{}
	svc := newMockedService(records, st)

	st.On("Put", mock.Anything, "aZ3kQ7mP", "song.wav", mock.Anything).Return(int64(3250585), nil)
	records.On("Create", mock.Anything, mock.AnythingOfType("*models.FileRecord")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.FileRecord).ID = 1
		}).
		Return(nil)

	result, err := svc.CreateFile(context.Background(), service.CreateFileRequest{
		Candidate: audioCandidate("song.wav", 3250585),
		OwnerID:   42,
	})
	require.NoError(t, err)

	file := result.File
	assert.Equal(t, int64(1), file.ID)
	assert.Equal(t, "song.wav", file.FileName)
	assert.Equal(t, 3.1, file.SizeMB)
	assert.Equal(t, "/download_file/aZ3kQ7mP", file.DownloadURL)
	assert.Equal(t, "aZ3kQ7mP", file.StorageKey())
	assert.Equal(t, int64(42), file.OwnerID)
	assert.Equal(t, fixedNow, file.CreatedAt)

	st.AssertExpectations(t)
	records.AssertExpectations(t)
}

func TestFileService_CreateFile_SizeFromStoredBytes(t *testing.T) {
	records := &mocks.MockFileRecordStore{}
	st := &mocks.MockStorage{}
	svc := newMockedService(records, st)

	// The declared size is ignored in favour of what storage reports
	st.On("Put", mock.Anything, "aZ3kQ7mP", "song.wav", mock.Anything).Return(int64(3250585), nil)
	records.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.CreateFile(context.Background(), service.CreateFileRequest{
		Candidate: models.UploadCandidate{FileName: "song.wav", Size: 12, Body: bytes.NewReader(nil)},
		OwnerID:   42,
	})
	require.NoError(t, err)
	assert.Equal(t, 3.1, result.File.SizeMB)
}

func TestFileService_CreateFile_ValidationFailsWithoutSideEffects(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		wantErr  error
	}{
		{name: "text file", fileName: "notes.txt", wantErr: service.ErrUnsupportedFileType},
		{name: "image", fileName: "cover.PNG", wantErr: service.ErrUnsupportedFileType},
		{name: "missing name", fileName: "", wantErr: service.ErrMissingFileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := &mocks.MockFileRecordStore{}
			st := &mocks.MockStorage{}
			svc := newMockedService(records, st)

			_, err := svc.CreateFile(context.Background(), service.CreateFileRequest{
				Candidate: audioCandidate(tt.fileName, 100),
				OwnerID:   42,
			})

			assert.ErrorIs(t, err, tt.wantErr)
			st.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestFileService_CreateFile_WriteErrorCreatesNoRecord(t *testing.T) {
	records := &mocks.MockFileRecordStore{}
	st := &mocks.MockStorage{}
	svc := newMockedService(records, st)

	st.On("Put", mock.Anything, "aZ3kQ7mP", "song.wav", mock.Anything).
		Return(int64(0), &storage.WriteError{Code: "aZ3kQ7mP", Err: errors.New("no space left on device")})

	_, err := svc.CreateFile(context.Background(), service.CreateFileRequest{
		Candidate: audioCandidate("song.wav", 10),
		OwnerID:   42,
	})

	var writeErr *storage.WriteError
	require.ErrorAs(t, err, &writeErr)
	records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFileService_CreateFile_RecordFailureOrphansBlob(t *testing.T) {
	records := &mocks.MockFileRecordStore{}
	st := &mocks.MockStorage{}
	svc := newMockedService(records, st)

	st.On("Put", mock.Anything, "aZ3kQ7mP", "song.wav", mock.Anything).Return(int64(10), nil)
	records.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	before := testutil.ToFloat64(metrics.OrphanedBlobsTotal)

	_, err := svc.CreateFile(context.Background(), service.CreateFileRequest{
		Candidate: audioCandidate("song.wav", 10),
		OwnerID:   42,
	})

	assert.EqualError(t, err, "failed to save file record: connection refused")
	// The blob is intentionally not cleaned up
	st.AssertNotCalled(t, "DeleteByCode", mock.Anything, mock.Anything)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.OrphanedBlobsTotal))
}

func ownedRecord(owner int64) *models.FileRecord {
	return &models.FileRecord{
		ID:          17,
		FileName:    "song.wav",
		SizeMB:      3.1,
		DownloadURL: "/download_file/aZ3kQ7mP",
		OwnerID:     owner,
		CreatedAt:   fixedNow,
	}
}

func TestFileService_DeleteFile(t *testing.T) {
	tests := []struct {
		name        string
		requesterID int64
		setupMock   func(*mocks.MockFileRecordStore, *mocks.MockStorage)
		wantErr     error
		checkErr    func(*testing.T, error)
		recordGone  bool
	}{
		{
			name:        "owner deletes blob and record",
			requesterID: 42,
			setupMock: func(r *mocks.MockFileRecordStore, s *mocks.MockStorage) {
				r.On("GetByID", mock.Anything, int64(17)).Return(ownedRecord(42), nil)
				s.On("DeleteByCode", mock.Anything, "aZ3kQ7mP").Return(nil)
				r.On("DeleteByID", mock.Anything, int64(17)).Return(nil)
			},
			recordGone: true,
		},
		{
			name:        "other user is denied",
			requesterID: 7,
			setupMock: func(r *mocks.MockFileRecordStore, s *mocks.MockStorage) {
				r.On("GetByID", mock.Anything, int64(17)).Return(ownedRecord(42), nil)
			},
			wantErr: service.ErrPermissionDenied,
		},
		{
			name:        "missing record",
			requesterID: 42,
			setupMock: func(r *mocks.MockFileRecordStore, s *mocks.MockStorage) {
				r.On("GetByID", mock.Anything, int64(17)).Return(nil, repository.ErrNotFound)
			},
			wantErr: service.ErrRecordNotFound,
		},
		{
			name:        "missing blob still removes record",
			requesterID: 42,
			setupMock: func(r *mocks.MockFileRecordStore, s *mocks.MockStorage) {
				r.On("GetByID", mock.Anything, int64(17)).Return(ownedRecord(42), nil)
				s.On("DeleteByCode", mock.Anything, "aZ3kQ7mP").
					Return(fmt.Errorf("code aZ3kQ7mP: %w", storage.ErrNotFound))
				r.On("DeleteByID", mock.Anything, int64(17)).Return(nil)
			},
			recordGone: true,
		},
		{
			name:        "storage failure keeps record",
			requesterID: 42,
			setupMock: func(r *mocks.MockFileRecordStore, s *mocks.MockStorage) {
				r.On("GetByID", mock.Anything, int64(17)).Return(ownedRecord(42), nil)
				s.On("DeleteByCode", mock.Anything, "aZ3kQ7mP").
					Return(&storage.DeleteError{Code: "aZ3kQ7mP", Err: errors.New("permission denied")})
			},
			checkErr: func(t *testing.T, err error) {
				var deleteErr *storage.DeleteError
				assert.ErrorAs(t, err, &deleteErr)
			},
		},
		{
			name:        "record lookup failure",
			requesterID: 42,
			setupMock: func(r *mocks.MockFileRecordStore, s *mocks.MockStorage) {
				r.On("GetByID", mock.Anything, int64(17)).Return(nil, errors.New("timeout"))
			},
			checkErr: func(t *testing.T, err error) {
				assert.EqualError(t, err, "failed to load file record: timeout")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := &mocks.MockFileRecordStore{}
			st := &mocks.MockStorage{}
			tt.setupMock(records, st)
			svc := newMockedService(records, st)

			_, err := svc.DeleteFile(context.Background(), service.DeleteFileRequest{
				FileID:      17,
				RequesterID: tt.requesterID,
			})

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.checkErr != nil:
				require.Error(t, err)
				tt.checkErr(t, err)
			default:
				assert.NoError(t, err)
			}

			if !tt.recordGone {
				records.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
			}
			records.AssertExpectations(t)
			st.AssertExpectations(t)
		})
	}
}

func TestFileService_DeleteFile_PermissionDeniedTouchesNothing(t *testing.T) {
	records := &mocks.MockFileRecordStore{}
	st := &mocks.MockStorage{}
	records.On("GetByID", mock.Anything, int64(17)).Return(ownedRecord(42), nil)
	svc := newMockedService(records, st)

	_, err := svc.DeleteFile(context.Background(), service.DeleteFileRequest{FileID: 17, RequesterID: 7})

	assert.ErrorIs(t, err, service.ErrPermissionDenied)
	st.AssertNotCalled(t, "DeleteByCode", mock.Anything, mock.Anything)
	records.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestFileService_ListFiles(t *testing.T) {
	records := &mocks.MockFileRecordStore{}
	st := &mocks.MockStorage{}
	files := []*models.FileRecord{ownedRecord(42)}
	records.On("ListByOwnerID", mock.Anything, int64(42)).Return(files, nil)
	svc := newMockedService(records, st)

	result, err := svc.ListFiles(context.Background(), service.ListFilesRequest{OwnerID: 42})
	require.NoError(t, err)
	assert.Equal(t, files, result.Files)
}

func TestFileService_NotConfigured(t *testing.T) {
	svc := service.NewFileService()

	_, err := svc.CreateFile(context.Background(), service.CreateFileRequest{Candidate: audioCandidate("a.wav", 1)})
	assert.EqualError(t, err, "file record store not set")

	_, err = svc.DeleteFile(context.Background(), service.DeleteFileRequest{FileID: 1})
	assert.EqualError(t, err, "file record store not set")

	_, err = service.NewFileService(service.WithFileRecordStore(&mocks.MockFileRecordStore{})).
		ListFiles(context.Background(), service.ListFilesRequest{OwnerID: 1})
	assert.EqualError(t, err, "storage not set")
}
