package mocks

import (
	"context"

	"voicevault-backend/models"

	"github.com/stretchr/testify/mock"
)

// MockFileRecordStore is a mock implementation of service.FileRecordStore
type MockFileRecordStore struct {
	mock.Mock
}

func (m *MockFileRecordStore) Create(ctx context.Context, file *models.FileRecord) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockFileRecordStore) GetByID(ctx context.Context, id int64) (*models.FileRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FileRecord), args.Error(1)
}

func (m *MockFileRecordStore) ListByOwnerID(ctx context.Context, ownerID int64) ([]*models.FileRecord, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FileRecord), args.Error(1)
}

func (m *MockFileRecordStore) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
