package mocks

import (
	"context"
	"io"

	"voicevault-backend/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of storage.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(ctx context.Context, code, name string, data io.Reader) (int64, error) {
	args := m.Called(ctx, code, name, data)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) DeleteByCode(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockStorage) Open(ctx context.Context, code string) (*storage.Blob, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Blob), args.Error(1)
}
