package mocks

import (
	"context"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/queue"
	"github.com/stretchr/testify/mock"
)

// MockQueueStore is a mock implementation of queue.Store interface.
type MockQueueStore struct {
	mock.Mock
}

func (m *MockQueueStore) Create(ctx context.Context, item models.QueueItem) error {
	args := m.Called(ctx, item)

	return args.Error(0)
}

func (m *MockQueueStore) Get(ctx context.Context, taskID string) (models.QueueItem, error) {
	args := m.Called(ctx, taskID)

	return args.Get(0).(models.QueueItem), args.Error(1)
}

func (m *MockQueueStore) List(ctx context.Context, statuses ...models.QueueStatus) ([]models.QueueItem, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.QueueItem), args.Error(1)
}

func (m *MockQueueStore) Update(ctx context.Context, taskID string, fn queue.UpdateFunc) (models.QueueItem, error) {
	args := m.Called(ctx, taskID, fn)

	return args.Get(0).(models.QueueItem), args.Error(1)
}

func (m *MockQueueStore) Delete(ctx context.Context, taskID string) error {
	args := m.Called(ctx, taskID)

	return args.Error(0)
}

func (m *MockQueueStore) Close() error {
	args := m.Called()

	return args.Error(0)
}
