package queue

import (
	"context"
	"sort"
	"sync"

	"github.com/dukex/notiair/pkg/models"
)

// UpdateFunc computes the next state of an item. Returning an error aborts the
// update and leaves the stored item untouched.
type UpdateFunc func(item models.QueueItem) (models.QueueItem, error)

// Store keeps queue items. Update must run fn and write its result as one
// critical section per task id so that concurrent reporters cannot lose an
// attempts increment.
type Store interface {
	Create(ctx context.Context, item models.QueueItem) error
	Get(ctx context.Context, taskID string) (models.QueueItem, error)
	List(ctx context.Context, statuses ...models.QueueStatus) ([]models.QueueItem, error)
	Update(ctx context.Context, taskID string, fn UpdateFunc) (models.QueueItem, error)
	// Delete removes an item; deleting a missing item is not an error.
	Delete(ctx context.Context, taskID string) error
	Close() error
}

// MemoryStore is an in-process Store with one lock per task.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*memoryEntry
}

type memoryEntry struct {
	mu   sync.Mutex
	item models.QueueItem
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Create(_ context.Context, item models.QueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.TaskID]; exists {
		return ErrQueueItemExists
	}

	s.items[item.TaskID] = &memoryEntry{item: item}

	return nil
}

func (s *MemoryStore) Get(_ context.Context, taskID string) (models.QueueItem, error) {
	entry, ok := s.entry(taskID)
	if !ok {
		return models.QueueItem{}, ErrQueueItemNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return entry.item, nil
}

// List returns the items whose status is one of statuses, or every item when
// none is given, oldest first.
func (s *MemoryStore) List(_ context.Context, statuses ...models.QueueStatus) ([]models.QueueItem, error) {
	s.mu.RLock()
	entries := make([]*memoryEntry, 0, len(s.items))
	for _, entry := range s.items {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	items := make([]models.QueueItem, 0, len(entries))

	for _, entry := range entries {
		entry.mu.Lock()
		item := entry.item
		entry.mu.Unlock()

		if MatchesStatus(item.Status, statuses...) {
			items = append(items, item)
		}
	}

	SortItems(items)

	return items, nil
}

func (s *MemoryStore) Update(_ context.Context, taskID string, fn UpdateFunc) (models.QueueItem, error) {
	entry, ok := s.entry(taskID)
	if !ok {
		return models.QueueItem{}, ErrQueueItemNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	next, err := fn(entry.item)
	if err != nil {
		return entry.item, err
	}

	entry.item = next

	return next, nil
}

func (s *MemoryStore) Delete(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, taskID)

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) entry(taskID string) (*memoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.items[taskID]

	return entry, ok
}

// MatchesStatus reports whether status is in statuses; an empty list matches all.
func MatchesStatus(status models.QueueStatus, statuses ...models.QueueStatus) bool {
	if len(statuses) == 0 {
		return true
	}

	for _, s := range statuses {
		if s == status {
			return true
		}
	}

	return false
}

// SortItems orders items by creation time, then task id.
func SortItems(items []models.QueueItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].TaskID < items[j].TaskID
		}

		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
