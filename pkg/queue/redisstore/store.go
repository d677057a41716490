// Package redisstore provides a Redis backed queue.Store.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/queue"
	redis "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix     = "notiair:queue:"
	maxUpdateAttempts = 16
)

// Store keeps each item as a JSON string and the task ids in a set. Update
// runs inside WATCH/MULTI so concurrent writers retry instead of overwriting.
type Store struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// New returns a store using client. Keys are prefixed with "notiair:queue:".
func New(client redis.UniversalClient, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		prefix: defaultPrefix,
		logger: logger.With("module", "queue_redis_store"),
	}
}

func (s *Store) itemKey(taskID string) string {
	return s.prefix + "item:" + taskID
}

func (s *Store) indexKey() string {
	return s.prefix + "items"
}

func (s *Store) Create(ctx context.Context, item models.QueueItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal queue item: %w", err)
	}

	key := s.itemKey(item.TaskID)

	// the item and its index entry are written in one MULTI so List never
	// misses a stored item
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to create queue item: %w", err)
		}

		if exists > 0 {
			return queue.ErrQueueItemExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, s.indexKey(), item.TaskID)

			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to create queue item: %w", err)
		}

		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return queue.ErrQueueItemExists
	}

	return err
}

func (s *Store) Get(ctx context.Context, taskID string) (models.QueueItem, error) {
	return s.get(ctx, s.client, taskID)
}

func (s *Store) get(ctx context.Context, cmd redis.Cmdable, taskID string) (models.QueueItem, error) {
	data, err := cmd.Get(ctx, s.itemKey(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.QueueItem{}, queue.ErrQueueItemNotFound
	}

	if err != nil {
		return models.QueueItem{}, fmt.Errorf("failed to get queue item: %w", err)
	}

	var item models.QueueItem
	if err := json.Unmarshal(data, &item); err != nil {
		return models.QueueItem{}, fmt.Errorf("failed to decode queue item %s: %w", taskID, err)
	}

	return item, nil
}

func (s *Store) List(ctx context.Context, statuses ...models.QueueStatus) ([]models.QueueItem, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}

	items := make([]models.QueueItem, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.itemKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load queue items: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var item models.QueueItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			s.logger.WarnContext(ctx, "Skipping undecodable queue item", "task_id", ids[i], "error", err)

			continue
		}

		if queue.MatchesStatus(item.Status, statuses...) {
			items = append(items, item)
		}
	}

	queue.SortItems(items)

	return items, nil
}

func (s *Store) Update(ctx context.Context, taskID string, fn queue.UpdateFunc) (models.QueueItem, error) {
	key := s.itemKey(taskID)

	var result models.QueueItem

	txf := func(tx *redis.Tx) error {
		current, err := s.get(ctx, tx, taskID)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			result = current

			return err
		}

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal queue item: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)

			return nil
		})
		if err != nil {
			return err
		}

		result = next

		return nil
	}

	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.DebugContext(ctx, "Queue item changed concurrently, retrying", "task_id", taskID)

			continue
		}

		return result, err
	}

	return result, fmt.Errorf("failed to update queue item %s: too many concurrent writers", taskID)
}

func (s *Store) Delete(ctx context.Context, taskID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.itemKey(taskID))
		pipe.SRem(ctx, s.indexKey(), taskID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete queue item: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
