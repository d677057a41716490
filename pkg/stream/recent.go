package stream

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	recentKeyPrefix  = "stream:messages:"
	recentPerType    = 10
	recentTTL        = 24 * time.Hour
	defaultListLimit = 10
	maxListLimit     = 100
)

// RecentStore keeps the last events of every event type.
type RecentStore interface {
	Save(ctx context.Context, event Event) error
	// Recent returns up to limit events of the given types, newest first. No
	// types means every type.
	Recent(ctx context.Context, eventTypes []string, limit int) ([]Event, error)
}

// NormalizeLimit maps a requested list size to the accepted range.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

// RedisRecentStore keeps events in one capped list per type, expiring a day
// after the last write.
type RedisRecentStore struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisRecentStore(client redis.UniversalClient, logger *slog.Logger) *RedisRecentStore {
	return &RedisRecentStore{
		client: client,
		logger: logger.With("module", "stream_recent_store"),
	}
}

func (s *RedisRecentStore) Save(ctx context.Context, event Event) error {
	key := recentKeyPrefix + event.EventType

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, recentPerType-1)
		pipe.Expire(ctx, key, recentTTL)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save event to redis: %w", err)
	}

	return nil
}

func (s *RedisRecentStore) Recent(ctx context.Context, eventTypes []string, limit int) ([]Event, error) {
	limit = NormalizeLimit(limit)

	keys := make([]string, 0, len(eventTypes))
	for _, eventType := range eventTypes {
		keys = append(keys, recentKeyPrefix+eventType)
	}

	if len(keys) == 0 {
		iter := s.client.Scan(ctx, 0, recentKeyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}

		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan event keys: %w", err)
		}
	}

	all := make([]Event, 0)

	for _, key := range keys {
		values, err := s.client.LRange(ctx, key, 0, int64(limit-1)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}

		for _, value := range values {
			var event Event
			if err := json.Unmarshal([]byte(value), &event); err != nil {
				s.logger.WarnContext(ctx, "Skipping undecodable stream event", "key", key, "error", err)

				continue
			}

			all = append(all, event)
		}
	}

	return newest(all, limit), nil
}

// MemoryRecentStore is an in-process RecentStore.
type MemoryRecentStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewMemoryRecentStore() *MemoryRecentStore {
	return &MemoryRecentStore{events: make(map[string][]Event)}
}

func (s *MemoryRecentStore) Save(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append([]Event{event}, s.events[event.EventType]...)
	if len(list) > recentPerType {
		list = list[:recentPerType]
	}

	s.events[event.EventType] = list

	return nil
}

func (s *MemoryRecentStore) Recent(_ context.Context, eventTypes []string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Event, 0)

	if len(eventTypes) == 0 {
		for _, list := range s.events {
			all = append(all, list...)
		}
	}

	for _, eventType := range eventTypes {
		all = append(all, s.events[eventType]...)
	}

	return newest(all, NormalizeLimit(limit)), nil
}

// newest orders events by occurrence, newest first, and keeps limit of them.
// Events whose time does not parse sort last in their input order.
func newest(events []Event, limit int) []Event {
	slices.SortStableFunc(events, func(a, b Event) int {
		ta, errA := time.Parse(time.RFC3339Nano, a.OccurredAt)
		tb, errB := time.Parse(time.RFC3339Nano, b.OccurredAt)

		switch {
		case errA != nil && errB != nil:
			return 0
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		default:
			return cmp.Compare(tb.UnixNano(), ta.UnixNano())
		}
	})

	if len(events) > limit {
		events = events[:limit]
	}

	return events
}
