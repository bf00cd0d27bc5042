package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/mysa/internal/domain"
	"github.com/MrSnakeDoc/mysa/internal/store"
)

// Store keeps one JSON record per entry plus a list of IDs in display order.
// Save rewrites everything inside MULTI/EXEC, so other clients see either
// the old list or the new one.
type Store struct {
	client redis.UniversalClient
	keys   Keys
}

// NewStore creates a Redis-backed entry store.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		client: client,
		keys:   NewKeys(prefix),
	}
}

func (s *Store) Backend() string { return store.BackendRedis }

func (s *Store) Close() error { return s.client.Close() }

// Ping reports whether Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Load reads the ordered list. No order key means nothing was saved yet.
func (s *Store) Load(ctx context.Context) ([]domain.Entry, error) {
	ids, err := s.client.LRange(ctx, s.keys.Order(), 0, -1).Result()
	if err != nil {
		return nil, store.LoadError(store.BackendRedis, fmt.Errorf("failed to read entry order: %w", err))
	}
	if len(ids) == 0 {
		return []domain.Entry{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.keys.Entry(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, store.LoadError(store.BackendRedis, fmt.Errorf("failed to read entries: %w", err))
	}

	entries := make([]domain.Entry, 0, len(ids))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, store.LoadError(store.BackendRedis, fmt.Errorf("entry %s listed but missing", ids[i]))
			}
			return nil, store.LoadError(store.BackendRedis, fmt.Errorf("failed to read entry %s: %w", ids[i], err))
		}

		var rec store.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, store.LoadError(store.BackendRedis, fmt.Errorf("failed to unmarshal entry %s: %w", ids[i], err))
		}
		rec.ID = ids[i]
		e, err := rec.Entry()
		if err != nil {
			return nil, store.LoadError(store.BackendRedis, err)
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// Save replaces the stored list with entries in one transaction.
func (s *Store) Save(ctx context.Context, entries []domain.Entry) error {
	previous, err := s.client.LRange(ctx, s.keys.Order(), 0, -1).Result()
	if err != nil {
		return store.SaveError(store.BackendRedis, fmt.Errorf("failed to read entry order: %w", err))
	}

	payloads := make([][]byte, len(entries))
	ids := make([]interface{}, len(entries))
	keep := make(map[string]bool, len(entries))
	for i, e := range entries {
		data, err := json.Marshal(store.NewRecord(e, i))
		if err != nil {
			return store.SaveError(store.BackendRedis, fmt.Errorf("failed to marshal entry %s: %w", e.ID, err))
		}
		payloads[i] = data
		ids[i] = e.ID
		keep[e.ID] = true
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range previous {
			if !keep[id] {
				pipe.Del(ctx, s.keys.Entry(id))
			}
		}
		pipe.Del(ctx, s.keys.Order())
		for i, e := range entries {
			pipe.Set(ctx, s.keys.Entry(e.ID), payloads[i], 0)
		}
		if len(ids) > 0 {
			pipe.RPush(ctx, s.keys.Order(), ids...)
		}
		return nil
	})
	if err != nil {
		return store.SaveError(store.BackendRedis, fmt.Errorf("failed to save entries: %w", err))
	}
	return nil
}
