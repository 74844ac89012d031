// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store.go persists serialized category trees under a random draft id.
// Every read slides the expiry forward, so a draft lives as long as someone
// keeps editing it.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"shopadmin/internal/category"
)

const (
	// draftKeyPrefix is the Valkey key prefix for drafts.
	draftKeyPrefix = "draft:"

	// DefaultTTL is how long an untouched draft is kept.
	DefaultTTL = 2 * time.Hour
)

// ErrDraftNotFound is returned for unknown or expired drafts.
var ErrDraftNotFound = errors.New("draft not found")

// Store manages category drafts in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a draft store backed by the given Valkey client.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func draftKey(id uuid.UUID) string {
	return draftKeyPrefix + id.String()
}

// Create stores tree under a new draft id.
func (s *Store) Create(ctx context.Context, tree *category.Tree) (uuid.UUID, error) {
	id := uuid.New()
	if err := s.Put(ctx, id, tree); err != nil {
		return uuid.Nil, err
	}
	slog.Debug("draft created", "draft", id, "categories", tree.Len())
	return id, nil
}

// Get loads a draft and extends its expiry.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*category.Tree, error) {
	data, err := s.client.GetEx(ctx, draftKey(id), s.ttl).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("draft get: %w", err)
	}

	tree := category.New()
	if err := json.Unmarshal(data, tree); err != nil {
		return nil, fmt.Errorf("draft decode %s: %w", id, err)
	}
	return tree, nil
}

// Put overwrites a draft with tree and resets its expiry.
func (s *Store) Put(ctx context.Context, id uuid.UUID, tree *category.Tree) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("draft encode: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("draft set: %w", err)
	}
	return nil
}

// Delete discards a draft. Deleting a missing draft is not an error.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, draftKey(id)).Err(); err != nil {
		return fmt.Errorf("draft delete: %w", err)
	}
	slog.Debug("draft discarded", "draft", id)
	return nil
}
