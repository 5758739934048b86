// Package store provides the memory storage interface and SQLite implementation.
package store

import (
	"context"

	"github.com/hazoom/assistant-memory/internal/model"
)

// StoreParams holds parameters for storing (upserting) a memory.
type StoreParams struct {
	UserIdentifier string
	Key            string
	Value          string
	MemoryType     string
	Description    string
	Importance     int // 0 means default (5)
	Tags           []string
	Metadata       map[string]string
}

// SearchParams holds parameters for searching memories.
type SearchParams struct {
	UserIdentifier string
	Query          string
	MemoryType     string
	Tags           []string
	Limit          int
}

// ListParams holds parameters for listing memories.
type ListParams struct {
	UserIdentifier string
	MemoryType     string
	MinImportance  int
}

// Store defines the memory storage interface.
type Store interface {
	// StoreMemory upserts a memory by (user, key). Repeat writes to the
	// same key overwrite the mutable fields and reactivate the record;
	// they never create a duplicate row.
	StoreMemory(ctx context.Context, p StoreParams) (*model.MemoryRecord, error)

	// GetMemory retrieves an active memory by key. A miss returns
	// (nil, nil). A hit bumps access_count and last_accessed.
	GetMemory(ctx context.Context, userIdentifier, key string) (*model.MemoryRecord, error)

	// SearchMemories finds active memories matching the given filters,
	// ordered by importance then recency.
	SearchMemories(ctx context.Context, p SearchParams) ([]model.MemoryRecord, error)

	// ListMemories lists active memories without a query filter.
	ListMemories(ctx context.Context, p ListParams) ([]model.MemoryRecord, error)

	// DeleteMemory soft-deletes a memory. Missing keys are a no-op.
	DeleteMemory(ctx context.Context, userIdentifier, key string) error

	// SetImportance updates a memory's importance. Missing keys are a no-op.
	SetImportance(ctx context.Context, userIdentifier, key string, importance int) error

	// ActiveKeys returns the set of active memory keys for a user,
	// as consumed by the admission policy.
	ActiveKeys(ctx context.Context, userIdentifier string) (map[string]bool, error)

	// Close closes the store.
	Close() error
}
