package domain

import (
	"context"
	"time"
)

// CatalogProvider supplies the full set of current product rows.
type CatalogProvider interface {
	ListProducts(ctx context.Context) ([]CatalogRow, error)
	Name() string
}

// FactsProvider supplies the seasonal/regional reference table.
type FactsProvider interface {
	LoadFacts(ctx context.Context) (*SeasonalFacts, error)
	Name() string
}

// FAQProvider supplies the raw Q/A text of the FAQ corpus.
type FAQProvider interface {
	LoadFAQ(ctx context.Context) (string, error)
	Name() string
}

// MemoryStore persists per-user memory keyed by user id.
// Read returns ErrUserNotFound when the store holds nothing for the user.
// Implementations are expected to serialize writes for the same user.
type MemoryStore interface {
	Read(ctx context.Context, userID string) (*UserMemory, error)
	Write(ctx context.Context, userID string, memory *UserMemory) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
