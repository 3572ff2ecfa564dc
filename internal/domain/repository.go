package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// OpenFoodFactsClient defines the interface for interacting with the Open Food Facts API
type OpenFoodFactsClient interface {
	SearchProducts(ctx context.Context, query SearchQuery) ([]any, error)
	GetProduct(ctx context.Context, code string) (map[string]any, error)
}

// SearchQuery selects one page of products of a category sold in a country.
type SearchQuery struct {
	Category string
	Country  string
	Page     int
	PageSize int
}

// RawStore persists collected payloads untouched.
type RawStore interface {
	InsertBatch(ctx context.Context, payloads []map[string]any, source string) (int, error)
	ListForEnrichment(ctx context.Context, limit int, onlyNew bool) ([]RawDocument, error)
	Count(ctx context.Context) (int64, error)
}

// EnrichedStore persists enrichment results, one per raw document.
type EnrichedStore interface {
	Save(ctx context.Context, doc *EnrichedDocument) error
	ListByStatus(ctx context.Context, status EnrichmentStatus, limit int) ([]EnrichedDocument, error)
	CountByStatus(ctx context.Context) (map[EnrichmentStatus]int64, error)
}

// Resolver looks up a brand or category by normalized name, creating it when absent.
// Calling it twice with the same arguments must return the same id.
type Resolver interface {
	ResolveOrCreate(ctx context.Context, kind EntityKind, name string) (int64, error)
}

// ProductWriter upserts product and nutrition rows keyed by product code.
type ProductWriter interface {
	UpsertProducts(ctx context.Context, batch []WriteSet) error
}

// CatalogRepository serves the read side of the relational schema.
type CatalogRepository interface {
	ListItems(ctx context.Context, filter ItemFilter) (*ItemPage, error)
	GetItem(ctx context.Context, id int64) (*ItemDetail, error)
	Stats(ctx context.Context) (*CatalogStats, error)
}
