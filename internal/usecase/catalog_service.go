package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/pkg/logger"
)

// Page size bounds of the catalog list
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL time.Duration
}

// CatalogService serves loaded products with caching of detail and stats reads
type CatalogService struct {
	repo     domain.CatalogRepository
	cache    domain.CacheRepository
	log      *logger.Logger
	cacheTTL time.Duration
}

// NewCatalogService creates a new catalog service with dependencies
func NewCatalogService(
	repo domain.CatalogRepository,
	cache domain.CacheRepository,
	baseLog *logger.Logger,
	config CatalogServiceConfig,
) *CatalogService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	return &CatalogService{
		repo:     repo,
		cache:    cache,
		log:      baseLog.With("service", "CatalogService"),
		cacheTTL: cacheTTL,
	}
}

// ListItems returns one page of products. Lists are not cached since filter
// combinations are unbounded.
func (s *CatalogService) ListItems(ctx context.Context, filter domain.ItemFilter) (*domain.ItemPage, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, filter)
}

// GetItem returns one product by id.
// Flow: check cache -> query repository -> cache -> return
func (s *CatalogService) GetItem(ctx context.Context, id int64) (*domain.ItemDetail, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := fmt.Sprintf("catalog:item:%d", id)
	var cached domain.ItemDetail
	if s.getFromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	s.setInCache(ctx, cacheKey, item)
	return item, nil
}

// Stats returns the catalog aggregates
func (s *CatalogService) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	const cacheKey = "catalog:stats"

	var cached domain.CatalogStats
	if s.getFromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	s.setInCache(ctx, cacheKey, stats)
	return stats, nil
}

// normalizeFilter applies the defaults and rejects out-of-range values
func normalizeFilter(filter domain.ItemFilter) (domain.ItemFilter, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = DefaultPageSize
	}
	if filter.Page < 1 {
		return filter, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidRequest)
	}
	if filter.PageSize < 1 || filter.PageSize > MaxPageSize {
		return filter, fmt.Errorf("%w: page_size must be between 1 and %d", domain.ErrInvalidRequest, MaxPageSize)
	}
	if filter.MinQuality != nil && (*filter.MinQuality < 0 || *filter.MinQuality > 100) {
		return filter, fmt.Errorf("%w: min_quality must be between 0 and 100", domain.ErrInvalidRequest)
	}

	filter.Category = strings.TrimSpace(filter.Category)
	filter.Brand = strings.TrimSpace(filter.Brand)
	filter.Nutriscore = strings.ToLower(strings.TrimSpace(filter.Nutriscore))
	if filter.Nutriscore != "" {
		grade := filter.Nutriscore
		if NormalizeGrade(&grade) == nil {
			return filter, fmt.Errorf("%w: nutriscore must be one of a, b, c, d, e", domain.ErrInvalidRequest)
		}
	}
	return filter, nil
}

// getFromCache decodes a cached value into out, reporting whether it was a hit
func (s *CatalogService) getFromCache(ctx context.Context, key string, out any) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.log.Warn("dropping undecodable cache entry", "key", key, "error", err)
		_ = s.cache.Delete(ctx, key)
		return false
	}
	return true
}

// setInCache stores value; a cache failure never fails the read
func (s *CatalogService) setInCache(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
}
