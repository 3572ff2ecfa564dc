package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/infrastructure/openfoodfacts"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/pkg/logger"
)

// CollectorConfig holds configuration for the collector
type CollectorConfig struct {
	PageSize   int
	Country    string
	Categories []string
}

// CollectStats counts what happened during a collection
type CollectStats struct {
	Collected     int `json:"collected"`
	Errors        int `json:"errors"`
	InvalidFormat int `json:"invalid_format"`
	MissingData   int `json:"missing_data"`
	Duplicates    int `json:"duplicates"`
}

// CollectorService pulls raw product payloads from Open Food Facts
type CollectorService struct {
	client     domain.OpenFoodFactsClient
	raw        domain.RawStore
	log        *logger.Logger
	pageSize   int
	country    string
	categories []string
}

// NewCollectorService creates a new collector with dependencies
func NewCollectorService(
	client domain.OpenFoodFactsClient,
	raw domain.RawStore,
	baseLog *logger.Logger,
	config CollectorConfig,
) *CollectorService {
	pageSize := config.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	country := config.Country
	if country == "" {
		country = "france"
	}
	return &CollectorService{
		client:     client,
		raw:        raw,
		log:        baseLog.With("service", "CollectorService"),
		pageSize:   pageSize,
		country:    country,
		categories: config.Categories,
	}
}

// Collect walks the categories page by page until target valid, distinct
// products are gathered or the categories run out. A nil categories slice
// uses the configured ones.
func (s *CollectorService) Collect(ctx context.Context, target int, categories []string) ([]map[string]any, CollectStats, error) {
	var stats CollectStats
	if categories == nil {
		categories = s.categories
	}
	if len(categories) == 0 {
		return nil, stats, fmt.Errorf("%w: no categories to collect", domain.ErrInvalidRequest)
	}
	if target <= 0 {
		return nil, stats, fmt.Errorf("%w: target must be positive", domain.ErrInvalidRequest)
	}

	// Ask a bit more than the even share per category to make up for duplicates
	perCategory := max(target/len(categories)+10, 50)

	collected := make([]map[string]any, 0, target)
	seen := make(map[string]bool)

	s.log.Info("collection started", "target", target, "categories", len(categories), "country", s.country)

	for _, category := range categories {
		if len(collected) >= target {
			break
		}
		categoryLog := s.log.With("category", category)
		categoryCount := 0

		for page := 1; categoryCount < perCategory && len(collected) < target; page++ {
			if err := ctx.Err(); err != nil {
				return collected, stats, err
			}

			products, err := s.client.SearchProducts(ctx, domain.SearchQuery{
				Category: category,
				Country:  s.country,
				Page:     page,
				PageSize: s.pageSize,
			})
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return collected, stats, err
				}
				stats.Errors++
				categoryLog.Warn("search failed, moving to next category", "page", page, "error", err)
				break
			}
			if len(products) == 0 {
				break
			}

			for _, item := range products {
				if len(collected) >= target || categoryCount >= perCategory {
					break
				}
				payload, ok := item.(map[string]any)
				if !ok {
					stats.InvalidFormat++
					continue
				}
				code := openfoodfacts.ProductCode(payload)
				if code != "" && seen[code] {
					stats.Duplicates++
					continue
				}
				if err := openfoodfacts.ValidatePayload(payload); err != nil {
					stats.MissingData++
					continue
				}

				collected = append(collected, payload)
				seen[code] = true
				categoryCount++
				stats.Collected++
			}
		}
		categoryLog.Debug("category done", "collected", categoryCount)
	}

	s.log.Info("collection finished",
		"collected", stats.Collected,
		"errors", stats.Errors,
		"invalid_format", stats.InvalidFormat,
		"missing_data", stats.MissingData,
		"duplicates", stats.Duplicates,
	)
	return collected, stats, nil
}

// Store writes collected payloads to the raw store and returns how many were new
func (s *CollectorService) Store(ctx context.Context, payloads []map[string]any) (int, error) {
	inserted, err := s.raw.InsertBatch(ctx, payloads, "openfoodfacts")
	if err != nil {
		return 0, fmt.Errorf("store raw payloads: %w", err)
	}
	s.log.Info("raw payloads stored", "inserted", inserted, "duplicates", len(payloads)-inserted)
	return inserted, nil
}
