package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/infrastructure/openfoodfacts"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/pkg/logger"
)

// Error codes stored on failed enrichment documents
const (
	EnrichErrorInvalidPayload = "invalid_payload"
	EnrichErrorMissingCode    = "missing_code"
)

// EnrichmentStats counts the outcome of one enrichment run
type EnrichmentStats struct {
	Processed    int `json:"processed"`
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	Unclassified int `json:"unclassified"`
	Scored       int `json:"scored"`
	PartialData  int `json:"partial_data"`
}

// EnrichOptions selects the raw documents of one enrichment run
type EnrichOptions struct {
	// Limit caps the number of documents; zero means no cap
	Limit int
	// OnlyNew skips raw documents that already have a result
	OnlyNew bool
}

// StoreTotals describes the raw and enriched stores after a run
type StoreTotals struct {
	Raw      int64                            `json:"raw_documents"`
	Enriched map[domain.EnrichmentStatus]int64 `json:"enriched_by_status"`
}

// EnrichmentService turns stored raw payloads into enriched documents
type EnrichmentService struct {
	raw      domain.RawStore
	enriched domain.EnrichedStore
	log      *logger.Logger
	now      func() time.Time
}

// NewEnrichmentService creates a new enrichment service with dependencies
func NewEnrichmentService(raw domain.RawStore, enriched domain.EnrichedStore, baseLog *logger.Logger) *EnrichmentService {
	return &EnrichmentService{
		raw:      raw,
		enriched: enriched,
		log:      baseLog.With("service", "EnrichmentService"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run enriches the raw documents selected by opts and replaces their earlier
// results. A payload that cannot be parsed is saved with status failed; only
// store errors abort the run.
func (s *EnrichmentService) Run(ctx context.Context, opts EnrichOptions) (EnrichmentStats, error) {
	var stats EnrichmentStats

	docs, err := s.raw.ListForEnrichment(ctx, opts.Limit, opts.OnlyNew)
	if err != nil {
		return stats, fmt.Errorf("list raw documents for enrichment: %w", err)
	}
	s.log.Info("enrichment started", "documents", len(docs), "only_new", opts.OnlyNew)

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		doc := s.EnrichDocument(&docs[i])
		if err := s.enriched.Save(ctx, doc); err != nil {
			return stats, fmt.Errorf("save enrichment of raw document %d: %w", docs[i].ID, err)
		}

		stats.Processed++
		if doc.Status == domain.EnrichmentFailed {
			stats.Failed++
			s.log.Warn("enrichment failed", "raw_id", docs[i].ID, "error_code", doc.ErrorCode, "error", doc.ErrorMessage)
			continue
		}
		stats.Succeeded++
		if doc.Data.CategoryGroup == domain.CategoryUnclassified {
			stats.Unclassified++
		}
		if doc.Data.QualityScore != nil {
			stats.Scored++
		}
		if hasPartialData(doc.Data) {
			stats.PartialData++
		}
	}

	s.log.Info("enrichment finished",
		"processed", stats.Processed,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"unclassified", stats.Unclassified,
		"scored", stats.Scored,
		"partial_data", stats.PartialData,
	)
	return stats, nil
}

// Totals counts the stored raw documents and the enrichment results per status
func (s *EnrichmentService) Totals(ctx context.Context) (*StoreTotals, error) {
	raw, err := s.raw.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count raw documents: %w", err)
	}
	enriched, err := s.enriched.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count enriched documents: %w", err)
	}
	return &StoreTotals{Raw: raw, Enriched: enriched}, nil
}

// EnrichDocument builds the enrichment result of one raw document
func (s *EnrichmentService) EnrichDocument(raw *domain.RawDocument) *domain.EnrichedDocument {
	doc := &domain.EnrichedDocument{
		RawID:      raw.ID,
		EnrichedAt: s.now(),
		Code:       raw.Code,
	}

	product, err := openfoodfacts.ParseProduct(raw.Payload)
	if err != nil {
		doc.Status = domain.EnrichmentFailed
		doc.ErrorCode = EnrichErrorInvalidPayload
		doc.ErrorMessage = err.Error()
		if !errors.Is(err, domain.ErrInvalidPayload) {
			doc.ErrorMessage = fmt.Sprintf("%v: %v", domain.ErrInvalidPayload, err)
		}
		return doc
	}
	if product.Code == "" {
		doc.Status = domain.EnrichmentFailed
		doc.ErrorCode = EnrichErrorMissingCode
		doc.ErrorMessage = "payload has no product code"
		return doc
	}

	enriched := Enrich(*product)
	doc.Status = domain.EnrichmentSuccess
	doc.Code = enriched.Code
	doc.Data = &enriched
	return doc
}
