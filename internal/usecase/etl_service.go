package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/pkg/logger"
)

// ETLServiceConfig holds configuration for the ETL service
type ETLServiceConfig struct {
	BatchSize     int
	Workers       int
	EnrichedLimit int
}

// RecordFailure describes one record that was not loaded.
type RecordFailure struct {
	Index  int    `json:"index"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// ETLSummary reports the outcome of one ETL run.
type ETLSummary struct {
	RunID        string          `json:"run_id"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Total        int             `json:"total"`
	Loaded       int             `json:"loaded"`
	Skipped      int             `json:"skipped"`
	Unclassified int             `json:"unclassified"`
	PartialData  int             `json:"partial_data"`
	Failures     []RecordFailure `json:"failures,omitempty"`
}

// ETLService loads enriched products into the relational schema.
type ETLService struct {
	enriched  domain.EnrichedStore
	resolver  domain.Resolver
	writer    domain.ProductWriter
	log       *logger.Logger
	batchSize int
	workers   int
	limit     int
}

// NewETLService creates a new ETL service with dependencies
func NewETLService(
	enriched domain.EnrichedStore,
	resolver domain.Resolver,
	writer domain.ProductWriter,
	baseLog *logger.Logger,
	config ETLServiceConfig,
) *ETLService {
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}
	limit := config.EnrichedLimit
	if limit <= 0 {
		limit = 10000
	}

	return &ETLService{
		enriched:  enriched,
		resolver:  resolver,
		writer:    writer,
		log:       baseLog.With("service", "ETLService"),
		batchSize: batchSize,
		workers:   workers,
		limit:     limit,
	}
}

// Run extracts the successfully enriched documents and loads them.
func (s *ETLService) Run(ctx context.Context) (*ETLSummary, error) {
	docs, err := s.enriched.ListByStatus(ctx, domain.EnrichmentSuccess, s.limit)
	if err != nil {
		return nil, fmt.Errorf("extract enriched documents: %w", err)
	}
	s.log.Info("extracted enriched documents", "count", len(docs))

	products := make([]domain.EnrichedProduct, 0, len(docs))
	for _, doc := range docs {
		if doc.Data == nil {
			continue
		}
		products = append(products, *doc.Data)
	}
	return s.Load(ctx, products)
}

// Load maps and upserts products. A bad record is skipped and reported in the
// summary; only a cancelled context stops the run early.
func (s *ETLService) Load(ctx context.Context, products []domain.EnrichedProduct) (*ETLSummary, error) {
	summary := &ETLSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Total:     len(products),
	}
	runLog := s.log.With("run_id", summary.RunID)

	for i := range products {
		if products[i].CategoryGroup == domain.CategoryUnclassified || products[i].CategoryGroup == "" {
			summary.Unclassified++
		}
		if hasPartialData(&products[i]) {
			summary.PartialData++
		}
	}

	namespace := NewNamespace(s.resolver)
	mapper := NewMapper(namespace)

	sets, failures, err := s.mapAll(ctx, mapper, namespace, products)
	if err != nil {
		return nil, err
	}
	summary.Failures = append(summary.Failures, failures...)

	for start := 0; start < len(sets); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+s.batchSize, len(sets))
		loaded, batchFailures := s.writeBatch(ctx, sets[start:end])
		summary.Loaded += loaded
		summary.Failures = append(summary.Failures, batchFailures...)
	}

	summary.Skipped = len(summary.Failures)
	summary.FinishedAt = time.Now().UTC()

	for _, f := range summary.Failures {
		runLog.Warn("record skipped", "index", f.Index, "code", f.Code, "reason", f.Reason)
	}
	runLog.Info("etl run finished",
		"total", summary.Total,
		"loaded", summary.Loaded,
		"skipped", summary.Skipped,
		"unclassified", summary.Unclassified,
		"partial_data", summary.PartialData,
		"namespace_size", namespace.Size(),
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	return summary, nil
}

// indexedSet keeps the input position of a mapped record for reporting.
type indexedSet struct {
	index int
	set   *domain.WriteSet
}

// mapAll maps every product, sequentially or across workers. In parallel mode
// the namespace is primed first so workers mostly hit the cache.
func (s *ETLService) mapAll(
	ctx context.Context,
	mapper *Mapper,
	namespace *Namespace,
	products []domain.EnrichedProduct,
) ([]indexedSet, []RecordFailure, error) {
	results := make([]*domain.WriteSet, len(products))
	errs := make([]error, len(products))

	if s.workers == 1 {
		for i := range products {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			results[i], errs[i] = mapper.MapToRelational(ctx, &products[i])
		}
	} else {
		namespace.Prime(ctx, products)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)
		for i := range products {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				// Per-record errors are collected, not returned, so one bad
				// record does not cancel the others
				results[i], errs[i] = mapper.MapToRelational(gctx, &products[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	var sets []indexedSet
	var failures []RecordFailure
	for i := range products {
		if errs[i] != nil {
			failures = append(failures, newFailure(i, products[i].Code, "mapping failed", errs[i]))
			continue
		}
		sets = append(sets, indexedSet{index: i, set: results[i]})
	}
	return sets, failures, nil
}

// writeBatch upserts a batch in one call; if that fails, it retries the
// records one by one so that only the offending records are skipped.
func (s *ETLService) writeBatch(ctx context.Context, batch []indexedSet) (int, []RecordFailure) {
	rows := make([]domain.WriteSet, len(batch))
	for i, b := range batch {
		rows[i] = *b.set
	}
	err := s.writer.UpsertProducts(ctx, rows)
	if err == nil {
		return len(batch), nil
	}
	s.log.Warn("batch upsert failed, retrying per record", "size", len(batch), "error", err)

	loaded := 0
	var failures []RecordFailure
	for _, b := range batch {
		if err := s.writer.UpsertProducts(ctx, []domain.WriteSet{*b.set}); err != nil {
			failures = append(failures, newFailure(b.index, b.set.Product.Code, "write failed", err))
			continue
		}
		loaded++
	}
	return loaded, failures
}

// newFailure labels err with stage, or "validation" for invalid records
func newFailure(index int, code, stage string, err error) RecordFailure {
	reason := stage
	if errors.Is(err, domain.ErrValidation) {
		reason = "validation"
	}
	return RecordFailure{
		Index:  index,
		Code:   code,
		Reason: fmt.Sprintf("%s: %v", reason, err),
		Err:    err,
	}
}
