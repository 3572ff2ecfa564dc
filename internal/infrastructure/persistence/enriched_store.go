package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

// EnrichedStore keeps one enrichment result per raw payload
type EnrichedStore struct {
	db *gorm.DB
}

// NewEnrichedStore creates an enriched store over db
func NewEnrichedStore(db *gorm.DB) *EnrichedStore {
	return &EnrichedStore{db: db}
}

// Save inserts the result of a raw payload, replacing any earlier one
func (s *EnrichedStore) Save(ctx context.Context, doc *domain.EnrichedDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: nil enriched document", domain.ErrInvalidRequest)
	}

	var data datatypes.JSON
	if doc.Data != nil {
		body, err := json.Marshal(doc.Data)
		if err != nil {
			return fmt.Errorf("encode enriched product: %w", err)
		}
		data = datatypes.JSON(body)
	}

	row := EnrichedProductModel{
		RawID:        doc.RawID,
		Status:       string(doc.Status),
		EnrichedAt:   doc.EnrichedAt,
		Code:         doc.Code,
		Data:         data,
		ErrorCode:    doc.ErrorCode,
		ErrorMessage: doc.ErrorMessage,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "raw_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "enriched_at", "code", "data", "error_code", "error_message"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save enriched document for raw %d: %w", doc.RawID, err)
	}
	if row.ID != 0 {
		doc.ID = row.ID
	}
	return nil
}

// ListByStatus returns up to limit documents with the given status, oldest first
func (s *EnrichedStore) ListByStatus(ctx context.Context, status domain.EnrichmentStatus, limit int) ([]domain.EnrichedDocument, error) {
	var rows []EnrichedProductModel
	q := s.db.WithContext(ctx).Where("status = ?", string(status)).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list enriched documents: %w", err)
	}

	docs := make([]domain.EnrichedDocument, 0, len(rows))
	for _, row := range rows {
		doc := domain.EnrichedDocument{
			ID:           row.ID,
			RawID:        row.RawID,
			Status:       domain.EnrichmentStatus(row.Status),
			EnrichedAt:   row.EnrichedAt,
			Code:         row.Code,
			ErrorCode:    row.ErrorCode,
			ErrorMessage: row.ErrorMessage,
		}
		if len(row.Data) > 0 && string(row.Data) != "null" {
			var product domain.EnrichedProduct
			if err := json.Unmarshal(row.Data, &product); err != nil {
				return nil, fmt.Errorf("decode enriched document %d: %w", row.ID, err)
			}
			doc.Data = &product
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// CountByStatus returns the number of documents per status
func (s *EnrichedStore) CountByStatus(ctx context.Context) (map[domain.EnrichmentStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&EnrichedProductModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count enriched documents: %w", err)
	}
	out := make(map[domain.EnrichmentStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.EnrichmentStatus(row.Status)] = row.Count
	}
	return out, nil
}
