package persistence

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/infrastructure/openfoodfacts"
)

const rawInsertBatchSize = 500

// RawStore keeps collected payloads untouched, deduplicated by content hash
type RawStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRawStore creates a raw store over db
func NewRawStore(db *gorm.DB) *RawStore {
	return &RawStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// InsertBatch stores payloads whose canonical hash is not already present and
// returns how many rows were inserted.
func (s *RawStore) InsertBatch(ctx context.Context, payloads []map[string]any, source string) (int, error) {
	if len(payloads) == 0 {
		return 0, nil
	}

	fetchedAt := s.now()
	seen := make(map[string]bool, len(payloads))
	rows := make([]RawProductModel, 0, len(payloads))
	for i, payload := range payloads {
		body, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("encode payload %d: %w", i, err)
		}
		hash, err := RawHash(body)
		if err != nil {
			return 0, fmt.Errorf("hash payload %d: %w", i, err)
		}
		if seen[hash] {
			continue
		}
		seen[hash] = true
		rows = append(rows, RawProductModel{
			Source:    source,
			FetchedAt: fetchedAt,
			RawHash:   hash,
			Code:      openfoodfacts.ProductCode(payload),
			Payload:   datatypes.JSON(body),
		})
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "raw_hash"}}, DoNothing: true}).
		CreateInBatches(&rows, rawInsertBatchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("insert raw payloads: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// ListForEnrichment returns raw documents oldest first. Every document is
// listed so a re-run recomputes earlier results; onlyNew restricts the list to
// documents without an enrichment result yet.
func (s *RawStore) ListForEnrichment(ctx context.Context, limit int, onlyNew bool) ([]domain.RawDocument, error) {
	var rows []RawProductModel
	q := s.db.WithContext(ctx).
		Model(&RawProductModel{}).
		Select("products_raw.*").
		Order("products_raw.id")
	if onlyNew {
		q = q.Joins("LEFT JOIN products_enriched ON products_enriched.raw_id = products_raw.id").
			Where("products_enriched.id IS NULL")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list raw payloads for enrichment: %w", err)
	}

	docs := make([]domain.RawDocument, 0, len(rows))
	for _, row := range rows {
		payload, err := decodePayload(row.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode raw payload %d: %w", row.ID, err)
		}
		docs = append(docs, domain.RawDocument{
			ID:        row.ID,
			Source:    row.Source,
			FetchedAt: row.FetchedAt,
			RawHash:   row.RawHash,
			Code:      row.Code,
			Payload:   payload,
		})
	}
	return docs, nil
}

// Count returns the number of stored raw payloads
func (s *RawStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&RawProductModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count raw payloads: %w", err)
	}
	return n, nil
}

// RawHash is the hex SHA-256 of the RFC 8785 canonical form of a JSON document,
// so key order and number formatting do not change it.
func RawHash(body []byte) (string, error) {
	canonical, err := jcs.Transform(body)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// decodePayload keeps numbers as json.Number so barcodes and values survive intact
func decodePayload(body []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}
