package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

// Resolver looks up brands and categories by name and inserts missing ones
type Resolver struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewResolver creates a resolver over db
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolveOrCreate implements domain.Resolver. The insert ignores conflicts on
// name, so concurrent writers converge on the row that won.
func (r *Resolver) ResolveOrCreate(ctx context.Context, kind domain.EntityKind, name string) (int64, error) {
	table, err := entityTable(kind)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(name) == "" {
		return 0, &domain.ValidationError{Field: string(kind), Reason: "empty name"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	row := map[string]any{"name": name, "created_at": time.Now().UTC()}
	err = r.db.WithContext(ctx).
		Table(table).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return 0, fmt.Errorf("insert %s %q: %w", kind, name, err)
	}

	var ref struct{ ID int64 }
	err = r.db.WithContext(ctx).Table(table).Select("id").Where("name = ?", name).Take(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%s %q vanished after insert", kind, name)
	}
	if err != nil {
		return 0, fmt.Errorf("select %s %q: %w", kind, name, err)
	}
	return ref.ID, nil
}

func entityTable(kind domain.EntityKind) (string, error) {
	switch kind {
	case domain.EntityBrand:
		return BrandModel{}.TableName(), nil
	case domain.EntityCategory:
		return CategoryModel{}.TableName(), nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}
