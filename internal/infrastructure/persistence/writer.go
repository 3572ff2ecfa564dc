package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

// productUpdateColumns are overwritten on re-load; created_at is kept
var productUpdateColumns = []string{
	"product_name", "brand_id", "category_id", "nutriscore_grade",
	"nova_group", "quality_score", "image_url", "updated_at",
}

var nutritionUpdateColumns = []string{
	"energy_kcal", "fat", "saturated_fat", "carbohydrates",
	"sugars", "fiber", "proteins", "salt", "updated_at",
}

// ProductWriter upserts products and their nutrition facts
type ProductWriter struct {
	db *gorm.DB
}

// NewProductWriter creates a writer over db
func NewProductWriter(db *gorm.DB) *ProductWriter {
	return &ProductWriter{db: db}
}

// UpsertProducts implements domain.ProductWriter. The whole batch is written in
// one transaction; when a code appears twice, the last write-set wins.
func (w *ProductWriter) UpsertProducts(ctx context.Context, batch []domain.WriteSet) error {
	if len(batch) == 0 {
		return nil
	}
	sets := lastByCode(batch)

	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		products := make([]ProductModel, len(sets))
		codes := make([]string, len(sets))
		for i, ws := range sets {
			if ws.Product.Code == "" {
				return &domain.ValidationError{Field: "code", Reason: "missing or empty"}
			}
			products[i] = toProductModel(ws.Product, now)
			codes[i] = ws.Product.Code
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns(productUpdateColumns),
		}).Create(&products).Error
		if err != nil {
			return fmt.Errorf("upsert products: %w", err)
		}

		var idRows []struct {
			ID   int64
			Code string
		}
		if err := tx.Model(&ProductModel{}).Select("id", "code").Where("code IN ?", codes).Scan(&idRows).Error; err != nil {
			return fmt.Errorf("select product ids: %w", err)
		}
		ids := make(map[string]int64, len(idRows))
		for _, row := range idRows {
			ids[row.Code] = row.ID
		}

		var facts []NutritionFactsModel
		var withoutNutrition []int64
		for _, ws := range sets {
			id, ok := ids[ws.Product.Code]
			if !ok {
				return fmt.Errorf("product %q missing after upsert", ws.Product.Code)
			}
			if ws.Nutrition == nil {
				withoutNutrition = append(withoutNutrition, id)
				continue
			}
			facts = append(facts, toNutritionModel(id, ws.Nutrition, now))
		}

		if len(facts) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "product_id"}},
				DoUpdates: clause.AssignmentColumns(nutritionUpdateColumns),
			}).Create(&facts).Error
			if err != nil {
				return fmt.Errorf("upsert nutrition facts: %w", err)
			}
		}
		if len(withoutNutrition) > 0 {
			err := tx.Where("product_id IN ?", withoutNutrition).Delete(&NutritionFactsModel{}).Error
			if err != nil {
				return fmt.Errorf("delete stale nutrition facts: %w", err)
			}
		}
		return nil
	})
}

// lastByCode drops earlier write-sets for a repeated code, keeping input order
func lastByCode(batch []domain.WriteSet) []domain.WriteSet {
	last := make(map[string]int, len(batch))
	for i, ws := range batch {
		last[ws.Product.Code] = i
	}
	if len(last) == len(batch) {
		return batch
	}
	out := make([]domain.WriteSet, 0, len(last))
	for i, ws := range batch {
		if last[ws.Product.Code] == i {
			out = append(out, ws)
		}
	}
	return out
}

func toProductModel(p domain.ProductRow, now time.Time) ProductModel {
	return ProductModel{
		Code:            p.Code,
		ProductName:     p.ProductName,
		BrandID:         p.BrandID,
		CategoryID:      p.CategoryID,
		NutriscoreGrade: p.NutriscoreGrade,
		NovaGroup:       p.NovaGroup,
		QualityScore:    p.QualityScore,
		ImageURL:        p.ImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func toNutritionModel(productID int64, n *domain.NutritionRow, now time.Time) NutritionFactsModel {
	return NutritionFactsModel{
		ProductID:     productID,
		EnergyKcal:    n.EnergyKcal,
		Fat:           n.Fat,
		SaturatedFat:  n.SaturatedFat,
		Carbohydrates: n.Carbohydrates,
		Sugars:        n.Sugars,
		Fiber:         n.Fiber,
		Proteins:      n.Proteins,
		Salt:          n.Salt,
		UpdatedAt:     now,
	}
}
