package domain

import "math"

// Nutriments holds per-100g nutrition values. A nil field means the value was
// absent or unusable in the source record.
type Nutriments struct {
	EnergyKcal    *float64 `json:"energy_kcal,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	SaturatedFat  *float64 `json:"saturated_fat,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Sugars        *float64 `json:"sugars,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Proteins      *float64 `json:"proteins,omitempty"`
	Salt          *float64 `json:"salt,omitempty"`
}

// NutrimentFieldCount is the number of nutrition fields tracked per product.
const NutrimentFieldCount = 8

// Fields returns the nutrition values in a fixed order.
func (n Nutriments) Fields() []*float64 {
	return []*float64{
		n.EnergyKcal, n.Fat, n.SaturatedFat, n.Carbohydrates,
		n.Sugars, n.Fiber, n.Proteins, n.Salt,
	}
}

// PresentCount returns how many nutrition fields carry a usable value.
func (n Nutriments) PresentCount() int {
	count := 0
	for _, v := range n.Fields() {
		if Usable(v) {
			count++
		}
	}
	return count
}

// IsEmpty reports whether no nutrition field carries a usable value.
func (n Nutriments) IsEmpty() bool {
	return n.PresentCount() == 0
}

// Usable reports whether v holds a finite, non-negative quantity.
func Usable(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v >= 0
}

// Sanitized returns a copy where unusable values are dropped to nil.
func (n Nutriments) Sanitized() Nutriments {
	keep := func(v *float64) *float64 {
		if !Usable(v) {
			return nil
		}
		out := *v
		return &out
	}
	return Nutriments{
		EnergyKcal:    keep(n.EnergyKcal),
		Fat:           keep(n.Fat),
		SaturatedFat:  keep(n.SaturatedFat),
		Carbohydrates: keep(n.Carbohydrates),
		Sugars:        keep(n.Sugars),
		Fiber:         keep(n.Fiber),
		Proteins:      keep(n.Proteins),
		Salt:          keep(n.Salt),
	}
}
