package usecase

import (
	"strings"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
)

// categoryRule maps folded keywords to a taxonomy group
type categoryRule struct {
	group    domain.CategoryGroup
	keywords map[string]bool
}

func newRule(group domain.CategoryGroup, keywords ...string) categoryRule {
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[k] = true
	}
	return categoryRule{group: group, keywords: set}
}

// categoryRules is evaluated in order; the first rule with a matching token wins.
// Keywords are stored already folded (lower case, no accents).
var categoryRules = []categoryRule{
	newRule(domain.CategoryFrozenFoods,
		"surgeles", "surgele", "surgelee", "surgelees", "congeles", "congele",
		"frozen", "glaces", "glace", "sorbets",
	),
	newRule(domain.CategoryBeverages,
		"boissons", "boisson", "beverages", "beverage", "drinks", "drink",
		"sodas", "soda", "jus", "juices", "juice", "nectars", "eaux", "eau",
		"waters", "water", "sirops", "limonades", "cafes", "coffees", "coffee",
		"thes", "teas", "tisanes", "bieres", "beers", "vins", "wines",
	),
	newRule(domain.CategoryBreakfastCereals,
		"cereales", "cereale", "cereals", "cereal", "mueslis", "muesli",
		"granola", "granolas", "flocons", "breakfasts", "breakfast",
	),
	newRule(domain.CategoryDairy,
		"laitiers", "laitier", "laitieres", "lait", "laits", "dairies", "dairy",
		"milks", "milk", "fromages", "fromage", "cheeses", "cheese",
		"yaourts", "yaourt", "yogourts", "yogurts", "yogurt", "beurres", "beurre", "butter",
	),
	newRule(domain.CategoryBreadBakery,
		"pains", "pain", "breads", "bread", "viennoiseries", "viennoiserie",
		"boulangerie", "brioches", "brioche", "biscottes", "baguettes",
	),
	newRule(domain.CategorySnacks,
		"snacks", "snack", "biscuits", "biscuit", "chips", "crisps",
		"gateaux", "gateau", "confiseries", "chocolats", "chocolat", "chocolates",
		"chocolate", "bonbons", "aperitif", "aperitifs", "crackers", "cookies",
		"sweets", "candies",
	),
	newRule(domain.CategoryFishSeafood,
		"poissons", "poisson", "fishes", "fish", "seafood", "seafoods", "mer",
		"thons", "thon", "saumons", "saumon", "sardines", "crustaces", "tuna", "salmon",
	),
	newRule(domain.CategoryMeat,
		"viandes", "viande", "meats", "meat", "charcuteries", "charcuterie",
		"jambons", "jambon", "volailles", "volaille", "poulets", "poulet",
		"boeuf", "porc", "saucisses", "saucissons", "chicken", "beef", "pork", "ham",
	),
	newRule(domain.CategoryFruits,
		"fruits", "fruit", "compotes", "compote", "bananes", "fraises", "abricots",
	),
	newRule(domain.CategoryVegetables,
		"legumes", "legume", "vegetables", "vegetable", "legumineuses",
		"salades", "carottes", "tomates", "haricots",
	),
}

// ClassifyCategory maps a free-text category list onto the fixed taxonomy.
// Matching is case- and accent-insensitive; an empty or unmatched input
// returns CategoryUnclassified.
func ClassifyCategory(categoriesText string) domain.CategoryGroup {
	tokens := Tokenize(categoriesText)
	if len(tokens) == 0 {
		return domain.CategoryUnclassified
	}

	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}

	for _, rule := range categoryRules {
		for token := range present {
			if rule.keywords[token] {
				return rule.group
			}
		}
	}
	return domain.CategoryUnclassified
}

// categoryText picks the classifier input of a raw product: the free-text
// list, or the tag list when the text is empty.
func categoryText(raw *domain.RawProduct) string {
	if strings.TrimSpace(raw.Categories) != "" {
		return raw.Categories
	}
	return strings.Join(raw.CategoryTags, ",")
}
