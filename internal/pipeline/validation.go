package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ovoda/invoice-tracker/internal/store"
)

// CategoryValidator resolves model-suggested categories against the taxonomy.
type CategoryValidator struct {
	categories    map[string]string            // normalized category -> category ID of the bare category
	subcategories map[string]map[string]string // normalized category -> normalized subcategory -> category ID
}

// NewCategoryValidator creates a validator from the category taxonomy.
func NewCategoryValidator(rows []store.CategoryRow) *CategoryValidator {
	v := &CategoryValidator{
		categories:    make(map[string]string),
		subcategories: make(map[string]map[string]string),
	}

	for _, row := range rows {
		cat := normalizeCategory(row.CategoryName)
		if _, ok := v.categories[cat]; !ok {
			v.categories[cat] = ""
		}
		if row.SubcategoryName == "" {
			v.categories[cat] = row.CategoryID
			continue
		}
		if v.subcategories[cat] == nil {
			v.subcategories[cat] = make(map[string]string)
		}
		v.subcategories[cat][normalizeCategory(row.SubcategoryName)] = row.CategoryID
	}

	return v
}

// Resolve returns the category ID for the pair, or an error if the pair is
// not in the taxonomy. An empty subcategory needs a bare category row.
func (v *CategoryValidator) Resolve(category, subcategory string) (string, error) {
	normCat := normalizeCategory(category)
	normSubcat := normalizeCategory(subcategory)

	if _, ok := v.categories[normCat]; !ok {
		return "", fmt.Errorf("invalid category: %q (normalized: %q)", category, normCat)
	}

	if normSubcat == "" {
		if id := v.categories[normCat]; id != "" {
			return id, nil
		}
		return "", fmt.Errorf("category %q needs a subcategory", category)
	}

	subcats := v.subcategories[normCat]
	id, ok := subcats[normSubcat]
	if !ok {
		validSubs := make([]string, 0, len(subcats))
		for s := range subcats {
			validSubs = append(validSubs, s)
		}
		sort.Strings(validSubs)
		return "", fmt.Errorf("invalid subcategory %q for category %q. Valid subcategories: %v",
			subcategory, category, validSubs)
	}
	return id, nil
}

// normalizeCategory normalizes a category name for comparison.
// Converts to uppercase and trims whitespace for case-insensitive comparison.
func normalizeCategory(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
