package riskengine

import "fmt"

// CategoryID is the stable key of a risk category. Recommendation rules refer
// to categories through it so display names can change freely.
type CategoryID string

// RiskFactor is a single named risk condition.
type RiskFactor struct {
	ID          string
	Description string
	Severity    Severity
	Detect      Predicate
}

// RiskCategory groups related factors. Factor order only affects display.
type RiskCategory struct {
	ID          CategoryID
	Name        string
	Description string
	Factors     []RiskFactor
}

// MaxScore is the sum of the category's factor weights. It is informational;
// scoring never normalizes against it.
func (c RiskCategory) MaxScore() int {
	total := 0
	for _, f := range c.Factors {
		total += f.Severity.Weight()
	}
	return total
}

// CatalogValidationError reports a malformed catalog entry. It is raised while
// the catalog is built and is never recovered at runtime.
type CatalogValidationError struct {
	Category string
	Factor   string
	Reason   string
}

func (e *CatalogValidationError) Error() string {
	if e.Factor != "" {
		return fmt.Sprintf("invalid catalog: category %q factor %q: %s", e.Category, e.Factor, e.Reason)
	}
	return fmt.Sprintf("invalid catalog: category %q: %s", e.Category, e.Reason)
}

// Catalog is an immutable, validated taxonomy of categories and factors.
// A *Catalog is safe for concurrent use.
type Catalog struct {
	categories []RiskCategory
	byID       map[CategoryID]int
}

// NewCatalog validates the given categories and returns a catalog holding its
// own copy of them.
func NewCatalog(categories []RiskCategory) (*Catalog, error) {
	c := &Catalog{
		categories: make([]RiskCategory, 0, len(categories)),
		byID:       make(map[CategoryID]int, len(categories)),
	}
	factorIDs := make(map[string]CategoryID)

	for _, cat := range categories {
		if cat.ID == "" {
			return nil, &CatalogValidationError{Category: cat.Name, Reason: "missing category id"}
		}
		if _, dup := c.byID[cat.ID]; dup {
			return nil, &CatalogValidationError{Category: string(cat.ID), Reason: "duplicate category id"}
		}
		if len(cat.Factors) == 0 {
			return nil, &CatalogValidationError{Category: string(cat.ID), Reason: "category has no factors"}
		}
		for _, f := range cat.Factors {
			switch {
			case f.ID == "":
				return nil, &CatalogValidationError{Category: string(cat.ID), Reason: "factor without id"}
			case f.Severity == "":
				return nil, &CatalogValidationError{Category: string(cat.ID), Factor: f.ID, Reason: "missing severity"}
			case !f.Severity.Valid():
				return nil, &CatalogValidationError{Category: string(cat.ID), Factor: f.ID, Reason: fmt.Sprintf("unknown severity %q", f.Severity)}
			case f.Detect == nil:
				return nil, &CatalogValidationError{Category: string(cat.ID), Factor: f.ID, Reason: "missing predicate"}
			}
			if owner, dup := factorIDs[f.ID]; dup {
				return nil, &CatalogValidationError{Category: string(cat.ID), Factor: f.ID, Reason: fmt.Sprintf("factor id already used in category %q", owner)}
			}
			factorIDs[f.ID] = cat.ID
		}

		cp := cat
		cp.Factors = append([]RiskFactor(nil), cat.Factors...)
		c.byID[cat.ID] = len(c.categories)
		c.categories = append(c.categories, cp)
	}
	return c, nil
}

// MustCatalog is like NewCatalog but panics on an invalid catalog. It is meant
// for built-in catalogs initialized at startup.
func MustCatalog(categories []RiskCategory) *Catalog {
	c, err := NewCatalog(categories)
	if err != nil {
		panic(err)
	}
	return c
}

// Categories returns a copy of the catalog's categories in declaration order.
func (c *Catalog) Categories() []RiskCategory {
	out := make([]RiskCategory, len(c.categories))
	for i, cat := range c.categories {
		out[i] = cat
		out[i].Factors = append([]RiskFactor(nil), cat.Factors...)
	}
	return out
}

// Category looks a category up by id.
func (c *Catalog) Category(id CategoryID) (RiskCategory, bool) {
	i, ok := c.byID[id]
	if !ok {
		return RiskCategory{}, false
	}
	cat := c.categories[i]
	cat.Factors = append([]RiskFactor(nil), cat.Factors...)
	return cat, true
}

// FactorCount returns the number of factors across all categories.
func (c *Catalog) FactorCount() int {
	n := 0
	for _, cat := range c.categories {
		n += len(cat.Factors)
	}
	return n
}

// MaxScore is the sum of every category's MaxScore.
func (c *Catalog) MaxScore() int {
	total := 0
	for _, cat := range c.categories {
		total += cat.MaxScore()
	}
	return total
}
