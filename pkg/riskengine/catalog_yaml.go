package riskengine

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk form of a keyword catalog.
//
//	categories:
//	  - id: liability
//	    name: Liability & Indemnification
//	    factors:
//	      - id: liability-unlimited
//	        description: Liability is expressly unlimited
//	        severity: high
//	        when: present        # present (default) | absent
//	        phrases: ["unlimited liability"]
//	      - id: liability-pattern
//	        severity: medium
//	        pattern: 'indemnif\w+ .{0,40} any and all'
type catalogFile struct {
	Categories []categoryFile `yaml:"categories"`
}

type categoryFile struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Factors     []factorFile `yaml:"factors"`
}

type factorFile struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Severity    string   `yaml:"severity"`
	When        string   `yaml:"when"`
	Phrases     []string `yaml:"phrases"`
	Pattern     string   `yaml:"pattern"`
}

// LoadCatalog reads a YAML keyword catalog. Every factor gets its own
// predicate built from its phrases or pattern. Malformed entries are reported
// as *CatalogValidationError.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, &CatalogValidationError{Reason: "catalog is empty"}
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, &CatalogValidationError{Reason: "catalog has no categories"}
	}

	categories := make([]RiskCategory, 0, len(file.Categories))
	for _, cf := range file.Categories {
		cat := RiskCategory{
			ID:          CategoryID(cf.ID),
			Name:        cf.Name,
			Description: cf.Description,
			Factors:     make([]RiskFactor, 0, len(cf.Factors)),
		}
		for _, ff := range cf.Factors {
			pred, err := ff.predicate()
			if err != nil {
				return nil, &CatalogValidationError{Category: cf.ID, Factor: ff.ID, Reason: err.Error()}
			}
			cat.Factors = append(cat.Factors, RiskFactor{
				ID:          ff.ID,
				Description: ff.Description,
				Severity:    Severity(ff.Severity),
				Detect:      pred,
			})
		}
		categories = append(categories, cat)
	}
	return NewCatalog(categories)
}

// LoadCatalogFile opens path and loads it with LoadCatalog.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

func (ff factorFile) predicate() (Predicate, error) {
	if ff.Pattern != "" {
		if len(ff.Phrases) > 0 {
			return nil, fmt.Errorf("phrases and pattern are mutually exclusive")
		}
		if ff.When != "" && ff.When != "present" {
			return nil, fmt.Errorf("pattern factors only support when: present")
		}
		return MatchesPattern(ff.Pattern)
	}
	if len(ff.Phrases) == 0 {
		return nil, fmt.Errorf("factor needs phrases or a pattern")
	}
	switch ff.When {
	case "", "present":
		return ContainsAny(ff.Phrases...), nil
	case "absent":
		return MissingAll(ff.Phrases...), nil
	default:
		return nil, fmt.Errorf("unknown condition %q", ff.When)
	}
}
