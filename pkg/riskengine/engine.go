package riskengine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Metadata carries the categorical inputs that accompany the text. Every field
// is informational for predicates and rules; which ones are required depends
// on the engine.
type Metadata struct {
	ContractType   ContractType `json:"contractType,omitempty"`
	OtherPartyName string       `json:"otherPartyName,omitempty"`
	CaseType       CaseType     `json:"caseType,omitempty"`
	Jurisdiction   string       `json:"jurisdiction,omitempty"`
}

// Input is a single engine invocation.
type Input struct {
	Text     string   `json:"text" validate:"nonblank"`
	Metadata Metadata `json:"metadata"`
}

// OverallAssessment is the engine's output. It is built fresh for every run
// and shares no memory with the catalog.
type OverallAssessment struct {
	CategoryScores  []CategoryScore `json:"categoryScores"`
	OverallScore    int             `json:"overallScore"`
	RiskBand        RiskBand        `json:"riskBand"`
	Recommendations []string        `json:"recommendations"`
}

// Score returns the score of a category, and whether the assessment has it.
func (a *OverallAssessment) Score(id CategoryID) (int, bool) {
	for _, cs := range a.CategoryScores {
		if cs.CategoryID == id {
			return cs.Score, true
		}
	}
	return 0, false
}

// ValidationError rejects an input before any detection runs. It is not
// retryable; the caller has to correct the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var inputValidate *validator.Validate

func init() {
	inputValidate = validator.New()
	inputValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = inputValidate.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Engine binds a catalog, its recommendation rules and the maximum score used
// for normalization. An Engine is immutable and safe for concurrent use.
type Engine struct {
	name        string
	catalog     *Catalog
	rules       []Rule
	maxPossible int
	checkMeta   func(Metadata) error
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMetadataCheck sets the validation applied to Input.Metadata. The check
// should return a *ValidationError for missing or unknown values.
func WithMetadataCheck(fn func(Metadata) error) Option {
	return func(e *Engine) { e.checkMeta = fn }
}

// NewEngine returns an engine over catalog. maxPossible is the assumed
// worst-case total that overall scores are expressed against.
func NewEngine(name string, catalog *Catalog, rules []Rule, maxPossible int, opts ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("riskengine: nil catalog")
	}
	if maxPossible <= 0 {
		return nil, fmt.Errorf("riskengine: max possible score must be positive, got %d", maxPossible)
	}
	e := &Engine{
		name:        name,
		catalog:     catalog,
		rules:       append([]Rule(nil), rules...),
		maxPossible: maxPossible,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Name identifies the engine, e.g. "contract".
func (e *Engine) Name() string { return e.name }

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// MaxPossibleScore returns the normalization constant of the engine.
func (e *Engine) MaxPossibleScore() int { return e.maxPossible }

// Run validates in, then detects, aggregates, scores and recommends. On a
// validation failure it returns a *ValidationError and no assessment.
func (e *Engine) Run(in Input) (*OverallAssessment, error) {
	if err := e.validate(in); err != nil {
		return nil, err
	}

	detections := Detect(e.catalog, in.Text, in.Metadata)

	scores := make([]CategoryScore, 0, len(e.catalog.categories))
	for _, cat := range e.catalog.categories {
		scores = append(scores, Aggregate(cat, detections))
	}

	overall, band := Score(scores, e.maxPossible)

	return &OverallAssessment{
		CategoryScores:  scores,
		OverallScore:    overall,
		RiskBand:        band,
		Recommendations: Recommend(e.rules, overall, scores),
	}, nil
}

func (e *Engine) validate(in Input) error {
	if err := inputValidate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{Field: verrs[0].Field(), Reason: "must not be empty"}
		}
		return &ValidationError{Field: "input", Reason: err.Error()}
	}
	if e.checkMeta != nil {
		return e.checkMeta(in.Metadata)
	}
	return nil
}
