package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/manmeet-sys/vakil-gpt-sub002/internal/metrics"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/store"
	"github.com/manmeet-sys/vakil-gpt-sub002/pkg/riskengine"
)

type ToolDef struct {
	Name        string
	Description string
}

// Worker is a named group of tools exposed over MCP and HTTP.
type Worker interface {
	GetTools() []ToolDef
	Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error)
}

// ErrUnknownTool is returned by Execute for names the worker does not serve.
var ErrUnknownTool = errors.New("unknown tool")

var errNoStore = errors.New("assessment storage is not configured")

// Deps are the shared collaborators handed to every worker. Store and
// Metrics are optional.
type Deps struct {
	Store   *store.Store
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

var requestValidate = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// decodeRequest unmarshals a tool input into dst and checks its validate
// tags. Every failure is reported as a *riskengine.ValidationError so callers
// map bad requests and bad engine input the same way.
func decodeRequest(input json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(input)) == 0 {
		input = json.RawMessage("{}")
	}
	if err := json.Unmarshal(input, dst); err != nil {
		return &riskengine.ValidationError{Field: "input", Reason: fmt.Sprintf("malformed request: %v", err)}
	}
	if err := requestValidate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &riskengine.ValidationError{Field: fieldPath(fe.Namespace()), Reason: describeTag(fe)}
		}
		return err
	}
	return nil
}

// fieldPath drops the struct name validator puts in front of the namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "nefield":
		return fmt.Sprintf("must differ from %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// catalogView is the JSON shape returned by the catalog tools.
type catalogView struct {
	Engine           string         `json:"engine"`
	MaxPossibleScore int            `json:"maxPossibleScore"`
	CatalogMaxScore  int            `json:"catalogMaxScore"`
	Categories       []categoryView `json:"categories"`
}

type categoryView struct {
	ID          riskengine.CategoryID `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	MaxScore    int                   `json:"maxScore"`
	Factors     []factorView          `json:"factors"`
}

type factorView struct {
	ID          string              `json:"id"`
	Description string              `json:"description"`
	Severity    riskengine.Severity `json:"severity"`
	Weight      int                 `json:"weight"`
}

func describeCatalog(e *riskengine.Engine) catalogView {
	c := e.Catalog()
	view := catalogView{
		Engine:           e.Name(),
		MaxPossibleScore: e.MaxPossibleScore(),
		CatalogMaxScore:  c.MaxScore(),
	}
	for _, cat := range c.Categories() {
		cv := categoryView{
			ID:          cat.ID,
			Name:        cat.Name,
			Description: cat.Description,
			MaxScore:    cat.MaxScore(),
		}
		for _, f := range cat.Factors {
			cv.Factors = append(cv.Factors, factorView{
				ID:          f.ID,
				Description: f.Description,
				Severity:    f.Severity,
				Weight:      f.Severity.Weight(),
			})
		}
		view.Categories = append(view.Categories, cv)
	}
	return view
}

// saveAssessment stores payload and returns the new record ID.
func saveAssessment(ctx context.Context, st *store.Store, kind, title, subject string, a *riskengine.OverallAssessment, payload any) (string, error) {
	if st == nil {
		return "", errNoStore
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	rec := &store.Record{
		Kind:         kind,
		Title:        title,
		Subject:      subject,
		OverallScore: a.OverallScore,
		RiskBand:     string(a.RiskBand),
		Payload:      raw,
	}
	if err := st.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("save assessment: %w", err)
	}
	return rec.ID, nil
}
