package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/manmeet-sys/vakil-gpt-sub002/internal/store"
	"github.com/manmeet-sys/vakil-gpt-sub002/pkg/riskengine"
)

// LitigationWorker predicts case outcomes with the litigation risk engine.
type LitigationWorker struct {
	engine *riskengine.Engine
	deps   Deps
}

func NewLitigationWorker(engine *riskengine.Engine, deps Deps) *LitigationWorker {
	return &LitigationWorker{engine: engine, deps: deps}
}

func (w *LitigationWorker) GetTools() []ToolDef {
	return []ToolDef{
		{Name: "predict", Description: "Assess the risk factors in a case description and estimate the likelihood of a favorable outcome"},
		{Name: "catalog", Description: "Describe the litigation risk categories, factors and severities"},
	}
}

func (w *LitigationWorker) Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error) {
	switch name {
	case "litigation_predict", "predict":
		return w.predict(ctx, input)
	case "litigation_catalog", "catalog":
		return json.Marshal(describeCatalog(w.engine))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

type predictResponse struct {
	AssessmentID string `json:"assessment_id,omitempty"`
	*riskengine.Prediction
}

func (w *LitigationWorker) predict(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		Facts        string `json:"facts"`
		CaseType     string `json:"case_type"`
		Jurisdiction string `json:"jurisdiction" validate:"max=100"`
		Title        string `json:"title" validate:"max=200"`
		Save         bool   `json:"save"`
	}
	if err := decodeRequest(input, &req); err != nil {
		return nil, err
	}

	p, err := riskengine.Predict(w.engine, riskengine.Input{
		Text: req.Facts,
		Metadata: riskengine.Metadata{
			CaseType:     riskengine.CaseType(req.CaseType),
			Jurisdiction: req.Jurisdiction,
		},
	})
	if err != nil {
		return nil, err
	}
	w.deps.Metrics.ObserveAssessment(w.engine.Name(), string(p.Assessment.RiskBand))

	resp := predictResponse{Prediction: p}
	if req.Save {
		id, err := saveAssessment(ctx, w.deps.Store, store.KindLitigation, req.Title, req.CaseType, p.Assessment, p)
		if err != nil {
			return nil, err
		}
		resp.AssessmentID = id
		w.deps.logger().Debug("litigation prediction saved",
			zap.String("id", id), zap.Int("success_likelihood", p.SuccessLikelihood))
	}
	return json.Marshal(resp)
}
