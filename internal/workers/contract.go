package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/manmeet-sys/vakil-gpt-sub002/internal/config"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/store"
	"github.com/manmeet-sys/vakil-gpt-sub002/pkg/riskengine"
)

// ContractWorker scores contracts with the contract risk engine and manages
// saved assessments.
type ContractWorker struct {
	engine      *riskengine.Engine
	deps        Deps
	maxParallel int
	maxItems    int
}

func NewContractWorker(engine *riskengine.Engine, deps Deps, batch config.BatchConfig) *ContractWorker {
	w := &ContractWorker{
		engine:      engine,
		deps:        deps,
		maxParallel: batch.MaxParallel,
		maxItems:    batch.MaxItems,
	}
	if w.maxParallel <= 0 {
		w.maxParallel = 1
	}
	if w.maxItems <= 0 {
		w.maxItems = 50
	}
	return w
}

func (w *ContractWorker) GetTools() []ToolDef {
	return []ToolDef{
		{Name: "analyze", Description: "Score a contract's text for legal risk across liability, IP, termination, payment, confidentiality, dispute resolution and compliance"},
		{Name: "batch_analyze", Description: "Score several contracts concurrently; results keep input order"},
		{Name: "compare", Description: "Compare two saved contract assessments category by category"},
		{Name: "get", Description: "Get a saved assessment by ID"},
		{Name: "list", Description: "List saved assessments, newest first"},
		{Name: "delete", Description: "Delete a saved assessment"},
		{Name: "catalog", Description: "Describe the contract risk categories, factors and severities"},
	}
}

func (w *ContractWorker) Execute(ctx context.Context, name string, input json.RawMessage) ([]byte, error) {
	switch name {
	case "contract_analyze", "analyze":
		return w.analyze(ctx, input)
	case "contract_batch_analyze", "batch_analyze":
		return w.batchAnalyze(ctx, input)
	case "contract_compare", "compare":
		return w.compare(ctx, input)
	case "contract_get", "get":
		return w.get(ctx, input)
	case "contract_list", "list":
		return w.list(ctx, input)
	case "contract_delete", "delete":
		return w.delete(ctx, input)
	case "contract_catalog", "catalog":
		return json.Marshal(describeCatalog(w.engine))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

type analyzeRequest struct {
	Text           string `json:"text"`
	ContractType   string `json:"contract_type"`
	OtherPartyName string `json:"other_party_name" validate:"max=200"`
	Title          string `json:"title" validate:"max=200"`
	Save           bool   `json:"save"`
}

type analyzeResponse struct {
	AssessmentID string `json:"assessment_id,omitempty"`
	*riskengine.OverallAssessment
}

func (r analyzeRequest) input() riskengine.Input {
	return riskengine.Input{
		Text: r.Text,
		Metadata: riskengine.Metadata{
			ContractType:   riskengine.ContractType(r.ContractType),
			OtherPartyName: r.OtherPartyName,
		},
	}
}

// run scores one contract and saves it when asked.
func (w *ContractWorker) run(ctx context.Context, req analyzeRequest) (*analyzeResponse, error) {
	a, err := w.engine.Run(req.input())
	if err != nil {
		return nil, err
	}
	w.deps.Metrics.ObserveAssessment(w.engine.Name(), string(a.RiskBand))

	resp := &analyzeResponse{OverallAssessment: a}
	if req.Save {
		id, err := saveAssessment(ctx, w.deps.Store, store.KindContract, req.Title, req.ContractType, a, a)
		if err != nil {
			// the assessment is still returned so batch callers can report it
			return resp, err
		}
		resp.AssessmentID = id
		w.deps.logger().Debug("contract assessment saved",
			zap.String("id", id), zap.Int("overall", a.OverallScore), zap.String("band", string(a.RiskBand)))
	}
	return resp, nil
}

func (w *ContractWorker) analyze(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req analyzeRequest
	if err := decodeRequest(input, &req); err != nil {
		return nil, err
	}
	resp, err := w.run(ctx, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

type batchItem struct {
	Index        int                           `json:"index"`
	AssessmentID string                        `json:"assessment_id,omitempty"`
	Assessment   *riskengine.OverallAssessment `json:"assessment,omitempty"`
	Error        string                        `json:"error,omitempty"`
}

func (w *ContractWorker) batchAnalyze(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		Contracts []analyzeRequest `json:"contracts" validate:"required,min=1,dive"`
	}
	if err := decodeRequest(input, &req); err != nil {
		return nil, err
	}
	if len(req.Contracts) > w.maxItems {
		return nil, &riskengine.ValidationError{
			Field:  "contracts",
			Reason: fmt.Sprintf("must be at most %d", w.maxItems),
		}
	}

	results := make([]batchItem, len(req.Contracts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxParallel)
	for i, item := range req.Contracts {
		results[i].Index = i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Error = err.Error()
				return nil
			}
			// A failing item never aborts the batch: saved siblings must
			// still report their IDs.
			resp, err := w.run(gctx, item)
			if resp != nil {
				results[i].AssessmentID = resp.AssessmentID
				results[i].Assessment = resp.OverallAssessment
			}
			if err != nil {
				results[i].Error = err.Error()
				if !riskengine.IsValidationError(err) {
					w.deps.logger().Warn("batch item failed", zap.Int("index", i), zap.Error(err))
				}
			}
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		w.deps.logger().Warn("batch analysis had failed items",
			zap.Int("items", len(results)), zap.Int("failed", failed))
	}
	return json.Marshal(map[string]any{
		"results":   results,
		"succeeded": len(results) - failed,
		"failed":    failed,
	})
}

type categoryDelta struct {
	CategoryID   riskengine.CategoryID `json:"categoryId"`
	CategoryName string                `json:"categoryName"`
	Score1       int                   `json:"score1"`
	Score2       int                   `json:"score2"`
	Delta        int                   `json:"delta"`
}

func (w *ContractWorker) compare(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		ID1 string `json:"assessment_id_1" validate:"required"`
		ID2 string `json:"assessment_id_2" validate:"required,nefield=ID1"`
	}
	if err := decodeRequest(input, &req); err != nil {
		return nil, err
	}
	a1, err := w.loadContractAssessment(ctx, req.ID1)
	if err != nil {
		return nil, err
	}
	a2, err := w.loadContractAssessment(ctx, req.ID2)
	if err != nil {
		return nil, err
	}

	second := make(map[riskengine.CategoryID]riskengine.CategoryScore, len(a2.CategoryScores))
	for _, cs := range a2.CategoryScores {
		second[cs.CategoryID] = cs
	}
	var deltas []categoryDelta
	for _, cs := range a1.CategoryScores {
		other := second[cs.CategoryID]
		deltas = append(deltas, categoryDelta{
			CategoryID:   cs.CategoryID,
			CategoryName: cs.CategoryName,
			Score1:       cs.Score,
			Score2:       other.Score,
			Delta:        other.Score - cs.Score,
		})
		delete(second, cs.CategoryID)
	}
	// categories only the second assessment has, e.g. after a catalog change
	for _, cs := range a2.CategoryScores {
		if _, ok := second[cs.CategoryID]; ok {
			deltas = append(deltas, categoryDelta{
				CategoryID:   cs.CategoryID,
				CategoryName: cs.CategoryName,
				Score2:       cs.Score,
				Delta:        cs.Score,
			})
		}
	}

	return json.Marshal(map[string]any{
		"assessment_id_1": req.ID1,
		"assessment_id_2": req.ID2,
		"categories":      deltas,
		"overall_1":       a1.OverallScore,
		"overall_2":       a2.OverallScore,
		"overall_delta":   a2.OverallScore - a1.OverallScore,
		"band_1":          a1.RiskBand,
		"band_2":          a2.RiskBand,
	})
}

func (w *ContractWorker) loadContractAssessment(ctx context.Context, id string) (*riskengine.OverallAssessment, error) {
	if w.deps.Store == nil {
		return nil, errNoStore
	}
	rec, err := w.deps.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Kind != store.KindContract {
		return nil, &riskengine.ValidationError{Field: "assessment_id", Reason: fmt.Sprintf("%s is a %s assessment", id, rec.Kind)}
	}
	var a riskengine.OverallAssessment
	if err := json.Unmarshal(rec.Payload, &a); err != nil {
		return nil, fmt.Errorf("decode assessment %s: %w", id, err)
	}
	return &a, nil
}

func (w *ContractWorker) get(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		ID string `json:"assessment_id" validate:"required"`
	}
	if err := decodeRequest(input, &req); err != nil {
		return nil, err
	}
	if w.deps.Store == nil {
		return nil, errNoStore
	}
	rec, err := w.deps.Store.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

func (w *ContractWorker) list(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		Limit int    `json:"limit" validate:"omitempty,min=1,max=500"`
		Kind  string `json:"kind" validate:"omitempty,oneof=contract litigation"`
	}
	if err := decodeRequest(input, &req); err != nil {
		return nil, err
	}
	if w.deps.Store == nil {
		return nil, errNoStore
	}
	records, err := w.deps.Store.List(ctx, req.Kind, req.Limit)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Payload = nil
	}
	return json.Marshal(map[string]any{
		"assessments": records,
		"count":       len(records),
	})
}

func (w *ContractWorker) delete(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var req struct {
		ID string `json:"assessment_id" validate:"required"`
	}
	if err := decodeRequest(input, &req); err != nil {
		return nil, err
	}
	if w.deps.Store == nil {
		return nil, errNoStore
	}
	if err := w.deps.Store.Delete(ctx, req.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("delete assessment: %w", err)
	}
	return json.Marshal(map[string]any{"deleted": req.ID})
}
