package riskengine

// CategoryScore is the aggregated result for one category.
//
// DetectedFactors carries one result per factor of the category, in catalog
// order, so callers can show what was checked as well as what fired.
type CategoryScore struct {
	CategoryID      CategoryID        `json:"categoryId"`
	CategoryName    string            `json:"categoryName"`
	Score           int               `json:"score"`
	Label           string            `json:"label"`
	DetectedFactors []DetectionResult `json:"detectedFactors"`
}

// Aggregate sums the severity weights of the category's detected factors.
// Detections for factors outside the category are ignored; factors without a
// detection count as not detected. No cap is applied.
func Aggregate(category RiskCategory, detections []DetectionResult) CategoryScore {
	byFactor := make(map[string]DetectionResult, len(detections))
	for _, d := range detections {
		byFactor[d.FactorID] = d
	}

	cs := CategoryScore{
		CategoryID:      category.ID,
		CategoryName:    category.Name,
		DetectedFactors: make([]DetectionResult, 0, len(category.Factors)),
	}
	for _, f := range category.Factors {
		d, ok := byFactor[f.ID]
		if !ok {
			d = DetectionResult{FactorID: f.ID}
		}
		if d.Detected {
			cs.Score += f.Severity.Weight()
		} else {
			d.Remark = ""
		}
		cs.DetectedFactors = append(cs.DetectedFactors, d)
	}
	cs.Label = CategoryLabel(cs.Score)
	return cs
}
