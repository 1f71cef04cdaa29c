package riskengine

// DetectionResult is the outcome of one factor predicate.
type DetectionResult struct {
	FactorID string `json:"factorId"`
	Detected bool   `json:"detected"`
	Remark   string `json:"remark,omitempty"`
}

// Detect evaluates every factor of every category, in catalog order.
func Detect(catalog *Catalog, text string, meta Metadata) []DetectionResult {
	results := make([]DetectionResult, 0, catalog.FactorCount())
	for _, cat := range catalog.categories {
		for _, f := range cat.Factors {
			results = append(results, detectFactor(f, text, meta))
		}
	}
	return results
}

// detectFactor runs a single predicate. A panicking predicate counts as
// undecided, which is reported as not detected.
func detectFactor(f RiskFactor, text string, meta Metadata) (res DetectionResult) {
	res.FactorID = f.ID
	defer func() {
		if recover() != nil {
			res = DetectionResult{FactorID: f.ID}
		}
	}()

	detected, remark := f.Detect(text, meta)
	res.Detected = detected
	if detected {
		res.Remark = remark
	}
	return res
}
