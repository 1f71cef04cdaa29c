package riskengine

import "fmt"

// CaseType is the kind of dispute submitted to the litigation predictor.
type CaseType string

const (
	CaseCivil        CaseType = "civil"
	CaseCriminal     CaseType = "criminal"
	CaseCommercial   CaseType = "commercial"
	CaseEmployment   CaseType = "employment"
	CaseFamily       CaseType = "family"
	CaseProperty     CaseType = "property"
	CaseIntellectual CaseType = "intellectual_property"
	CaseOther        CaseType = "other"
)

// CaseTypes lists every known case type.
var CaseTypes = []CaseType{
	CaseCivil, CaseCriminal, CaseCommercial, CaseEmployment,
	CaseFamily, CaseProperty, CaseIntellectual, CaseOther,
}

// Valid reports whether t is a known case type.
func (t CaseType) Valid() bool {
	for _, k := range CaseTypes {
		if t == k {
			return true
		}
	}
	return false
}

// LitigationMaxPossibleScore is the assumed worst-case total for the
// litigation catalog. Like MaxPossibleScore it is fixed by hand.
const LitigationMaxPossibleScore = 100

// Litigation catalog categories.
const (
	CategoryEvidence   CategoryID = "evidence"
	CategoryPrecedent  CategoryID = "precedent"
	CategoryProcedure  CategoryID = "procedure"
	CategoryOpposition CategoryID = "opposition"
)

// DefaultLitigationCatalog returns the built-in litigation taxonomy.
func DefaultLitigationCatalog() *Catalog {
	return MustCatalog([]RiskCategory{
		{
			ID:          CategoryEvidence,
			Name:        "Evidence Strength",
			Description: "Quality and availability of proof",
			Factors: []RiskFactor{
				{ID: "evidence-insufficient", Description: "Little or no direct evidence", Severity: SeverityHigh,
					Detect: ContainsAny("no witnesses", "no eyewitness", "lack of evidence", "insufficient evidence")},
				{ID: "evidence-hearsay", Description: "Reliance on hearsay or circumstantial evidence", Severity: SeverityMedium,
					Detect: ContainsAny("hearsay", "circumstantial")},
				{ID: "evidence-undocumented", Description: "No documentary evidence mentioned", Severity: SeverityMedium,
					Detect: MissingAll("document", "record", "receipt", "email", "written")},
				{ID: "evidence-credibility", Description: "Witness credibility concerns", Severity: SeverityMedium,
					Detect: ContainsAny("inconsistent statement", "credibility", "contradict")},
			},
		},
		{
			ID:          CategoryPrecedent,
			Name:        "Legal Precedent",
			Description: "How courts have treated similar claims",
			Factors: []RiskFactor{
				{ID: "precedent-adverse", Description: "Adverse precedent on similar facts", Severity: SeverityHigh,
					Detect: ContainsAny("adverse precedent", "courts have ruled against", "ruled against similar")},
				{ID: "precedent-novel", Description: "Novel or untested legal question", Severity: SeverityMedium,
					Detect: ContainsAny("first impression", "novel legal", "untested")},
				{ID: "precedent-split", Description: "Conflicting decisions between courts", Severity: SeverityLow,
					Detect: ContainsAny("split among", "circuit split", "conflicting decisions")},
			},
		},
		{
			ID:          CategoryProcedure,
			Name:        "Procedural Posture",
			Description: "Timeliness, forum and procedural obstacles",
			Factors: []RiskFactor{
				{ID: "procedure-limitation", Description: "Limitation period may have run", Severity: SeverityHigh,
					Detect: ContainsAny("statute of limitations", "time-barred", "limitation period has")},
				{ID: "procedure-jurisdiction", Description: "Jurisdiction or venue is contested", Severity: SeverityMedium,
					Detect: ContainsAny("lack of jurisdiction", "jurisdictional challenge", "improper venue")},
				{ID: "procedure-delay", Description: "Expected delays or court backlog", Severity: SeverityLow,
					Detect: ContainsAny("delay", "adjourn", "backlog")},
			},
		},
		{
			ID:          CategoryOpposition,
			Name:        "Opposing Party",
			Description: "Strength and posture of the other side",
			Factors: []RiskFactor{
				{ID: "opposition-admission", Description: "Damaging admission on record", Severity: SeverityHigh,
					Detect: ContainsAny("admitted", "confession", "admission of liability")},
				{ID: "opposition-resources", Description: "Well-resourced opponent", Severity: SeverityMedium,
					Detect: ContainsAny("corporation", "government", "multinational", "state agency")},
				{ID: "opposition-counterclaim", Description: "Counterclaim or cross-claim pending", Severity: SeverityMedium,
					Detect: ContainsAny("counterclaim", "cross-claim")},
				{ID: "opposition-prior-record", Description: "Prior conviction on record", Severity: SeverityHigh,
					Detect: onlyForCases(ContainsAny("prior conviction", "criminal record"), CaseCriminal)},
				{ID: "opposition-settlement-refused", Description: "Settlement was refused", Severity: SeverityLow,
					Detect: ContainsAny("rejected settlement", "refused to settle")},
			},
		},
	})
}

func onlyForCases(p Predicate, types ...CaseType) Predicate {
	allowed := make(map[CaseType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return func(text string, meta Metadata) (bool, string) {
		if !allowed[meta.CaseType] {
			return false, ""
		}
		return p(text, meta)
	}
}

// Litigation advisories.
const (
	AdviceSettlement = "The case carries significant litigation risk; evaluate settlement or alternative dispute resolution."
	AdviceEvidence   = "Strengthen the evidentiary record with documents, witness statements and expert support."
	AdviceProcedure  = "Confirm limitation periods, jurisdiction and venue before filing."
	AdvicePrecedent  = "Research adverse and conflicting authority and prepare distinguishing arguments."
	AdviceFavorable  = "The case presents a favorable risk profile based on the facts provided."
	AdviceIndicative = "Outcome predictions are indicative only and do not replace advice from counsel."
)

// LitigationRules returns the litigation recommendation rules in output order.
func LitigationRules() []Rule {
	return []Rule{
		{ID: "settlement", Applies: OverallAbove(50), Advice: AdviceSettlement},
		{ID: "evidence", Applies: CategoryAbove(CategoryEvidence, 10), Advice: AdviceEvidence},
		{ID: "procedure", Applies: CategoryAbove(CategoryProcedure, 10), Advice: AdviceProcedure},
		{ID: "precedent", Applies: CategoryAbove(CategoryPrecedent, 10), Advice: AdvicePrecedent},
		{ID: "favorable", Applies: OverallBetween(0, 30), Advice: AdviceFavorable},
		{ID: "indicative", Applies: Always(), Advice: AdviceIndicative},
	}
}

// CheckLitigationMetadata requires a known case type.
func CheckLitigationMetadata(meta Metadata) error {
	if meta.CaseType == "" {
		return &ValidationError{Field: "caseType", Reason: "is required"}
	}
	if !meta.CaseType.Valid() {
		return &ValidationError{Field: "caseType", Reason: fmt.Sprintf("unknown case type %q", meta.CaseType)}
	}
	return nil
}

// NewLitigationEngine returns the Litigation Outcome Predictor engine.
func NewLitigationEngine() (*Engine, error) {
	return NewEngine("litigation", DefaultLitigationCatalog(), LitigationRules(), LitigationMaxPossibleScore,
		WithMetadataCheck(CheckLitigationMetadata))
}

// Prediction is a litigation assessment with the complementary likelihood of
// a favorable outcome.
type Prediction struct {
	Assessment        *OverallAssessment `json:"assessment"`
	SuccessLikelihood int                `json:"successLikelihood"`
}

// Predict runs e and derives the success likelihood as 100 - overall score.
func Predict(e *Engine, in Input) (*Prediction, error) {
	a, err := e.Run(in)
	if err != nil {
		return nil, err
	}
	return &Prediction{Assessment: a, SuccessLikelihood: 100 - a.OverallScore}, nil
}
