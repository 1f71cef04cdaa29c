package riskengine

import (
	"fmt"
	"strings"
)

// ContractType is the kind of agreement being analyzed.
type ContractType string

const (
	ContractNDA         ContractType = "nda"
	ContractEmployment  ContractType = "employment"
	ContractService     ContractType = "service"
	ContractConsulting  ContractType = "consulting"
	ContractLease       ContractType = "lease"
	ContractSales       ContractType = "sales"
	ContractPartnership ContractType = "partnership"
	ContractLicensing   ContractType = "licensing"
	ContractOther       ContractType = "other"
)

// ContractTypes lists every known contract type.
var ContractTypes = []ContractType{
	ContractNDA, ContractEmployment, ContractService, ContractConsulting, ContractLease,
	ContractSales, ContractPartnership, ContractLicensing, ContractOther,
}

// Valid reports whether t is a known contract type.
func (t ContractType) Valid() bool {
	for _, k := range ContractTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Contract catalog categories.
const (
	CategoryLiability       CategoryID = "liability"
	CategoryIP              CategoryID = "ip"
	CategoryTermination     CategoryID = "termination"
	CategoryPayment         CategoryID = "payment"
	CategoryConfidentiality CategoryID = "confidentiality"
	CategoryDispute         CategoryID = "dispute"
	CategoryCompliance      CategoryID = "compliance"
)

// DefaultContractCatalog returns the built-in contract taxonomy. Each call
// builds fresh predicates; callers normally create it once at startup.
func DefaultContractCatalog() *Catalog {
	return MustCatalog([]RiskCategory{
		{
			ID:          CategoryLiability,
			Name:        "Liability & Indemnification",
			Description: "Exposure to damages and obligations to cover the other party's losses",
			Factors: []RiskFactor{
				{ID: "liability-unlimited", Description: "Liability is expressly unlimited", Severity: SeverityHigh,
					Detect: ContainsAny("unlimited liability", "liability shall be unlimited", "without any limitation of liability")},
				{ID: "liability-broad-indemnity", Description: "Broad indemnify-and-hold-harmless obligation", Severity: SeverityHigh,
					Detect: ContainsAny("indemnify and hold harmless", "defend, indemnify", "indemnify, defend")},
				{ID: "liability-no-cap", Description: "No limitation of liability clause", Severity: SeverityMedium,
					Detect: MissingAll("limitation of liability", "liability cap", "aggregate liability", "shall not exceed")},
				{ID: "liability-consequential", Description: "Consequential or indirect damages are not excluded", Severity: SeverityMedium,
					Detect: ContainsWithout(
						[]string{"consequential damages", "indirect damages"},
						[]string{"in no event", "shall not be liable for any indirect", "excluding consequential"})},
				{ID: "liability-no-insurance", Description: "No insurance requirement", Severity: SeverityLow,
					Detect: MissingAll("insurance")},
			},
		},
		{
			ID:          CategoryIP,
			Name:        "Intellectual Property Rights",
			Description: "Ownership and licensing of work product and pre-existing IP",
			Factors: []RiskFactor{
				{ID: "ip-assign-all", Description: "All rights in work product are assigned away", Severity: SeverityHigh,
					Detect: ContainsAny("hereby assigns all", "assign all intellectual property", "all right, title and interest")},
				{ID: "ip-work-for-hire", Description: "Work-for-hire designation", Severity: SeverityMedium,
					Detect: ContainsAny("work made for hire", "work for hire")},
				{ID: "ip-perpetual-license", Description: "Perpetual and irrevocable license grant", Severity: SeverityMedium,
					Detect: ContainsAll("perpetual", "irrevocable")},
				{ID: "ip-ownership-silent", Description: "Agreement is silent on IP ownership", Severity: SeverityLow,
					Detect: MissingAll("intellectual property", "ownership")},
			},
		},
		{
			ID:          CategoryTermination,
			Name:        "Termination & Exit",
			Description: "How and when either party can end the agreement",
			Factors: []RiskFactor{
				{ID: "termination-at-will", Description: "Counterparty may terminate at will or for convenience", Severity: SeverityHigh,
					Detect: ContainsAny("terminate at any time", "terminate for convenience", "terminate this agreement for any reason")},
				{ID: "termination-no-notice", Description: "Termination without notice", Severity: SeverityMedium,
					Detect: ContainsAny("without notice", "without prior notice")},
				{ID: "termination-auto-renew", Description: "Automatic renewal", Severity: SeverityMedium,
					Detect: ContainsAny("automatically renew", "auto-renew", "automatic renewal")},
				{ID: "termination-no-cure", Description: "No cure period before termination for breach", Severity: SeverityLow,
					Detect: ContainsWithout(
						[]string{"terminat"},
						[]string{"cure period", "opportunity to cure", "days to cure", "remedy such breach"})},
				{ID: "termination-non-compete", Description: "Post-termination non-compete restriction", Severity: SeverityMedium,
					Detect: OnlyFor(ContainsAny("non-compete", "noncompete", "shall not compete"),
						ContractEmployment, ContractConsulting, ContractService, ContractPartnership)},
			},
		},
		{
			ID:          CategoryPayment,
			Name:        "Payment & Financial Terms",
			Description: "Fees, penalties and payment mechanics",
			Factors: []RiskFactor{
				{ID: "payment-penalties", Description: "Late fees, penalties or liquidated damages", Severity: SeverityMedium,
					Detect: ContainsAny("late fee", "penalty", "interest on overdue", "liquidated damages")},
				{ID: "payment-unilateral-pricing", Description: "Counterparty may change prices unilaterally", Severity: SeverityMedium,
					Detect: ContainsAny("may change the fees", "may increase the price", "adjust the fees at its discretion", "sole discretion to change")},
				{ID: "payment-upfront", Description: "Non-refundable or advance payment", Severity: SeverityLow,
					Detect: ContainsAny("payable in advance", "non-refundable", "upfront payment")},
				{ID: "payment-terms-missing", Description: "No payment terms or invoicing schedule", Severity: SeverityLow,
					Detect: MissingAll("payment terms", "invoice", "due within", "net 30")},
			},
		},
		{
			ID:          CategoryConfidentiality,
			Name:        "Confidentiality",
			Description: "Protection and handling of confidential information",
			Factors: []RiskFactor{
				{ID: "confidentiality-missing", Description: "No confidentiality obligations", Severity: SeverityHigh,
					Detect: MissingAll("confidential")},
				{ID: "confidentiality-perpetual", Description: "Confidentiality obligations never expire", Severity: SeverityMedium,
					Detect: ContainsAny("in perpetuity", "survive indefinitely")},
				{ID: "confidentiality-broad", Description: "Overly broad definition of confidential information", Severity: SeverityMedium,
					Detect: ContainsAny("all information disclosed", "any information whatsoever")},
				{ID: "confidentiality-no-return", Description: "No return or destruction obligation", Severity: SeverityLow,
					Detect: ContainsWithout(
						[]string{"confidential"},
						[]string{"return or destroy", "return all", "destroy all"})},
			},
		},
		{
			ID:          CategoryDispute,
			Name:        "Dispute Resolution",
			Description: "Forum, procedure and cost allocation for disputes",
			Factors: []RiskFactor{
				{ID: "dispute-missing", Description: "No dispute resolution mechanism", Severity: SeverityMedium,
					Detect: MissingAll("arbitration", "dispute resolution", "jurisdiction")},
				{ID: "dispute-jury-waiver", Description: "Waiver of jury trial", Severity: SeverityMedium,
					Detect: ContainsAny("waive trial by jury", "waiver of jury trial", "jury trial waiver")},
				{ID: "dispute-exclusive-forum", Description: "Exclusive forum chosen by the counterparty", Severity: SeverityMedium,
					Detect: ContainsAny("exclusive jurisdiction", "exclusive venue")},
				{ID: "dispute-class-waiver", Description: "Class action waiver", Severity: SeverityMedium,
					Detect: ContainsAny("class action waiver", "waive any right to participate in a class")},
				{ID: "dispute-fee-shifting", Description: "Attorneys' fees shift to the losing party", Severity: SeverityLow,
					Detect: ContainsAny("prevailing party shall be entitled", "attorneys' fees", "attorney's fees")},
			},
		},
		{
			ID:          CategoryCompliance,
			Name:        "Compliance & Regulatory",
			Description: "Data protection, governing law and regulatory obligations",
			Factors: []RiskFactor{
				{ID: "compliance-data-protection", Description: "No data protection or privacy provisions", Severity: SeverityHigh,
					Detect: MissingAll("data protection", "privacy")},
				{ID: "compliance-governing-law", Description: "No governing law clause", Severity: SeverityMedium,
					Detect: MissingAll("governing law", "governed by")},
				{ID: "compliance-applicable-law", Description: "No obligation to comply with applicable law", Severity: SeverityLow,
					Detect: MissingAll("applicable law", "applicable laws")},
				{ID: "compliance-counterparty-unnamed", Description: "Other party is not named in the text", Severity: SeverityLow,
					Detect: counterpartyNotNamed},
			},
		},
	})
}

// counterpartyNotNamed flags a contract whose text never mentions the other
// party supplied by the caller. Without a name it cannot decide.
func counterpartyNotNamed(text string, meta Metadata) (bool, string) {
	name := strings.TrimSpace(meta.OtherPartyName)
	if name == "" {
		return false, ""
	}
	if strings.Contains(strings.ToLower(text), strings.ToLower(name)) {
		return false, ""
	}
	return true, fmt.Sprintf("%q does not appear in the text", name)
}

// Contract advisories.
const (
	AdviceCounselReview   = "Have qualified legal counsel review this contract before signing."
	AdviceLiabilityCaps   = "Negotiate a cap on liability and narrow the indemnification obligations."
	AdviceIPReview        = "Review the intellectual property provisions to confirm ownership and license scope."
	AdviceTerminationTerm = "Negotiate mutual termination rights with reasonable notice and cure periods."
	AdviceAcceptable      = "The contract presents an acceptable risk profile; proceed with standard review."
	AdviceDocumentation   = "Keep signed copies of the contract and all amendments, and track key dates and obligations."
)

// ContractRules returns the contract recommendation rules in output order.
func ContractRules() []Rule {
	return []Rule{
		{ID: "counsel-review", Applies: OverallAbove(50), Advice: AdviceCounselReview},
		{ID: "liability-caps", Applies: CategoryAbove(CategoryLiability, 10), Advice: AdviceLiabilityCaps},
		{ID: "ip-review", Applies: CategoryAbove(CategoryIP, 10), Advice: AdviceIPReview},
		{ID: "termination-terms", Applies: CategoryAbove(CategoryTermination, 10), Advice: AdviceTerminationTerm},
		// Affirming a profile needs something to affirm; a run with no
		// detections only gets the documentation advisory.
		{ID: "acceptable-profile", Applies: OverallBetween(0, 30), Advice: AdviceAcceptable},
		{ID: "documentation", Applies: Always(), Advice: AdviceDocumentation},
	}
}

// CheckContractMetadata requires a known contract type.
func CheckContractMetadata(meta Metadata) error {
	if meta.ContractType == "" {
		return &ValidationError{Field: "contractType", Reason: "is required"}
	}
	if !meta.ContractType.Valid() {
		return &ValidationError{Field: "contractType", Reason: fmt.Sprintf("unknown contract type %q", meta.ContractType)}
	}
	return nil
}

// NewContractEngine returns the Contract Risk Analyzer over catalog. A nil
// catalog selects DefaultContractCatalog.
func NewContractEngine(catalog *Catalog) (*Engine, error) {
	if catalog == nil {
		catalog = DefaultContractCatalog()
	}
	return NewEngine("contract", catalog, ContractRules(), MaxPossibleScore,
		WithMetadataCheck(CheckContractMetadata))
}
