package riskengine

// ScoreIndex gives rules access to category scores by id.
type ScoreIndex map[CategoryID]int

// Rule is one conditional advisory. Rules are independent of each other and
// are evaluated against already-computed scores.
type Rule struct {
	ID      string
	Applies func(overall int, scores ScoreIndex) bool
	Advice  string
}

// Recommend returns the advice of every rule that applies, in rule order.
func Recommend(rules []Rule, overall int, categoryScores []CategoryScore) []string {
	idx := make(ScoreIndex, len(categoryScores))
	for _, cs := range categoryScores {
		idx[cs.CategoryID] = cs.Score
	}

	out := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.Applies == nil || r.Applies(overall, idx) {
			out = append(out, r.Advice)
		}
	}
	return out
}

// OverallAbove applies when the overall score exceeds threshold.
func OverallAbove(threshold int) func(int, ScoreIndex) bool {
	return func(overall int, _ ScoreIndex) bool { return overall > threshold }
}

// OverallBetween applies when low < overall < high.
func OverallBetween(low, high int) func(int, ScoreIndex) bool {
	return func(overall int, _ ScoreIndex) bool { return overall > low && overall < high }
}

// CategoryAbove applies when the category's score exceeds threshold. A
// category missing from the assessment never applies.
func CategoryAbove(id CategoryID, threshold int) func(int, ScoreIndex) bool {
	return func(_ int, scores ScoreIndex) bool {
		s, ok := scores[id]
		return ok && s > threshold
	}
}

// Always applies unconditionally.
func Always() func(int, ScoreIndex) bool {
	return func(int, ScoreIndex) bool { return true }
}
