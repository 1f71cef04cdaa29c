package riskengine

import (
	"fmt"
	"regexp"
	"strings"
)

// Predicate decides whether a factor is present. It may only read its
// arguments, must not perform I/O and must not keep references to them. A
// predicate that cannot decide returns false. The remark is discarded when the
// factor is not detected.
type Predicate func(text string, meta Metadata) (detected bool, remark string)

// ContainsAny detects the factor when any phrase occurs in the text,
// case-insensitively. The remark names the first phrase found.
func ContainsAny(phrases ...string) Predicate {
	needles := lowered(phrases)
	return func(text string, _ Metadata) (bool, string) {
		lower := strings.ToLower(text)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true, fmt.Sprintf("found %q", n)
			}
		}
		return false, ""
	}
}

// ContainsAll detects the factor when every phrase occurs in the text.
func ContainsAll(phrases ...string) Predicate {
	needles := lowered(phrases)
	return func(text string, _ Metadata) (bool, string) {
		if len(needles) == 0 {
			return false, ""
		}
		lower := strings.ToLower(text)
		for _, n := range needles {
			if !strings.Contains(lower, n) {
				return false, ""
			}
		}
		return true, fmt.Sprintf("found %s", quoteJoin(needles))
	}
}

// MissingAll detects the factor when none of the phrases occur in the text.
// It flags gaps, such as a contract that never mentions data protection.
func MissingAll(phrases ...string) Predicate {
	needles := lowered(phrases)
	return func(text string, _ Metadata) (bool, string) {
		if len(needles) == 0 {
			return false, ""
		}
		lower := strings.ToLower(text)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return false, ""
			}
		}
		return true, fmt.Sprintf("no mention of %s", quoteJoin(needles))
	}
}

// ContainsWithout detects the factor when a trigger phrase occurs and none of
// the mitigating phrases do.
func ContainsWithout(triggers, mitigations []string) Predicate {
	present := ContainsAny(triggers...)
	absent := lowered(mitigations)
	return func(text string, meta Metadata) (bool, string) {
		ok, remark := present(text, meta)
		if !ok {
			return false, ""
		}
		lower := strings.ToLower(text)
		for _, m := range absent {
			if strings.Contains(lower, m) {
				return false, ""
			}
		}
		return true, remark
	}
}

// MatchesPattern detects the factor when the regular expression matches. The
// expression is compiled once, when the predicate is built.
func MatchesPattern(expr string) (Predicate, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return func(text string, _ Metadata) (bool, string) {
		m := re.FindString(text)
		if m == "" {
			return false, ""
		}
		return true, fmt.Sprintf("matched %q", m)
	}, nil
}

// MustMatchPattern is MatchesPattern for built-in expressions.
func MustMatchPattern(expr string) Predicate {
	p, err := MatchesPattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// OnlyFor restricts a predicate to the given contract types.
func OnlyFor(p Predicate, types ...ContractType) Predicate {
	allowed := make(map[ContractType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return func(text string, meta Metadata) (bool, string) {
		if !allowed[meta.ContractType] {
			return false, ""
		}
		return p(text, meta)
	}
}

func lowered(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func quoteJoin(phrases []string) string {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return strings.Join(quoted, ", ")
}
