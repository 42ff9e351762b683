// Package guardrail applies the pre-processing checks every query goes
// through before it is retrieved against or logged: PII redaction and
// prompt-injection detection. All checks are pure functions of the input
// text and the compiled rule set.
package guardrail

import (
	"strings"

	"github.com/govkb/govkb/internal/rules"
)

// Finding records one PII match, captured before the text was masked.
type Finding struct {
	Type  string `json:"type"`
	Match string `json:"match"`
}

// Verdict is the result of scanning a text for injection triggers.
type Verdict struct {
	IsInjection bool     `json:"is_injection"`
	Triggers    []string `json:"triggers"`
}

// Evaluator runs redaction and injection detection against one immutable
// rule set. Safe for concurrent use; it holds no mutable state.
type Evaluator struct {
	set *rules.Set
}

func NewEvaluator(set *rules.Set) *Evaluator {
	return &Evaluator{set: set}
}

// Redact masks every PII match in text with a [REDACTED:<NAME>] placeholder
// and returns the findings in rule order, then left-to-right within a rule.
//
// Rules run sequentially: each rule sees the output of the previous one,
// so when two patterns could overlap the same span the earlier-ordered
// rule wins and the later rule only sees the placeholder. That also means
// a match hidden entirely inside an already-masked span is not reported.
func (e *Evaluator) Redact(text string) (string, []Finding) {
	masked := text
	findings := []Finding{}

	for _, rule := range e.set.PII {
		name := rule.Name
		masked = rule.Pattern.ReplaceAllStringFunc(masked, func(m string) string {
			findings = append(findings, Finding{Type: name, Match: m})
			return "[REDACTED:" + name + "]"
		})
	}

	return masked, findings
}

// DetectInjection reports which configured trigger terms occur in text.
// Matching is case-insensitive substring containment; triggers come back
// in rule-definition order, not first-occurrence order.
func (e *Evaluator) DetectInjection(text string) Verdict {
	lower := strings.ToLower(text)

	triggers := []string{}
	for _, term := range e.set.InjectionTerms {
		if strings.Contains(lower, term) {
			triggers = append(triggers, term)
		}
	}

	return Verdict{IsInjection: len(triggers) > 0, Triggers: triggers}
}

// Sanitize composes Redact then DetectInjection on the redacted output.
// Injection detection deliberately runs on masked text: the trade is a
// small chance of missing a phrase adjacent to redacted PII against
// never handing unredacted sensitive data to downstream consumers.
func (e *Evaluator) Sanitize(query string) (string, []Finding, Verdict) {
	redacted, findings := e.Redact(query)
	verdict := e.DetectInjection(redacted)
	return redacted, findings, verdict
}
