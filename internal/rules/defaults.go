package rules

import "regexp"

// DefaultPIIRules returns the built-in PII patterns used when no rule
// file is configured. Order matters: earlier rules win overlapping spans
// during redaction.
func DefaultPIIRules() []PIIRule {
	return []PIIRule{
		{
			Name:    "EMAIL",
			Pattern: regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`),
		},
		{
			Name:    "SSN",
			Pattern: regexp.MustCompile(`(?i)\d{3}-\d{2}-\d{4}`),
		},
		{
			Name:    "PHONE",
			Pattern: regexp.MustCompile(`(?i)\+?\d[\d\-\s]{7,}\d`),
		},
		{
			Name:    "AWS_ACCESS_KEY",
			Pattern: regexp.MustCompile(`(?i)AKIA[0-9A-Z]{16}`),
		},
		{
			Name:    "CREDIT_CARD",
			Pattern: regexp.MustCompile(`(?i)\b(?:\d[ -]?){13,16}\b`),
		},
	}
}

// DefaultInjectionTerms returns the built-in prompt-injection trigger
// terms, already lowercased, in evaluation order.
func DefaultInjectionTerms() []string {
	return []string{
		"ignore previous instructions",
		"ignore all previous instructions",
		"disregard the above",
		"system prompt",
		"you are now",
		"developer mode",
		"reveal your instructions",
		"jailbreak",
	}
}
