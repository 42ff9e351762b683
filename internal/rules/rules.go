package rules

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// PIIRule is one compiled detection pattern. Matching is always
// case-insensitive regardless of how the pattern was written.
type PIIRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Set holds the compiled rule sets the guardrail evaluator runs against.
// A Set is immutable after Load and safe for concurrent use.
type Set struct {
	PII            []PIIRule
	InjectionTerms []string
}

type piiFile struct {
	Patterns []struct {
		Name  string `yaml:"name"`
		Regex string `yaml:"regex"`
	} `yaml:"patterns"`
}

type injectionFile struct {
	DenyIfContains []string `yaml:"deny_if_contains"`
}

// Load reads and compiles both rule files. A missing file falls back to
// the built-in defaults; a present but malformed file is a hard error so
// the process never serves requests with a partial rule set.
func Load(piiPath, injectionPath string) (*Set, error) {
	set := &Set{}

	pii, err := loadPII(piiPath)
	if err != nil {
		return nil, err
	}
	set.PII = pii

	terms, err := loadInjectionTerms(injectionPath)
	if err != nil {
		return nil, err
	}
	set.InjectionTerms = terms

	return set, nil
}

func loadPII(path string) ([]PIIRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPIIRules(), nil
		}
		return nil, fmt.Errorf("failed to read PII rules %s: %w", path, err)
	}

	var file piiFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse PII rules %s: %w", path, err)
	}

	return compilePII(file)
}

func compilePII(file piiFile) ([]PIIRule, error) {
	rules := make([]PIIRule, 0, len(file.Patterns))
	for _, p := range file.Patterns {
		if p.Name == "" {
			return nil, fmt.Errorf("PII rule with empty name (regex %q)", p.Regex)
		}
		rx, err := regexp.Compile("(?i)" + p.Regex)
		if err != nil {
			return nil, fmt.Errorf("PII rule %s: invalid regex: %w", p.Name, err)
		}
		rules = append(rules, PIIRule{Name: p.Name, Pattern: rx})
	}
	return rules, nil
}

func loadInjectionTerms(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultInjectionTerms(), nil
		}
		return nil, fmt.Errorf("failed to read injection rules %s: %w", path, err)
	}

	var file injectionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse injection rules %s: %w", path, err)
	}

	terms := make([]string, 0, len(file.DenyIfContains))
	for _, t := range file.DenyIfContains {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" {
			return nil, fmt.Errorf("injection rules %s: empty trigger term", path)
		}
		terms = append(terms, t)
	}
	return terms, nil
}

// FromConfig builds a Set directly from already-parsed rule definitions.
// Used by tests and by callers that manage rule files themselves.
func FromConfig(pii map[string]string, order []string, terms []string) (*Set, error) {
	file := piiFile{}
	for _, name := range order {
		file.Patterns = append(file.Patterns, struct {
			Name  string `yaml:"name"`
			Regex string `yaml:"regex"`
		}{Name: name, Regex: pii[name]})
	}

	compiled, err := compilePII(file)
	if err != nil {
		return nil, err
	}

	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}

	return &Set{PII: compiled, InjectionTerms: lowered}, nil
}
