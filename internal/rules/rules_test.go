package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFromFiles(t *testing.T) {
	piiPath := writeFile(t, "pii_patterns.yaml", `
patterns:
  - name: SSN
    regex: '\d{3}-\d{2}-\d{4}'
  - name: EMAIL
    regex: '[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}'
`)
	injPath := writeFile(t, "prompt_injection_rules.yaml", `
deny_if_contains:
  - "Ignore Previous Instructions"
  - "system prompt"
`)

	set, err := Load(piiPath, injPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(set.PII) != 2 {
		t.Fatalf("loaded %d PII rules, want 2", len(set.PII))
	}
	if set.PII[0].Name != "SSN" || set.PII[1].Name != "EMAIL" {
		t.Errorf("rule order not preserved: %s, %s", set.PII[0].Name, set.PII[1].Name)
	}
	if !set.PII[0].Pattern.MatchString("123-45-6789") {
		t.Error("SSN pattern does not match 123-45-6789")
	}
	if !set.PII[1].Pattern.MatchString("BOB@EXAMPLE.COM") {
		t.Error("EMAIL pattern is not case-insensitive")
	}

	want := []string{"ignore previous instructions", "system prompt"}
	for i, term := range want {
		if set.InjectionTerms[i] != term {
			t.Errorf("term[%d] = %q, want %q", i, set.InjectionTerms[i], term)
		}
	}
}

func TestLoadFailsFast(t *testing.T) {
	tests := []struct {
		name    string
		pii     string
		inj     string
	}{
		{
			name: "invalid regex",
			pii:  "patterns:\n  - name: BAD\n    regex: '['\n",
			inj:  "deny_if_contains: []\n",
		},
		{
			name: "unnamed rule",
			pii:  "patterns:\n  - regex: 'x'\n",
			inj:  "deny_if_contains: []\n",
		},
		{
			name: "malformed yaml",
			pii:  "patterns: [\n",
			inj:  "deny_if_contains: []\n",
		},
		{
			name: "empty trigger term",
			pii:  "patterns: []\n",
			inj:  "deny_if_contains:\n  - \"  \"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			piiPath := writeFile(t, "pii.yaml", tt.pii)
			injPath := writeFile(t, "inj.yaml", tt.inj)
			if _, err := Load(piiPath, injPath); err == nil {
				t.Error("Load succeeded on malformed rule set")
			}
		})
	}
}

func TestLoadMissingFilesUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	set, err := Load(filepath.Join(dir, "absent_pii.yaml"), filepath.Join(dir, "absent_inj.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(set.PII) == 0 {
		t.Error("default PII rules are empty")
	}
	if len(set.InjectionTerms) == 0 {
		t.Error("default injection terms are empty")
	}
	for _, term := range set.InjectionTerms {
		if term != strings.ToLower(term) {
			t.Errorf("default term %q is not lowercase", term)
		}
	}
}
