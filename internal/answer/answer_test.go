package answer

import (
	"strings"
	"testing"

	"github.com/govkb/govkb/internal/retrieval"
)

func TestSynthesize(t *testing.T) {
	hits := []retrieval.Hit{
		{Text: "MFA required for privileged access.", Framework: "SOC2", ControlID: "CC6.6", Score: 0.9},
		{Text: "Quarterly access reviews.", PolicyID: "AC-2", Score: 0.6},
	}

	text, conf := Synthesize("which control covers MFA?", hits)

	for _, want := range []string{
		"[SOC2] CC6.6: MFA required for privileged access.",
		"[POL] AC-2: Quarterly access reviews.",
		"Citations: SOC2:CC6.6, POL:AC-2",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("answer missing %q:\n%s", want, text)
		}
	}

	if conf != 0.75 {
		t.Errorf("confidence = %v, want 0.75", conf)
	}
}

func TestSynthesizeConfidenceRounding(t *testing.T) {
	hits := []retrieval.Hit{
		{Text: "a", ControlID: "C1", Score: 0.9001},
		{Text: "b", ControlID: "C2", Score: 0.5064},
	}

	_, conf := Synthesize("q", hits)
	if conf != 0.703 {
		t.Errorf("confidence = %v, want 0.703", conf)
	}
}

func TestSynthesizeNoHits(t *testing.T) {
	text, conf := Synthesize("unknown topic", nil)
	if conf != 0 {
		t.Errorf("confidence = %v, want 0", conf)
	}
	if !strings.Contains(text, "No matching controls") {
		t.Errorf("unexpected empty-result answer: %q", text)
	}
}
