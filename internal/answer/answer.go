// Package answer turns ranked retrieval hits into a grounded answer with
// a naive confidence score, or delegates to an LLM responder.
package answer

import (
	"fmt"
	"math"
	"strings"

	"github.com/govkb/govkb/internal/retrieval"
)

// Synthesize concatenates the retrieved controls into a grounded answer
// and returns the mean retrieval score, rounded to 3 decimals, as the
// confidence. Zero hits means empty grounding and confidence 0.
func Synthesize(query string, hits []retrieval.Hit) (string, float64) {
	if len(hits) == 0 {
		return fmt.Sprintf("No matching controls or policies found for %q.", query), 0
	}

	var contexts []string
	var citations []string
	var sum float64
	for _, h := range hits {
		framework := h.Framework
		if framework == "" {
			framework = "POL"
		}
		contexts = append(contexts, fmt.Sprintf("- [%s] %s: %s", framework, h.ID(), h.Text))
		citations = append(citations, fmt.Sprintf("%s:%s", framework, h.ID()))
		sum += h.Score
	}

	text := fmt.Sprintf(
		"Grounded answer for %q — relevant controls and policies:\n\n%s\n\nCitations: %s",
		query,
		strings.Join(contexts, "\n"),
		strings.Join(citations, ", "),
	)
	confidence := math.Round(sum/float64(len(hits))*1000) / 1000
	return text, confidence
}
