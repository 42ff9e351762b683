package cli

import (
	"fmt"
	"strings"

	"github.com/govkb/govkb/internal/qa"
)

func printResult(res *qa.Result) {
	fmt.Println(res.Answer)
	fmt.Println()
	fmt.Printf("Confidence: %.3f\n", res.Confidence)

	if len(res.Findings) > 0 {
		types := make([]string, 0, len(res.Findings))
		for _, f := range res.Findings {
			types = append(types, f.Type)
		}
		fmt.Printf("PII redacted: %s\n", strings.Join(types, ", "))
	}
	if res.Verdict.IsInjection {
		fmt.Printf("⚠ Injection terms: %s\n", strings.Join(res.Verdict.Triggers, ", "))
	}
	if !res.Hidden.Clean {
		fmt.Printf("⚠ Hidden characters stripped: %d\n", len(res.Hidden.Threats))
	}
	if res.GovernanceReason != "" {
		fmt.Printf("⚠ Governance: %s\n", res.GovernanceReason)
	}
	if res.RetrievalError != "" {
		fmt.Printf("⚠ Retrieval unavailable: %s\n", res.RetrievalError)
	}

	if len(res.Evidence) > 0 {
		fmt.Println()
		fmt.Println("Evidence:")
		for _, ref := range res.Evidence {
			line := fmt.Sprintf("  %s: %s", ref.Control, ref.S3Key)
			if ref.URL != "" {
				line += "\n    " + ref.URL
			}
			fmt.Println(line)
		}
	}

	fmt.Println()
	fmt.Printf("Audit entry: %s (request %s)\n", res.EntryHash, res.RequestID)
}
