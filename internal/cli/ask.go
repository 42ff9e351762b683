package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/govkb/govkb/internal/approval"
	"github.com/govkb/govkb/internal/guardrail"
)

var (
	askModel string
	askForce bool
	askJSON  bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a compliance question through the guardrail pipeline",
	Long: `Ask a question against the indexed control corpus. The query is scanned
for hidden characters, redacted for PII and checked for prompt-injection
terms before retrieval. The full round trip is appended to the
hash-chained audit log.

Examples:
  govkb ask "What is our access review cadence under SOC 2?"
  govkb ask --model gpt-4o -- "Which controls cover encryption at rest?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: askCommand,
}

func init() {
	askCmd.Flags().StringVar(&askModel, "model", "", "Answer model (default: models.llm from config)")
	askCmd.Flags().BoolVar(&askForce, "force", false, "Skip the interactive approval prompt on flagged queries")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full result as JSON")
	rootCmd.AddCommand(askCmd)
}

func askCommand(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	a, err := loadApp()
	if err != nil {
		return err
	}

	// Pre-flight gate: a flagged query needs an explicit operator
	// decision before anything leaves the process. The pipeline then
	// re-evaluates and records the same verdict in the audit entry.
	scan := guardrail.ScanHidden(query)
	verdict := a.guard.DetectInjection(scan.Stripped)
	if verdict.IsInjection && !askForce {
		decision := approval.Ask(approval.Prompt{
			Query:       query,
			Triggers:    verdict.Triggers,
			HiddenChars: len(scan.Threats),
		})
		if !decision.Approved {
			redacted, _ := a.guard.Redact(scan.Stripped)
			if _, err := a.log.Append(map[string]any{
				"action":         "qa_denied",
				"query_redacted": redacted,
				"inj":            verdict,
				"user_action":    decision.UserAction,
			}); err != nil {
				return fmt.Errorf("audit append failed: %w", err)
			}
			return fmt.Errorf("query denied (%s)", decision.UserAction)
		}
	}

	svc, err := a.service(cmd.Context(), askModel)
	if err != nil {
		return err
	}

	res, err := svc.Ask(cmd.Context(), query)
	if err != nil {
		return err
	}

	if askJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printResult(res)
	return nil
}
