package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/govkb/govkb/internal/audit"
)

var (
	logFilterAction string
	logFlagged      bool
	logLast         int
	logSummary      bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View and filter the audit log",
	Long: `View the GovKB audit log with filtering and summary options.

Examples:
  govkb log                   # Show all entries
  govkb log --last 20         # Show last 20 entries
  govkb log --action qa       # Show only question round trips
  govkb log --flagged         # Show only entries with injection triggers
  govkb log --summary         # Show session summary stats`,
	RunE: logCommand,
}

func init() {
	logCmd.Flags().StringVar(&logFilterAction, "action", "", "Filter by action (qa, qa_denied, ingest, snapshot)")
	logCmd.Flags().BoolVar(&logFlagged, "flagged", false, "Show only entries with injection triggers")
	logCmd.Flags().IntVar(&logLast, "last", 0, "Show last N entries")
	logCmd.Flags().BoolVar(&logSummary, "summary", false, "Show summary statistics")
	rootCmd.AddCommand(logCmd)
}

func logCommand(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	entries, err := a.log.Entries()
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No audit log entries found.")
		return nil
	}

	filtered := filterEntries(entries)
	if logLast > 0 && logLast < len(filtered) {
		filtered = filtered[len(filtered)-logLast:]
	}

	if logSummary {
		printLogSummary(entries, filtered)
		return nil
	}

	printEntries(filtered)
	return nil
}

func filterEntries(entries []audit.Entry) []audit.Entry {
	if logFilterAction == "" && !logFlagged {
		return entries
	}

	var filtered []audit.Entry
	for _, e := range entries {
		if logFilterAction != "" && !strings.EqualFold(entryAction(e), logFilterAction) {
			continue
		}
		if logFlagged && len(entryTriggers(e)) == 0 {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func entryAction(e audit.Entry) string {
	action, _ := e.Fields["action"].(string)
	return action
}

// entryTriggers pulls the trigger list out of the stored verdict object
// ({"is_injection": ..., "triggers": [...]}).
func entryTriggers(e audit.Entry) []string {
	verdict, _ := e.Fields["inj"].(map[string]any)
	raw, _ := verdict["triggers"].([]any)
	var triggers []string
	for _, t := range raw {
		if s, ok := t.(string); ok {
			triggers = append(triggers, s)
		}
	}
	return triggers
}

func printEntries(entries []audit.Entry) {
	for _, e := range entries {
		ts := time.Unix(e.TS, 0).UTC().Format(time.RFC3339)
		action := entryAction(e)
		triggers := entryTriggers(e)

		icon := "✓"
		if len(triggers) > 0 || action == "qa_denied" {
			icon = "⚠"
		}

		summary := ""
		if q, ok := e.Fields["query_redacted"].(string); ok {
			summary = q
		} else if src, ok := e.Fields["source"].(string); ok {
			summary = src
		} else if loc, ok := e.Fields["location"].(string); ok {
			summary = loc
		}

		fmt.Printf("%s %s %-9s %s\n", icon, ts, action, summary)
		if len(triggers) > 0 {
			fmt.Printf("     Triggers: %s\n", strings.Join(triggers, ", "))
		}
		if reason, ok := e.Fields["governance_violation"].(string); ok {
			fmt.Printf("     Governance: %s\n", reason)
		}
		if errStr, ok := e.Fields["retrieval_error"].(string); ok {
			fmt.Printf("     Error: %s\n", errStr)
		}
		fmt.Printf("     Hash: %s\n", e.EntryHash)
		fmt.Println()
	}
}

func printLogSummary(all []audit.Entry, filtered []audit.Entry) {
	counts := map[string]int{}
	flaggedCount := 0
	for _, e := range all {
		counts[entryAction(e)]++
		if len(entryTriggers(e)) > 0 {
			flaggedCount++
		}
	}

	fmt.Println("═══════════════════════════════════════════")
	fmt.Println("  GovKB Audit Summary")
	fmt.Println("═══════════════════════════════════════════")
	fmt.Printf("  Total entries:   %d\n", len(all))
	fmt.Printf("  Questions:       %d\n", counts["qa"])
	fmt.Printf("  Denied:          %d\n", counts["qa_denied"])
	fmt.Printf("  Ingests:         %d\n", counts["ingest"])
	fmt.Printf("  Snapshots:       %d\n", counts["snapshot"])
	fmt.Printf("  Flagged:         %d\n", flaggedCount)
	fmt.Println("═══════════════════════════════════════════")

	if len(all) > 0 {
		first := time.Unix(all[0].TS, 0).UTC().Format(time.RFC3339)
		last := time.Unix(all[len(all)-1].TS, 0).UTC().Format(time.RFC3339)
		fmt.Printf("  First entry:     %s\n", first)
		fmt.Printf("  Last entry:      %s\n", last)
	}
	if len(filtered) != len(all) {
		fmt.Printf("  Matching filter: %d\n", len(filtered))
	}
	fmt.Println()
}
