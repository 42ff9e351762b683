package cli

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logPath    string
)

var rootCmd = &cobra.Command{
	Use:   "govkb",
	Short: "GovKB - Governed compliance question answering",
	Long: `GovKB answers compliance questions from an indexed control corpus while
enforcing governance guardrails: PII is redacted before anything leaves
the process, prompt-injection attempts are flagged, and every round trip
is recorded in a tamper-evident hash-chained audit log.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML file (default: ~/.govkb/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to audit log file (default: ~/.govkb/audits/audit_log.jsonl)")
}

func Execute() error {
	return rootCmd.Execute()
}
