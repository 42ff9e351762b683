package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit log hash chain",
	Long: `Walk the audit log from genesis forward, recomputing every entry's hash
and comparing it against the stored one.

Exit codes:
  0  chain intact
  1  integrity violation (first broken entry is reported)
  2  log could not be read`,
	Run: verifyCommand,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyCommand(cmd *cobra.Command, args []string) {
	a, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	result, err := a.log.Verify()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not verify %s: %v\n", a.log.Path(), err)
		os.Exit(2)
	}

	if result.Valid {
		fmt.Printf("✓ Chain intact: %d entries verified in %s\n", result.Entries, a.log.Path())
		return
	}

	v := result.Violation
	fmt.Fprintf(os.Stderr, "✗ Integrity violation at entry %d\n", v.Index)
	fmt.Fprintf(os.Stderr, "  expected: %s\n", v.Expected)
	fmt.Fprintf(os.Stderr, "  stored:   %s\n", v.Stored)
	os.Exit(1)
}
