package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/govkb/govkb/internal/evidence"
	"github.com/govkb/govkb/internal/snapshot"
)

var evidenceExpires time.Duration

var evidenceCmd = &cobra.Command{
	Use:   "evidence <FRAMEWORK:CONTROL>",
	Short: "Presign evidence objects for a control",
	Long: `Look up a control in the evidence map and print a presigned download URL
for each of its evidence objects.

Example:
  govkb evidence SOC2:CC6.1
  govkb evidence SOC2:CC6.1 --expires 1h`,
	Args: cobra.ExactArgs(1),
	RunE: evidenceCommand,
}

func init() {
	evidenceCmd.Flags().DurationVar(&evidenceExpires, "expires", 15*time.Minute, "Presigned URL lifetime")
	rootCmd.AddCommand(evidenceCmd)
}

func evidenceCommand(cmd *cobra.Command, args []string) error {
	control := args[0]

	a, err := loadApp()
	if err != nil {
		return err
	}

	evidenceMap, err := evidence.LoadMap(a.cfg.Evidence.MapPath)
	if err != nil {
		return fmt.Errorf("failed to load evidence map: %w", err)
	}

	entries, ok := evidenceMap[control]
	if !ok || len(entries) == 0 {
		return fmt.Errorf("no evidence mapped for %s", control)
	}

	exporter, err := a.exporter(cmd.Context())
	if err != nil {
		return err
	}
	if exporter == nil {
		return snapshot.ErrUnconfigured
	}

	keys := make([]string, 0, len(entries))
	byKey := make(map[string]evidence.MapEntry, len(entries))
	for _, e := range entries {
		keys = append(keys, e.S3Key)
		byKey[e.S3Key] = e
	}

	fmt.Printf("Evidence for %s (URLs expire in %s):\n", control, evidenceExpires)
	for _, ku := range exporter.PresignMany(cmd.Context(), keys, evidenceExpires) {
		fmt.Printf("  %s\n", ku.Key)
		if desc := byKey[ku.Key].Description; desc != "" {
			fmt.Printf("    %s\n", desc)
		}
		if ku.URL != "" {
			fmt.Printf("    %s\n", ku.URL)
		} else {
			fmt.Println("    (presign failed)")
		}
	}
	return nil
}
