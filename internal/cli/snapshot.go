package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/govkb/govkb/internal/snapshot"
)

var (
	snapshotPresign bool
	snapshotExpires time.Duration
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export a point-in-time copy of the audit log to S3",
	Long: `Upload the current audit log to the configured audit bucket under
audit_logs/audit_<unix>.jsonl. The local log keeps growing; the snapshot
is the immutable copy auditors get.`,
	RunE: snapshotCommand,
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotPresign, "presign", false, "Print a presigned download URL for the snapshot")
	snapshotCmd.Flags().DurationVar(&snapshotExpires, "expires", 15*time.Minute, "Presigned URL lifetime")
	rootCmd.AddCommand(snapshotCmd)
}

func snapshotCommand(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	exporter, err := a.exporter(cmd.Context())
	if err != nil {
		return err
	}
	if exporter == nil {
		return snapshot.ErrUnconfigured
	}

	location, err := exporter.Export(cmd.Context(), a.log.Path())
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	if _, err := a.log.Append(map[string]any{
		"action":   "snapshot",
		"location": location,
	}); err != nil {
		return fmt.Errorf("audit append failed: %w", err)
	}

	fmt.Printf("Snapshot uploaded: %s\n", location)

	if snapshotPresign {
		key := strings.TrimPrefix(location, "s3://"+a.cfg.AWS.AuditBucket+"/")
		url, err := exporter.PresignURL(cmd.Context(), key, snapshotExpires)
		if err != nil {
			return fmt.Errorf("presign failed: %w", err)
		}
		fmt.Printf("Download (expires in %s): %s\n", snapshotExpires, url)
	}
	return nil
}
