package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var keepSnapshotFlag bool

// cleanCmd removes every event from the remote calendar and empties the snapshot.
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete all remote events and reset the snapshot",
	Long: `Deletes every event of the configured remote calendar, then empties the
snapshot so the next run recreates everything.

Examples:
  # Interactive confirmation
  clean

  # Non-interactive
  clean --yes

  # Show what would be removed
  clean --dry-run`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	cleanCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Only report what would be removed")
	cleanCmd.Flags().BoolVar(&keepSnapshotFlag, "keep-snapshot", false, "Clear the remote calendar only")
	RootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx, bootOptions{remote: true})
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.store.Stats(ctx)
	if err != nil {
		return err
	}
	a.log.Info("Snapshot before clean",
		zap.Int64("total", stats.Total),
		zap.Int64("linked", stats.Linked),
	)

	if dryRunFlag {
		a.log.Info("Dry-run mode: No changes were made.")
		return nil
	}

	if !confirmDestructiveAction() {
		a.log.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	deleted, failed, err := a.syncer.Clear(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d remote events (%d failed)\n", deleted, failed)

	if keepSnapshotFlag {
		return nil
	}
	if failed > 0 {
		return fmt.Errorf("%d remote events could not be deleted, snapshot kept", failed)
	}

	purged, err := a.store.Purge(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d snapshot entries\n", purged)
	return nil
}
