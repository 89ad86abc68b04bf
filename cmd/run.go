package cmd

import (
	"fmt"

	"timetable-sync/feature/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dryRunFlag bool
	noPushFlag bool
)

// runCmd performs a single sync run.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one sync pass and exit",
	Long: `Fetches and normalizes the raw timetable, reconciles it against the snapshot
and pushes the changes to the remote calendar.

Examples:
  # Regular run
  run

  # Show what would change without committing anything
  run --dry-run

  # Update the snapshot only
  run --no-push`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Compute the plan without committing or pushing")
	runCmd.Flags().BoolVar(&noPushFlag, "no-push", false, "Commit the snapshot but do not touch the remote calendar")
	RootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx, bootOptions{remote: !dryRunFlag && !noPushFlag, runner: true})
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.runner.RunOnce(ctx, pipeline.RunOptions{
		DryRun:  dryRunFlag,
		NoPush:  noPushFlag,
		Trigger: "cli",
	})
	if summary != nil {
		fmt.Println(summary.String())
		printTombstoned(a.log, summary.TombstonedKeys)
		if summary.Remote != nil {
			for _, itemErr := range summary.Remote.Errors() {
				a.log.Warn("Remote item failed", zap.Error(itemErr))
			}
		}
	}
	return err
}

// printTombstoned logs a sample of removed keys.
func printTombstoned(l *zap.Logger, keys []string) {
	const maxShow = 5
	for i, key := range keys {
		if i == maxShow {
			l.Info("Additional removed events not shown", zap.Int("count", len(keys)-maxShow))
			return
		}
		l.Info("Removed event", zap.String("key", key))
	}
}
