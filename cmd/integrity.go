package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"timetable-sync/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the snapshot schema, storage and remote configuration",
	Long: `Runs every integrity check and prints the JSON report. With --fix the
snapshot table is migrated and missing bucket prefixes are created.
Exits non-zero when a check fails.`,
	RunE: runIntegrity,
}

func init() {
	integrityCmd.Flags().BoolVar(&fixFlag, "fix", false, "Repair what can be repaired")
	RootCmd.AddCommand(integrityCmd)
}

func runIntegrity(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx, bootOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	svc := integrity.NewService(a.store, a.client, a.cfg.Storage.Bucket, a.cfg.Source, a.cfg.Remote, a.log)

	if fixFlag && svc.UsesStorage() {
		missing, err := svc.CheckStorage(ctx)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			a.log.Info("Creating missing prefixes", zap.Strings("missing", missing))
			if err := svc.FixStorage(ctx, missing); err != nil {
				return err
			}
		}
	}

	report := svc.Report(ctx)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	if !integrity.Healthy(report) {
		return fmt.Errorf("integrity check failed")
	}
	return nil
}
