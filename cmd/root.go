package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"timetable-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "timetable-sync",
	Short: "Timetable to calendar synchronizer",
	Long: `timetable-sync mirrors course sessions from a university timetable into a calendar.
Every run normalizes the raw schedule batches, reconciles them against a
snapshot database and pushes only the differences to Google Calendar or an
ICS document in object storage.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context; a running sync finishes its current item and stops.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Console format with ISO8601 timestamps for CLI errors
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

var configPath string

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory holding config.yaml and .env")
}
