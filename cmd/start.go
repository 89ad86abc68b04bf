package cmd

import (
	"context"
	"fmt"
	"time"

	"timetable-sync/core/loader"
	"timetable-sync/core/logger"
	"timetable-sync/core/middleware/auth"
	"timetable-sync/core/middleware/rayid"
	"timetable-sync/feature/integrity"
	"timetable-sync/feature/pipeline"
	"timetable-sync/feature/status"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler and the status API",
	Long: `Runs sync passes on the configured cron schedule until interrupted.
When the server is enabled, the status API is served alongside.`,
	RunE: runStart,
}

func init() {
	RootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx, bootOptions{remote: true, runner: true})
	if err != nil {
		return err
	}
	defer a.Close()
	logg := a.log

	scheduler, err := pipeline.NewScheduler(a.cfg.Schedule.Cron, a.runner, logg)
	if err != nil {
		return err
	}

	var srv *fiber.App
	if a.cfg.Server.Enabled {
		srv, err = newServer(ctx, a, scheduler)
		if err != nil {
			return err
		}
		go func() {
			logg.Info("Starting server",
				zap.String("address", a.cfg.Server.Address()),
				zap.Bool("secured", a.cfg.Server.IsSecured()),
			)
			if err := srv.Listen(a.cfg.Server.Address()); err != nil {
				logg.Error("Server stopped", zap.Error(err))
			}
		}()
	}

	scheduler.Start()
	if a.cfg.Schedule.RunOnStart {
		scheduler.RunNow()
	}

	// Graceful Shutdown
	<-ctx.Done()
	logg.Info("Shutting down...")

	if srv != nil {
		_ = srv.ShutdownWithTimeout(10 * time.Second)
	}
	<-scheduler.Stop().Done()
	logg.Info("Scheduler stopped")
	return nil
}

// newServer builds the API. Handlers run with ctx as their user context, so
// runs they start are cancelled on shutdown.
func newServer(ctx context.Context, a *app, scheduler *pipeline.Scheduler) (*fiber.App, error) {
	logg := a.log

	srv := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// RayID must be first to trace everything
	srv.Use(rayid.New())

	srv.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(ctx)
		return c.Next()
	})

	srv.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	srv.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	srv.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey, Skip: []string{"/health"}}))

	mgr := loader.NewManager()
	mgr.Register(status.NewFeature(status.NewService(a.runner, a.store, scheduler.Next, logg)))
	mgr.Register(integrity.NewFeature(integrity.NewService(
		a.store, a.client, a.cfg.Storage.Bucket, a.cfg.Source, a.cfg.Remote, logg,
	)))

	loaded, err := mgr.LoadAll(srv)
	if err != nil {
		return nil, fmt.Errorf("failed to load features: %w", err)
	}
	logg.Info("Features loaded", zap.Strings("features", loaded))
	return srv, nil
}
