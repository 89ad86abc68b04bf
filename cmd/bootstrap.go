package cmd

import (
	"context"
	"fmt"

	"timetable-sync/core/config"
	"timetable-sync/core/database"
	"timetable-sync/core/logger"
	"timetable-sync/core/runlock"
	"timetable-sync/core/snapshot"
	"timetable-sync/core/storage"
	"timetable-sync/feature/calendar"
	"timetable-sync/feature/pipeline"
	"timetable-sync/feature/timetable"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app bundles the wired components shared by the commands.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	store  *snapshot.GormStore
	client storage.Client
	redis  *redis.Client
	syncer *calendar.Syncer
	runner *pipeline.Runner
}

// bootOptions selects the optional parts of the wiring.
type bootOptions struct {
	// remote connects the remote calendar and builds the syncer.
	remote bool
	// runner builds the run pipeline.
	runner bool
}

// bootstrap loads the configuration and wires storage, snapshot, remote and
// pipeline. Callers must Close the returned app.
func bootstrap(ctx context.Context, opts bootOptions) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(l)

	a := &app{cfg: cfg, log: l}
	if err := a.wire(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, opts bootOptions) error {
	cfg := a.cfg

	if !cfg.Database.IsValidDriver() {
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	a.store = snapshot.NewGormStore(db)
	if err := a.store.Migrate(ctx); err != nil {
		return err
	}
	a.log.Info("Snapshot database ready", zap.String("driver", cfg.Database.Driver))

	if cfg.Source.Kind == timetable.KindBucket || cfg.Remote.Kind == calendar.KindICS {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		a.client = client
	}

	if opts.remote {
		if err := a.wireSyncer(ctx); err != nil {
			return err
		}
	}

	if opts.runner {
		return a.wireRunner(ctx)
	}
	return nil
}

func (a *app) wireSyncer(ctx context.Context) error {
	cfg := a.cfg

	if cfg.Remote.Kind == calendar.KindICS {
		if err := storage.EnsureBucket(ctx, a.client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return err
		}
	}

	loc, err := cfg.Remote.LoadLocation()
	if err != nil {
		return err
	}
	remote, err := calendar.NewRemote(ctx, cfg.Remote, a.client, cfg.Storage.Bucket, a.log)
	if err != nil {
		return fmt.Errorf("failed to connect to remote calendar: %w", err)
	}

	a.syncer = calendar.NewSyncer(remote, a.store, calendar.Options{
		Location: loc,
		MinDelay: cfg.Remote.MinDelay(),
		Logger:   a.log,
	})
	a.log.Info("Remote calendar ready", zap.String("kind", cfg.Remote.Kind))
	return nil
}

func (a *app) wireRunner(ctx context.Context) error {
	cfg := a.cfg

	source, err := timetable.NewSource(cfg.Source, a.client, cfg.Storage.Bucket, a.log)
	if err != nil {
		return err
	}
	filter, err := timetable.LoadGroupFilter(cfg.Source.FilterFile)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{
		Source:     source,
		Filter:     filter,
		Store:      a.store,
		AllowEmpty: cfg.Source.AllowEmpty,
		Logger:     a.log,
	}
	if a.syncer != nil {
		deps.Pusher = a.syncer
	}
	if cfg.Source.FetchCommand != "" {
		deps.Fetcher = &pipeline.CommandFetcher{Command: cfg.Source.FetchCommand, Log: a.log}
	}

	if cfg.Schedule.UsesRedis() {
		client, err := runlock.NewRedisClient(ctx, cfg.Schedule.RedisURL)
		if err != nil {
			return err
		}
		a.redis = client
		if cfg.Schedule.Lock == runlock.DriverRedis {
			deps.Locker = runlock.NewRedis(client, cfg.Schedule.LockKey, cfg.Schedule.LockTTL())
		}
		if cfg.Schedule.Channel != "" {
			deps.Publisher = pipeline.NewRedisPublisher(client, cfg.Schedule.Channel)
		}
	}

	a.runner = pipeline.NewRunner(deps)
	return nil
}

// Close releases the connections held by the app.
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = database.Close(a.db)
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
