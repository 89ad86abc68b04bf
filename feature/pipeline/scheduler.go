package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TriggerSchedule names runs started by the scheduler.
const TriggerSchedule = "schedule"

// Scheduler triggers runs on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	runner  *Runner
	entryID cron.EntryID
	log     *zap.Logger

	// ctx is handed to every run and cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc
	extra  sync.WaitGroup
}

// NewScheduler creates a scheduler for expr, a cron expression with seconds.
// Ticks that fire while a run is still going are dropped.
func NewScheduler(expr string, runner *Runner, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log: log.Sugar()}

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: c, runner: runner, log: log, ctx: ctx, cancel: cancel}
	id, err := c.AddFunc(expr, s.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	s.entryID = id
	return s, nil
}

func (s *Scheduler) tick() {
	if _, err := s.runner.Trigger(s.ctx, TriggerSchedule); err != nil {
		s.log.Warn("Scheduled run did not complete", zap.Error(err))
	}
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", zap.Time("next_run", s.Next()))
}

// RunNow triggers a run outside the schedule without blocking.
func (s *Scheduler) RunNow() {
	s.extra.Add(1)
	go func() {
		defer s.extra.Done()
		s.tick()
	}()
}

// Next returns the next scheduled run time.
func (s *Scheduler) Next() time.Time {
	entry := s.cron.Entry(s.entryID)
	if entry.Schedule == nil {
		return time.Time{}
	}
	return entry.Schedule.Next(time.Now())
}

// Stop halts the schedule and cancels the running job, which stops after its
// current item. The returned context is done once every job has returned.
func (s *Scheduler) Stop() context.Context {
	s.cancel()
	cronDone := s.cron.Stop()

	ctx, done := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.extra.Wait()
		done()
	}()
	return ctx
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
