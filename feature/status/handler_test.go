package status

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"timetable-sync/core/reconcile"
	"timetable-sync/core/runlock"
	"timetable-sync/core/snapshot"
	"timetable-sync/feature/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu       sync.Mutex
	last     *pipeline.Summary
	err      error
	triggers []string
	ctxErrs  []error
	done     chan struct{}
}

func (r *fakeRunner) Last() *pipeline.Summary { return r.last }

func (r *fakeRunner) Trigger(ctx context.Context, trigger string) (*pipeline.Summary, error) {
	r.mu.Lock()
	r.triggers = append(r.triggers, trigger)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	r.mu.Unlock()
	if r.done != nil {
		close(r.done)
	}
	return &pipeline.Summary{RunID: "run-1", Trigger: trigger, Status: pipeline.StatusOK}, r.err
}

type fakeStore struct {
	events []reconcile.Event
	err    error
}

func (s *fakeStore) Stats(context.Context) (snapshot.Stats, error) {
	return snapshot.Stats{Total: int64(len(s.events))}, s.err
}

func (s *fakeStore) ListEvents(_ context.Context, includeTombstoned bool) ([]reconcile.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []reconcile.Event
	for _, e := range s.events {
		if includeTombstoned || !e.Tombstoned {
			out = append(out, e)
		}
	}
	return out, nil
}

func setupApp(runner Runner, store Store, next func() time.Time) *fiber.App {
	app := fiber.New()
	NewHandler(NewService(runner, store, next, nil)).RegisterRoutes(app)
	return app
}

func decode(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}

func TestHandleStatus(t *testing.T) {
	next := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	runner := &fakeRunner{last: &pipeline.Summary{RunID: "run-0", Status: pipeline.StatusOK}}
	store := &fakeStore{events: []reconcile.Event{{IdentityKey: "1_a"}, {IdentityKey: "2_b"}}}

	resp, err := setupApp(runner, store, func() time.Time { return next }).Test(httptest.NewRequest("GET", "/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Equal(t, float64(2), body["snapshot"].(map[string]interface{})["total"])
	assert.Equal(t, "run-0", body["last_run"].(map[string]interface{})["run_id"])
	assert.Equal(t, "2030-01-01T00:00:00Z", body["next_run"])
}

func TestHandleStatus_NoScheduleNoRun(t *testing.T) {
	resp, err := setupApp(&fakeRunner{}, &fakeStore{}, nil).Test(httptest.NewRequest("GET", "/status", nil))
	require.NoError(t, err)

	body := decode(t, resp.Body)
	assert.Nil(t, body["last_run"])
	assert.NotContains(t, body, "next_run")
}

func TestHandleStatus_StoreError(t *testing.T) {
	resp, err := setupApp(&fakeRunner{}, &fakeStore{err: errors.New("database is locked")}, nil).
		Test(httptest.NewRequest("GET", "/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestHandleEvents(t *testing.T) {
	store := &fakeStore{events: []reconcile.Event{
		{IdentityKey: "1_a"},
		{IdentityKey: "2_b", Tombstoned: true},
	}}
	app := setupApp(&fakeRunner{}, store, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/events", nil))
	require.NoError(t, err)
	assert.Equal(t, float64(1), decode(t, resp.Body)["count"])

	resp, err = app.Test(httptest.NewRequest("GET", "/events?tombstoned=true", nil))
	require.NoError(t, err)
	assert.Equal(t, float64(2), decode(t, resp.Body)["count"])
}

func TestHandleSync_Async(t *testing.T) {
	runner := &fakeRunner{done: make(chan struct{})}
	app := setupApp(runner, &fakeStore{}, nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)

	select {
	case <-runner.done:
	case <-time.After(time.Second):
		t.Fatal("run was not triggered")
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, []string{TriggerAPI}, runner.triggers)
}

func TestHandleSync_Wait(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		resp, err := setupApp(&fakeRunner{}, &fakeStore{}, nil).Test(httptest.NewRequest("POST", "/sync?wait=true", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "run-1", decode(t, resp.Body)["run_id"])
	})

	t.Run("Busy", func(t *testing.T) {
		resp, err := setupApp(&fakeRunner{err: runlock.ErrRunInProgress}, &fakeStore{}, nil).
			Test(httptest.NewRequest("POST", "/sync?wait=true", nil))
		require.NoError(t, err)
		assert.Equal(t, 409, resp.StatusCode)
	})

	t.Run("Failed", func(t *testing.T) {
		resp, err := setupApp(&fakeRunner{err: errors.New("fetch command failed")}, &fakeStore{}, nil).
			Test(httptest.NewRequest("POST", "/sync?wait=true", nil))
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)
	})
}

func TestLoader(t *testing.T) {
	feature := NewFeature(NewService(&fakeRunner{}, &fakeStore{}, nil, nil))
	assert.Equal(t, "status", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NoError(t, feature.Load(fiber.New()))
}

func TestService_TriggerAsyncKeepsCallerContext(t *testing.T) {
	runner := &fakeRunner{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewService(runner, &fakeStore{}, nil, nil).TriggerAsync(ctx)

	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("run was not triggered")
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.Len(t, runner.ctxErrs, 1)
	assert.ErrorIs(t, runner.ctxErrs[0], context.Canceled)
}
