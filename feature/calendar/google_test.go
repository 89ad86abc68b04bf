package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func newTestGoogleRemote(t *testing.T, handler http.HandlerFunc) *GoogleRemote {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gcal.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewGoogleRemoteWithService(svc, "primary")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": map[string]any{"code": 404, "message": "Not Found"},
	})
}

func TestGoogleRemote_InsertSendsBody(t *testing.T) {
	var received gcal.Event
	r := newTestGoogleRemote(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.True(t, strings.HasSuffix(req.URL.Path, "/calendars/primary/events"), req.URL.Path)
		require.NoError(t, json.NewDecoder(req.Body).Decode(&received))
		writeJSON(w, http.StatusOK, map[string]any{"id": "evt-1"})
	})

	b := icsBody("Algorithms [Lecture]")
	b.TimeZone = "Europe/Ljubljana"
	id, err := r.Insert(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)
	assert.Equal(t, "Algorithms [Lecture]", received.Summary)
	assert.Equal(t, "2024-01-15T09:00:00Z", received.Start.DateTime)
	assert.Equal(t, "Europe/Ljubljana", received.Start.TimeZone)
}

func TestGoogleRemote_Get(t *testing.T) {
	r := newTestGoogleRemote(t, func(w http.ResponseWriter, req *http.Request) {
		switch {
		case strings.HasSuffix(req.URL.Path, "/events/evt-1"):
			writeJSON(w, http.StatusOK, map[string]any{
				"id":       "evt-1",
				"summary":  "Algorithms [Lecture]",
				"location": "P01",
				"start":    map[string]any{"dateTime": "2024-01-15T10:00:00+01:00", "timeZone": "Europe/Ljubljana"},
				"end":      map[string]any{"dateTime": "2024-01-15T12:00:00+01:00", "timeZone": "Europe/Ljubljana"},
			})
		case strings.HasSuffix(req.URL.Path, "/events/cancelled"):
			writeJSON(w, http.StatusOK, map[string]any{"id": "cancelled", "status": "cancelled"})
		default:
			notFound(w)
		}
	})
	ctx := context.Background()

	got, err := r.Get(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, got.Equal(icsBody("Algorithms [Lecture]")))
	assert.Equal(t, "Europe/Ljubljana", got.TimeZone)

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrRemoteNotFound)

	_, err = r.Get(ctx, "cancelled")
	assert.ErrorIs(t, err, ErrRemoteNotFound)
}

func TestGoogleRemote_UpdateAndDelete(t *testing.T) {
	var methods []string
	r := newTestGoogleRemote(t, func(w http.ResponseWriter, req *http.Request) {
		methods = append(methods, req.Method)
		if strings.HasSuffix(req.URL.Path, "/events/gone") {
			writeJSON(w, http.StatusGone, map[string]any{"error": map[string]any{"code": 410, "message": "Gone"}})
			return
		}
		if req.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "evt-1"})
	})
	ctx := context.Background()

	require.NoError(t, r.Update(ctx, "evt-1", icsBody("x")))
	require.NoError(t, r.Delete(ctx, "evt-1"))
	assert.ErrorIs(t, r.Delete(ctx, "gone"), ErrRemoteNotFound)
	assert.Equal(t, []string{http.MethodPatch, http.MethodDelete, http.MethodDelete}, methods)
}

func TestGoogleRemote_ListIDsFollowsPages(t *testing.T) {
	r := newTestGoogleRemote(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("pageToken") == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"items":         []map[string]any{{"id": "a"}, {"id": "b"}},
				"nextPageToken": "p2",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{{"id": "c"}}})
	})

	ids, err := r.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestToGoogleEvent_ForcesEmptyFields(t *testing.T) {
	ev := toGoogleEvent(Body{Start: time.Unix(0, 0).UTC(), End: time.Unix(3600, 0).UTC()})
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"description":""`)
	assert.Contains(t, string(data), `"location":""`)
}
