package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleRemote stores events in a Google Calendar.
type GoogleRemote struct {
	svc        *gcal.Service
	calendarID string
}

// NewGoogleRemote authorizes with the stored user token and connects to the
// calendar API. Obtaining the first token is done outside this program.
func NewGoogleRemote(ctx context.Context, cfg Config) (*GoogleRemote, error) {
	secret, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(secret, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}

	tok, err := readToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	ts := &fileTokenSource{
		base: oauthCfg.TokenSource(ctx, tok),
		path: cfg.TokenFile,
		last: tok.AccessToken,
	}
	svc, err := gcal.NewService(ctx, option.WithTokenSource(oauth2.ReuseTokenSource(tok, ts)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return NewGoogleRemoteWithService(svc, cfg.CalendarID), nil
}

// NewGoogleRemoteWithService wraps an existing calendar service.
func NewGoogleRemoteWithService(svc *gcal.Service, calendarID string) *GoogleRemote {
	return &GoogleRemote{svc: svc, calendarID: calendarID}
}

// Insert implements Remote.
func (g *GoogleRemote) Insert(ctx context.Context, body Body) (string, error) {
	ev, err := g.svc.Events.Insert(g.calendarID, toGoogleEvent(body)).Context(ctx).Do()
	if err != nil {
		return "", googleErr(err)
	}
	return ev.Id, nil
}

// Get implements Remote.
func (g *GoogleRemote) Get(ctx context.Context, id string) (Body, error) {
	ev, err := g.svc.Events.Get(g.calendarID, id).Context(ctx).Do()
	if err != nil {
		return Body{}, googleErr(err)
	}
	if ev.Status == "cancelled" {
		return Body{}, ErrRemoteNotFound
	}
	return fromGoogleEvent(ev)
}

// Update implements Remote. Only the pushed fields are patched.
func (g *GoogleRemote) Update(ctx context.Context, id string, body Body) error {
	_, err := g.svc.Events.Patch(g.calendarID, id, toGoogleEvent(body)).Context(ctx).Do()
	return googleErr(err)
}

// Delete implements Remote.
func (g *GoogleRemote) Delete(ctx context.Context, id string) error {
	return googleErr(g.svc.Events.Delete(g.calendarID, id).Context(ctx).Do())
}

// ListIDs implements Remote.
func (g *GoogleRemote) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := g.svc.Events.List(g.calendarID).
		SingleEvents(true).
		MaxResults(2500).
		Pages(ctx, func(page *gcal.Events) error {
			for _, item := range page.Items {
				ids = append(ids, item.Id)
			}
			return nil
		})
	if err != nil {
		return nil, googleErr(err)
	}
	return ids, nil
}

func toGoogleEvent(b Body) *gcal.Event {
	return &gcal.Event{
		Summary:     b.Summary,
		Description: b.Description,
		Location:    b.Location,
		Start: &gcal.EventDateTime{
			DateTime: b.Start.Format(time.RFC3339),
			TimeZone: b.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: b.End.Format(time.RFC3339),
			TimeZone: b.TimeZone,
		},
		// Empty values must clear the remote field on patch
		ForceSendFields: []string{"Summary", "Description", "Location"},
	}
}

func fromGoogleEvent(ev *gcal.Event) (Body, error) {
	b := Body{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
	}

	var err error
	if ev.Start != nil {
		b.TimeZone = ev.Start.TimeZone
		if b.Start, err = time.Parse(time.RFC3339, ev.Start.DateTime); err != nil {
			return Body{}, fmt.Errorf("invalid remote start: %w", err)
		}
	}
	if ev.End != nil {
		if b.End, err = time.Parse(time.RFC3339, ev.End.DateTime); err != nil {
			return Body{}, fmt.Errorf("invalid remote end: %w", err)
		}
	}
	return b, nil
}

// googleErr maps 404 and 410 responses to ErrRemoteNotFound.
func googleErr(err error) error {
	if err == nil {
		return nil
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && (gErr.Code == http.StatusNotFound || gErr.Code == http.StatusGone) {
		return fmt.Errorf("%w: %v", ErrRemoteNotFound, err)
	}
	return err
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read google token (authorize once and store it in %s): %w", path, err)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("failed to parse google token: %w", err)
	}
	return tok, nil
}

// fileTokenSource writes refreshed tokens back to disk.
type fileTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (f *fileTokenSource) Token() (*oauth2.Token, error) {
	tok, err := f.base.Token()
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if tok.AccessToken != f.last {
		f.last = tok.AccessToken
		if data, err := json.Marshal(tok); err == nil {
			_ = os.WriteFile(f.path, data, 0o600)
		}
	}
	return tok, nil
}
