package calendar

import (
	"fmt"
	"strings"
	"time"

	"timetable-sync/core/reconcile"
)

// offsetLayouts carry their own zone.
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
}

// localLayouts are interpreted in the configured location.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Body is the remote representation of an event.
type Body struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// TimeZone is the IANA zone name sent along with the instants.
	TimeZone string
}

// BuildBody renders an event for the remote calendar.
func BuildBody(e reconcile.Event, loc *time.Location) (Body, error) {
	if loc == nil {
		loc = time.UTC
	}

	start, err := ParseTime(e.Start, loc)
	if err != nil {
		return Body{}, fmt.Errorf("start of %s: %w", e.IdentityKey, err)
	}
	end, err := ParseTime(e.End, loc)
	if err != nil {
		return Body{}, fmt.Errorf("end of %s: %w", e.IdentityKey, err)
	}

	return Body{
		Summary:     e.Summary(),
		Description: e.Description(),
		Location:    e.Location,
		Start:       start,
		End:         end,
		TimeZone:    loc.String(),
	}, nil
}

// ParseTime parses an ISO-8601 timestamp. Values without an offset are
// localized into loc.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", value)
}

// Equal compares the fields pushed to the remote. Times compare as instants.
func (b Body) Equal(other Body) bool {
	return b.Summary == other.Summary &&
		b.Description == other.Description &&
		b.Location == other.Location &&
		b.Start.Equal(other.Start) &&
		b.End.Equal(other.End)
}
