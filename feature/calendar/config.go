package calendar

const (
	// KindGoogle pushes to a Google Calendar.
	KindGoogle = "google"
	// KindICS publishes an iCalendar document to the object store.
	KindICS = "ics"
)

// Config holds configuration for the remote calendar.
type Config struct {
	// Kind selects the remote implementation (google or ics).
	Kind string `mapstructure:"kind" default:"google"`
	// CalendarID is the Google calendar to write to.
	CalendarID string `mapstructure:"calendar_id" default:"primary"`
	// CredentialsFile is the OAuth client secret JSON downloaded from the Google console.
	CredentialsFile string `mapstructure:"credentials_file" default:"credentials.json"`
	// TokenFile holds the authorized user token. Refreshed tokens are written back.
	TokenFile string `mapstructure:"token_file" default:"token.json"`
	// Timezone localizes source timestamps that carry no offset.
	Timezone string `mapstructure:"timezone" default:"Europe/Ljubljana"`
	// MinDelayMs is the minimum delay between two remote calls.
	MinDelayMs int `mapstructure:"min_delay_ms" default:"50"`
	// ICSObject is the object name of the published calendar document.
	ICSObject string `mapstructure:"ics_object" default:"calendar.ics"`
	// Name is the display name written into the calendar document.
	Name string `mapstructure:"name" default:"Timetable"`
}
