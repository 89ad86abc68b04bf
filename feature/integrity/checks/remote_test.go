package checks

import (
	"os"
	"path/filepath"
	"testing"

	"timetable-sync/feature/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRemote_Google(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	token := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(creds, []byte("{}"), 0o600))

	cfg := calendar.Config{
		Kind:            calendar.KindGoogle,
		CalendarID:      "primary",
		CredentialsFile: creds,
		TokenFile:       token,
		Timezone:        "UTC",
	}

	report := CheckRemote(cfg)
	assert.Equal(t, "error", report.Status)
	assert.Equal(t, []string{token}, report.Missing)

	require.NoError(t, os.WriteFile(token, []byte("{}"), 0o600))
	report = CheckRemote(cfg)
	assert.Equal(t, "ok", report.Status)
	assert.Empty(t, report.Errors)
}

func TestCheckRemote_ICS(t *testing.T) {
	report := CheckRemote(calendar.Config{Kind: calendar.KindICS, ICSObject: "calendar.ics", Timezone: "UTC"})
	assert.Equal(t, "ok", report.Status)

	report = CheckRemote(calendar.Config{Kind: calendar.KindICS, Timezone: "Mars/Olympus"})
	assert.Equal(t, "error", report.Status)
	assert.Len(t, report.Errors, 2)
}

func TestCheckRemote_UnknownKind(t *testing.T) {
	report := CheckRemote(calendar.Config{Kind: "caldav"})
	assert.Equal(t, "error", report.Status)
	assert.Contains(t, report.Errors, `unknown remote kind "caldav"`)
}
