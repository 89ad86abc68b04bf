package checks

import (
	"fmt"
	"os"

	"timetable-sync/feature/calendar"
)

// RemoteReport is the result of a remote configuration check.
type RemoteReport struct {
	Kind    string   `json:"kind"`
	Status  string   `json:"status"` // "ok", "error"
	Missing []string `json:"missing"`
	Errors  []string `json:"errors"`
}

// CheckRemote validates the remote calendar configuration without calling it.
// For Google the credentials and token files must exist; for ICS an object
// name must be set.
func CheckRemote(cfg calendar.Config) *RemoteReport {
	report := &RemoteReport{
		Kind:    cfg.Kind,
		Status:  "ok",
		Missing: []string{},
		Errors:  []string{},
	}

	if _, err := cfg.LoadLocation(); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	switch cfg.Kind {
	case calendar.KindGoogle, "":
		report.Kind = calendar.KindGoogle
		for _, file := range []string{cfg.CredentialsFile, cfg.TokenFile} {
			if file == "" {
				report.Errors = append(report.Errors, "credentials and token files must be configured")
				continue
			}
			if _, err := os.Stat(file); err != nil {
				report.Missing = append(report.Missing, file)
			}
		}
		if cfg.CalendarID == "" {
			report.Errors = append(report.Errors, "calendar id is empty")
		}
	case calendar.KindICS:
		if cfg.ICSObject == "" {
			report.Errors = append(report.Errors, "ics object name is empty")
		}
	default:
		report.Errors = append(report.Errors, fmt.Sprintf("unknown remote kind %q", cfg.Kind))
	}

	if len(report.Missing) > 0 || len(report.Errors) > 0 {
		report.Status = "error"
	}
	return report
}
