// Package config provides configuration management for timetable-sync.
//
// It utilizes Viper for loading configuration from an optional config.yaml,
// a .env file and environment variables. Defaults come from the `default`
// struct tags of each partial configuration.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP API settings (port, API key, enabled)
//   - Database: snapshot database (sqlite, mysql or postgres)
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//   - Source: where raw timetable batches come from (dir or bucket), fetch command, group filter
//   - Remote: remote calendar (google or ics), time zone, rate limit
//   - Schedule: cron expression, run lock and run notifications
//
// Environment variables use the upper-cased key path, e.g. REMOTE_CALENDAR_ID or SCHEDULE_CRON.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Remote.CalendarID)
package config
