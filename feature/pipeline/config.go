package pipeline

import (
	"time"

	"timetable-sync/core/runlock"
)

// Config holds configuration for scheduled runs.
type Config struct {
	// Cron is the run schedule with a leading seconds field.
	Cron string `mapstructure:"cron" default:"0 0 * * * *"`
	// RunOnStart triggers one run as soon as the scheduler starts.
	RunOnStart bool `mapstructure:"run_on_start" default:"true"`
	// Lock selects the run lock (local or redis).
	Lock string `mapstructure:"lock" default:"local"`
	// RedisURL locates the Redis server used for the lock and notifications.
	RedisURL string `mapstructure:"redis_url" default:""`
	// LockKey is the Redis key of the run lock.
	LockKey string `mapstructure:"lock_key" default:"timetable-sync:run"`
	// LockTTLSeconds bounds how long a crashed run keeps the Redis lock. A live
	// run refreshes it, so runs may take longer.
	LockTTLSeconds int `mapstructure:"lock_ttl_seconds" default:"3600"`
	// Channel is the Redis channel receiving run summaries. Empty disables publishing.
	Channel string `mapstructure:"channel" default:""`
}

// UsesRedis reports whether any feature needs a Redis connection.
func (c Config) UsesRedis() bool {
	return c.Lock == runlock.DriverRedis || (c.Channel != "" && c.RedisURL != "")
}

// LockTTL returns the Redis lock TTL.
func (c Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}
