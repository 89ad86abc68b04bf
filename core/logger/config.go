package logger

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum enabled level (debug, info, warn, error).
	Level string `mapstructure:"level" default:"info"`
	// Format is the output encoding (json or console).
	Format string `mapstructure:"format" default:"json"`
	// File additionally appends every entry to this path. Empty logs to stderr only.
	File string `mapstructure:"file" default:""`
}
