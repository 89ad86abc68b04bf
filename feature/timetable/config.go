package timetable

const (
	// KindDir reads batches from *.json files in a local directory.
	KindDir = "dir"
	// KindBucket reads batches from *.json objects under a bucket prefix.
	KindBucket = "bucket"
)

// Config holds configuration for the raw timetable source.
type Config struct {
	// Kind selects where raw batches are read from (dir or bucket).
	Kind string `mapstructure:"kind" default:"dir"`
	// Dir is the directory scanned when Kind is dir.
	Dir string `mapstructure:"dir" default:"schedule"`
	// Prefix is the object prefix scanned when Kind is bucket.
	Prefix string `mapstructure:"prefix" default:"schedule/"`
	// FetchCommand is run before every pass to refresh the raw batches. Empty disables it.
	FetchCommand string `mapstructure:"fetch_command" default:""`
	// FilterFile is a YAML file mapping batch names to allowed group substrings.
	FilterFile string `mapstructure:"filter_file" default:""`
	// AllowEmpty lets a pass with zero parsed events tombstone the whole snapshot.
	AllowEmpty bool `mapstructure:"allow_empty" default:"false"`
}
