package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// Enabled starts the status API alongside the scheduler.
	Enabled bool `mapstructure:"enabled" default:"true"`
}

// Address returns the listen address for the configured port.
func (c Config) Address() string {
	if c.Port == "" {
		return ":8080"
	}
	return ":" + c.Port
}

// IsSecured reports whether requests must present the API key.
func (c Config) IsSecured() bool {
	return c.ApiKey != ""
}
