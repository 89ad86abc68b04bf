package database

// Config holds configuration for the snapshot database connection.
type Config struct {
	// Driver is the database driver (sqlite, mysql, postgres).
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port. Zero uses the driver's default port.
	Port int `mapstructure:"port" default:"0"`
	// User is the database user.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name, or the file path for sqlite.
	Name string `mapstructure:"name" default:"calendar.db"`
	// TimeoutSeconds bounds connection setup and I/O.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// IsValidDriver checks if the configured driver is supported.
func (c Config) IsValidDriver() bool {
	switch c.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
		return true
	default:
		return false
	}
}

// PortOrDefault returns Port, or the standard port of the driver when unset.
func (c Config) PortOrDefault() int {
	if c.Port > 0 {
		return c.Port
	}
	switch c.Driver {
	case DriverMySQL:
		return 3306
	case DriverPostgres:
		return 5432
	default:
		return 0
	}
}
