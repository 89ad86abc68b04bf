// Package loader provides the plugin-like feature loading system.
//
// Each HTTP-facing feature implements the Feature interface, which defines its
// route registration logic and whether it is enabled.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// # Manager
//
// The Manager struct holds the registry of available features. It handles:
//   - Registration of features via Register()
//   - Loading of enabled features via LoadAll()
//
// Features such as 'status' and 'integrity' are developed and tested in isolation
// and only meet in the start command.
package loader
