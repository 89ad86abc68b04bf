// Package server holds the HTTP server configuration.
//
// The start command serves the status API next to the scheduler; this package
// only defines where it listens and whether requests must carry the API key.
//
// # Configuration
//
// The Config struct defines the HTTP port, the API key and whether the API is
// started at all.
//
// # Usage
//
//	app.Listen(cfg.Server.Address())
package server
