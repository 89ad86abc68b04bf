// Package database handles database connections and schema inspection.
//
// It wraps GORM to open the snapshot database with the configured driver:
// SQLite for single-host deployments, MySQL or PostgreSQL when the snapshot
// lives on a shared server.
//
// # Connect
//
// Connect selects the dialector, applies pool settings and pings the server
// within the configured timeout. Close releases the pool.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read the live column list of a table so
// the integrity check can report a snapshot table that drifted from the model.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//	defer database.Close(db)
//
//	missing, err := database.MissingColumns(db, "events", []string{"uid", "hash"})
package database
