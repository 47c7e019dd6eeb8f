// Package database provides SQLite connection management for the GateWise
// event store.
//
// The database holds the append-only access and garage event log. User and
// schedule data live in JSON documents managed by the access package, not
// here; the database is purely history.
//
// # Features
//
//   - WAL mode for concurrent reads during event appends
//   - Forward-only schema migrations embedded in the binary
//   - Health checks for the /health endpoint
//   - Single-connection pool matching SQLite's single-writer model
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        "./data/gatewise.db",
//	    WALMode:     true,
//	    BusyTimeout: 5,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
