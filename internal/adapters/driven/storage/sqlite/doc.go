// Package sqlite stores reference data (markers and critical thresholds) in
// SQLite so a deployment can manage it outside the binary.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.labtriage/data/refdata.db
package sqlite
