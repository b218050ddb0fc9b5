// Package database provides SQLite-backed persistence for sites, scan
// runs, and accessibility findings.
//
// The package owns the schema and all SQL. Callers work with the model
// package's types; no SQL types or query strings leak out. A single
// database file holds all tables so that relationship queries and
// backup/restore stay simple.
package database
