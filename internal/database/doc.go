// Package database provides the SQLite settings store of the helper.
//
// It keeps:
//   - The current settings as a YAML document
//   - A bounded history of saved revisions
//   - A small key/value metadata table
//
// The database uses WAL mode and creates its schema on open.
package database
