// Package runlog persists a history of sync runs in a local SQLite database
// so past runs can be reviewed from the CLI.
package runlog
