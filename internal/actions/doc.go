// Package actions runs the external programs requested by the client:
// opening a file with its default or a named application, launching an
// application, and executing a command with captured output.
//
// Detached programs (open, open-with, launch) are tracked until they exit so
// Cleanup can stop them when the helper shuts down.
package actions
