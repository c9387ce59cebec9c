// Package handlers provides the HTTP handlers of the helper service.
//
// It includes handlers for:
//   - Metadata extraction by type tag
//   - Opening files, launching applications and running commands
//   - Menu icons
//   - Reading and replacing the settings
//   - Health checks, version and metrics
package handlers
