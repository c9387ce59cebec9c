// Package settings defines the user configuration consumed by the classifier
// and the menu builder: per-domain enable flags and menu templates, folder
// walking limits, custom formats, the engine priority list, and the menu
// action.
//
// Settings are stored as YAML. Parse overlays a file on top of Default, so a
// file only needs the keys it changes. Watch publishes a new value each time
// the file changes on disk; callers take a Clone per request and never share
// the value they classify with.
package settings
