// Package inspector runs the client side of one inspection: classify the
// selected item, ask the helper for its record, and build the menu.
//
// An Inspector handles one item at a time. The state of the last request
// (path, classification, record, menu) replaces the previous one when the
// next request starts, and menu entries are activated against it.
package inspector
