// Package logging provides a small leveled logger shared by the helper
// service and the mediainfo CLI.
//
// Levels, lowest first: DEBUG, INFO, WARN, ERROR. FATAL always prints and
// exits. The initial level comes from DEBUG=true or LOG_LEVEL and can be
// changed at runtime with SetLevel.
package logging
