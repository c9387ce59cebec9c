// Package helper is the client of the helper service.
//
// Each operation exists in two forms. The callback form (InfoAsync,
// OpenAsync, ...) returns immediately and delivers the reply on the client's
// bridge.Loop. The blocking form (Info, Open, ...) waits for the same reply
// through bridge.Call, bounded by the configured timeouts.
package helper
