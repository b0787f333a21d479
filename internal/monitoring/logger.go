// Package monitoring carries the engine's diagnostic logging hooks.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or
// mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Quality logs a data-quality diagnostic. These are non-fatal: the engine
// recovers via a documented fallback, but operators need the trail to judge
// whether the underlying export should be re-run.
func Quality(format string, v ...interface{}) {
	Logf("data-quality: "+format, v...)
}
