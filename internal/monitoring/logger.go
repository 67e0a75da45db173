// Package monitoring holds the package-level diagnostic loggers shared by
// the analysis packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var verbose bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose enables or disables Debugf output.
func SetVerbose(v bool) {
	verbose = v
}

// Verbose reports whether Debugf output is enabled.
func Verbose() bool {
	return verbose
}

// Debugf logs through Logf only when verbose output is enabled. Per-pair and
// per-buffer diagnostics go here so the default run stays quiet.
func Debugf(format string, v ...interface{}) {
	if !verbose {
		return
	}
	Logf("[debug] "+format, v...)
}
