// Package monitoring is the injected diagnostic sink for library code.
// Packages report through Logf instead of calling log directly, keeping the
// core free of I/O side effects and letting tests capture or mute output.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil sets a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Capture redirects the logger into lines and returns a restore function:
//
//	defer monitoring.Capture(&lines)()
func Capture(lines *[]string) func() {
	prev := Logf
	SetLogger(func(format string, v ...interface{}) {
		*lines = append(*lines, fmt.Sprintf(format, v...))
	})
	return func() { Logf = prev }
}
