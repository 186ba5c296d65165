// Package tracelog provides the structured enter/exit/state tracing
// used by the layout planner, schema compiler, and interpreter, in
// place of the teacher's bitbuffer.Codec.Trace method (a compile-time
// ENABLE_TRACE constant gating a bare println). This keeps the same
// gesture — one hook called at the same handful of program points —
// but backs it with logrus so verbosity is a normal runtime call
// rather than a rebuild, and traced values are structured fields
// rather than a formatted string.
package tracelog

import "github.com/sirupsen/logrus"

var log = logrus.New()

func init() {
	log.SetLevel(logrus.WarnLevel)
}

// SetLevel adjusts trace verbosity at runtime. logrus.DebugLevel shows
// the Enter/Exit lines; logrus.TraceLevel adds the per-field Event
// lines of the layout planner, compiler and interpreter.
func SetLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Logger exposes the underlying *logrus.Logger for callers that want
// to redirect output or attach hooks.
func Logger() *logrus.Logger {
	return log
}

// Enter logs entry into a traced operation with structured fields.
func Enter(function string, fields logrus.Fields) {
	log.WithFields(fields).Debugf("enter %s", function)
}

// Exit logs a traced operation's completion.
func Exit(function string, fields logrus.Fields) {
	log.WithFields(fields).Debugf("exit %s", function)
}

// Event logs a one-off traced state transition (e.g. a byte flush, a
// magic comparison) that doesn't fit the enter/exit shape.
func Event(function, message string, fields logrus.Fields) {
	log.WithFields(fields).Tracef("%s: %s", function, message)
}
