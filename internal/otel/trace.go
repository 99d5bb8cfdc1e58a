package otel

import (
	"os"
	"strings"
	"sync/atomic"
)

// traceEnabled is read from the UI goroutine and written by tests.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(traceSetting(os.Getenv("EMSAL_TRACE")))
}

// traceSetting interprets EMSAL_TRACE. Empty and the usual negative
// spellings leave tracing off.
func traceSetting(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

// TraceEnabled reports whether message tracing is on. When it is, the UI
// journals every message it receives.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
