// Package otel records research-session activity as a JSONL event journal.
//
// Events are typed structs written one per line by a background goroutine.
// An attached RingBuffer keeps the most recent events in memory for the
// debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<scope>.<action>".
type EventKind string

const (
	// Search events
	KindSearchStart    EventKind = "search.start"
	KindSearchComplete EventKind = "search.complete"
	KindSearchError    EventKind = "search.error"
	KindSearchRedirect EventKind = "search.redirect"

	// Document events
	KindDocumentOpen     EventKind = "document.open"
	KindDocumentComplete EventKind = "document.complete"
	KindDocumentError    EventKind = "document.error"

	// Analysis events
	KindAnalysisStart    EventKind = "analysis.start"
	KindAnalysisComplete EventKind = "analysis.complete"
	KindAnalysisError    EventKind = "analysis.error"
	KindAnalysisIgnored  EventKind = "analysis.ignored"

	// Chat events
	KindChatSend  EventKind = "chat.send"
	KindChatReply EventKind = "chat.reply"

	// Session events that are not tied to a request
	KindSessionChange EventKind = "session.change"
	KindStale         EventKind = "session.stale"

	// Store events
	KindStoreError EventKind = "store.error"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Message tracing, only with EMSAL_TRACE set
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is one journal record. Every field except Kind and Time is optional.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "session", "ui", "store", "main"
	SessionID string         `json:"session_id,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Page      int            `json:"page,omitempty"`
	Query     string         `json:"query,omitempty"`
	Sources   []string       `json:"sources,omitempty"`
	DocID     string         `json:"doc_id,omitempty"`
	Action    string         `json:"action,omitempty"`
	Provider  string         `json:"provider,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
