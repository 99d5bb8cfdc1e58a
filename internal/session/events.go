package session

import (
	"time"

	"github.com/abelbrown/emsal/internal/model"
)

// EventKind names a controller transition. Dot-delimited: "<scope>.<action>".
type EventKind string

const (
	EventSearchStart    EventKind = "search.start"
	EventSearchComplete EventKind = "search.complete"
	EventSearchError    EventKind = "search.error"
	EventSearchRedirect EventKind = "search.redirect"

	EventSourcesConfirm EventKind = "sources.confirm"
	EventFiltersChange  EventKind = "filters.change"
	EventPanelChange    EventKind = "ui.panel"
	EventSelection      EventKind = "selection.change"

	EventDocumentOpen     EventKind = "document.open"
	EventDocumentComplete EventKind = "document.complete"
	EventDocumentError    EventKind = "document.error"
	EventDocumentClose    EventKind = "document.close"

	EventAnalysisStart    EventKind = "analysis.start"
	EventAnalysisComplete EventKind = "analysis.complete"
	EventAnalysisError    EventKind = "analysis.error"
	EventAnalysisIgnored  EventKind = "analysis.ignored"

	EventChatSend  EventKind = "chat.send"
	EventChatReply EventKind = "chat.reply"

	// EventStale reports a completion discarded because a newer request superseded it.
	EventStale EventKind = "session.stale"
)

// Event describes one transition. Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind
	Time     time.Time
	Query    string
	Page     int
	Sources  []model.Source
	Filters  model.FilterSet
	Total    int
	DocID    string
	DocIDs   []string
	Action   model.AnalysisAction
	Provider string
	Text     string
	Err      string
	Dur      time.Duration
}

// Observer receives events synchronously on the event-loop goroutine.
// It must not call back into the controller.
type Observer func(Event)
