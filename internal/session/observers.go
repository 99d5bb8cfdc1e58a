package session

import (
	"sync/atomic"

	"github.com/abelbrown/emsal/internal/logging"
	"github.com/abelbrown/emsal/internal/model"
	"github.com/abelbrown/emsal/internal/otel"
)

// JournalObserver writes every transition to the event journal.
func JournalObserver(j *otel.Journal) Observer {
	return func(e Event) {
		j.Emit(journalEvent(e))
	}
}

func journalEvent(e Event) otel.Event {
	ev := otel.Event{
		Time:     e.Time,
		Level:    otel.LevelInfo,
		Comp:     "session",
		Dur:      e.Dur,
		Page:     e.Page,
		Query:    e.Query,
		DocID:    e.DocID,
		Action:   string(e.Action),
		Provider: e.Provider,
		Err:      e.Err,
	}
	for _, s := range e.Sources {
		ev.Sources = append(ev.Sources, string(s))
	}

	switch e.Kind {
	case EventSearchStart:
		ev.Kind = otel.KindSearchStart
	case EventSearchComplete:
		ev.Kind = otel.KindSearchComplete
		ev.Count = e.Total
	case EventSearchError:
		ev.Kind, ev.Level = otel.KindSearchError, otel.LevelWarn
	case EventSearchRedirect:
		ev.Kind = otel.KindSearchRedirect
	case EventDocumentOpen:
		ev.Kind = otel.KindDocumentOpen
	case EventDocumentComplete:
		ev.Kind = otel.KindDocumentComplete
	case EventDocumentError:
		ev.Kind, ev.Level = otel.KindDocumentError, otel.LevelWarn
	case EventAnalysisStart:
		ev.Kind = otel.KindAnalysisStart
		ev.Count = len(e.DocIDs)
	case EventAnalysisComplete:
		ev.Kind = otel.KindAnalysisComplete
		ev.Count = len(e.DocIDs)
		if e.Err != "" {
			ev.Level = otel.LevelWarn
		}
	case EventAnalysisError:
		ev.Kind, ev.Level = otel.KindAnalysisError, otel.LevelWarn
		ev.Count = len(e.DocIDs)
	case EventAnalysisIgnored:
		ev.Kind, ev.Level = otel.KindAnalysisIgnored, otel.LevelDebug
		ev.Count = e.Total
	case EventChatSend:
		ev.Kind = otel.KindChatSend
		ev.Count = e.Total
	case EventChatReply:
		ev.Kind = otel.KindChatReply
		if e.Err != "" {
			ev.Level = otel.LevelWarn
		}
	case EventStale:
		ev.Kind, ev.Level = otel.KindStale, otel.LevelDebug
		ev.Msg = e.Text
	default:
		ev.Kind, ev.Level = otel.KindSessionChange, otel.LevelDebug
		ev.Msg = string(e.Kind)
	}
	return ev
}

// History records completed research for later recall.
type History interface {
	RecordSearch(query string, sources []model.Source, filters model.FilterSet, page, total int) error
	RecordAnalysis(action model.AnalysisAction, docIDs []string, provider, result, errMsg string) error
}

// HistoryObserver stores successful searches and every settled analysis.
// Storage failures are logged and otherwise ignored. It writes on the
// calling goroutine; the console subscribes a HistoryWriter instead.
func HistoryObserver(h History) Observer {
	return func(e Event) {
		var err error
		switch e.Kind {
		case EventSearchComplete:
			err = h.RecordSearch(e.Query, e.Sources, e.Filters, e.Page, e.Total)
		case EventAnalysisComplete:
			result := e.Text
			if e.Err != "" {
				result = ""
			}
			err = h.RecordAnalysis(e.Action, e.DocIDs, e.Provider, result, e.Err)
		case EventAnalysisError:
			err = h.RecordAnalysis(e.Action, e.DocIDs, "", "", e.Err)
		default:
			return
		}
		if err != nil {
			logging.Warn("Failed to record history", "event", e.Kind, "error", err)
		}
	}
}

// historyQueueSize bounds the writes waiting for the database.
const historyQueueSize = 64

// HistoryWriter applies history writes on its own goroutine so the event
// loop never waits on SQLite. Writes keep their order; a full queue drops
// the write.
type HistoryWriter struct {
	record  Observer
	ch      chan Event
	done    chan struct{}
	closed  atomic.Bool
	dropped atomic.Uint64
}

// NewHistoryWriter starts a writer for h. Close it to flush.
func NewHistoryWriter(h History) *HistoryWriter {
	w := &HistoryWriter{
		record: HistoryObserver(h),
		ch:     make(chan Event, historyQueueSize),
		done:   make(chan struct{}),
	}
	go w.drain()
	return w
}

func (w *HistoryWriter) drain() {
	defer close(w.done)
	for e := range w.ch {
		w.record(e)
	}
}

// Observe queues the events HistoryObserver records and skips the rest.
// Subscribe it on the controller.
func (w *HistoryWriter) Observe(e Event) {
	switch e.Kind {
	case EventSearchComplete, EventAnalysisComplete, EventAnalysisError:
	default:
		return
	}
	if w.closed.Load() {
		w.dropped.Add(1)
		return
	}
	e.Sources = append([]model.Source(nil), e.Sources...)
	e.DocIDs = append([]string(nil), e.DocIDs...)
	select {
	case w.ch <- e:
	default:
		w.dropped.Add(1)
		logging.Warn("History queue full, dropping write", "event", e.Kind)
	}
}

// Dropped returns the number of writes that never reached the store.
func (w *HistoryWriter) Dropped() uint64 {
	return w.dropped.Load()
}

// Close stops accepting writes and waits for queued ones to finish.
// Observe must not run concurrently with Close.
func (w *HistoryWriter) Close() {
	if w.closed.Swap(true) {
		return
	}
	close(w.ch)
	<-w.done
}

// LogObserver mirrors transitions into the file log.
func LogObserver() Observer {
	return func(e Event) {
		switch e.Kind {
		case EventSearchError, EventDocumentError, EventAnalysisError:
			logging.Warn("Session request failed", "event", e.Kind, "query", e.Query, "doc", e.DocID, "error", e.Err)
		case EventSearchComplete:
			logging.Info("Search complete", "query", e.Query, "page", e.Page, "total", e.Total, "duration", e.Dur)
		case EventAnalysisComplete:
			logging.Info("Analysis complete", "action", e.Action, "docs", len(e.DocIDs), "provider", e.Provider, "duration", e.Dur)
		default:
			logging.Debug("Session event", "event", e.Kind)
		}
	}
}
