package otel

// The drain goroutine is the only reader of j.ch and the only writer to j.w.
// j.mu guards the ring pointer alone; the ring has its own lock.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize is the capacity of the async write channel.
const queueSize = 2048

type entry struct {
	line []byte
	ev   Event
}

// Journal writes events as JSONL from a background goroutine. Emit never
// blocks; when the queue is full the event is dropped and counted.
type Journal struct {
	mu        sync.Mutex
	ring      *RingBuffer
	sessionID string
	ch        chan entry
	w         io.Writer
	closer    io.Closer
	dropped   atomic.Uint64
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewJournal creates a Journal writing to w.
func NewJournal(w io.Writer) *Journal {
	j := &Journal{
		sessionID: uuid.NewString(),
		ch:        make(chan entry, queueSize),
		w:         w,
		done:      make(chan struct{}),
	}
	go j.drain()
	return j
}

// OpenJournal appends to <dataDir>/events.jsonl, creating it if needed.
func OpenJournal(dataDir string) (*Journal, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("otel: create data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "events.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("otel: open journal: %w", err)
	}
	j := NewJournal(f)
	j.closer = f
	return j, nil
}

// NewNullJournal creates a Journal that discards output.
func NewNullJournal() *Journal {
	return NewJournal(io.Discard)
}

func (j *Journal) drain() {
	defer close(j.done)
	for e := range j.ch {
		if _, err := j.w.Write(e.line); err != nil {
			j.dropped.Add(1)
		}

		j.mu.Lock()
		ring := j.ring
		j.mu.Unlock()

		if ring != nil {
			ring.Push(e.ev)
		}
	}
}

// Emit queues an event, stamping Time (if zero) and the session ID.
// Safe for concurrent use, including with Close.
func (j *Journal) Emit(e Event) {
	defer func() {
		if recover() != nil {
			j.dropped.Add(1)
		}
	}()

	if j.closed.Load() {
		j.dropped.Add(1)
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = j.sessionID

	line, err := json.Marshal(e)
	if err != nil {
		j.dropped.Add(1)
		return
	}
	line = append(line, '\n')

	select {
	case j.ch <- entry{line: line, ev: e}:
	default:
		j.dropped.Add(1)
	}
}

// Info emits an info-level event.
func (j *Journal) Info(kind EventKind, comp, msg string) {
	j.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn-level event.
func (j *Journal) Warn(kind EventKind, comp, msg string) {
	j.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. A nil err is recorded as empty.
func (j *Journal) Error(kind EventKind, comp string, err error) {
	var text string
	if err != nil {
		text = err.Error()
	}
	j.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: text})
}

// SetRingBuffer attaches a ring buffer that receives every written event.
func (j *Journal) SetRingBuffer(ring *RingBuffer) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ring = ring
}

// SessionID identifies this run in the journal and in research history.
func (j *Journal) SessionID() string {
	return j.sessionID
}

// Dropped returns the number of events lost so far.
func (j *Journal) Dropped() uint64 {
	return j.dropped.Load()
}

// Close flushes queued events and stops the writer. Idempotent.
func (j *Journal) Close() {
	j.closeOnce.Do(func() {
		j.closed.Store(true)
		close(j.ch)
		<-j.done

		if j.closer != nil {
			_ = j.closer.Close()
		}
		if d := j.dropped.Load(); d > 0 {
			fmt.Fprintf(os.Stderr, "emsal: %d journal events dropped in session %s\n", d, j.sessionID)
		}
	})
}
