package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

// latency aggregates the durations of one event kind.
type latency struct {
	n        int
	sum, max float64
	all      []float64
}

func (l *latency) add(ms float64) {
	l.n++
	l.sum += ms
	if ms > l.max {
		l.max = ms
	}
	l.all = append(l.all, ms)
}

func (l *latency) p50() float64 {
	if l.n == 0 {
		return 0
	}
	s := append([]float64(nil), l.all...)
	sort.Float64s(s)
	return s[len(s)/2]
}

// journalStats summarizes a journal.
type journalStats struct {
	kinds    map[string]int
	latency  map[string]*latency
	sessions map[string]bool
	first    time.Time
	last     time.Time
}

func collectStats(r io.Reader, since time.Time) journalStats {
	js := journalStats{
		kinds:    map[string]int{},
		latency:  map[string]*latency{},
		sessions: map[string]bool{},
	}
	scanEvents(r, func(ev eventRecord, _ []byte) {
		if !since.IsZero() && ev.Time.Before(since) {
			return
		}
		js.kinds[ev.Kind]++
		if ev.SessionID != "" {
			js.sessions[ev.SessionID] = true
		}
		if ev.DurMs > 0 {
			lat := js.latency[ev.Kind]
			if lat == nil {
				lat = &latency{}
				js.latency[ev.Kind] = lat
			}
			lat.add(ev.DurMs)
		}
		if js.first.IsZero() || ev.Time.Before(js.first) {
			js.first = ev.Time
		}
		if ev.Time.After(js.last) {
			js.last = ev.Time
		}
	})
	return js
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	window := fs.Duration("since", 0, "Only count events newer than this (e.g. 24h); 0 = all")
	noDB := fs.Bool("no-db", false, "Skip the history database section")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()

	var since time.Time
	if *window > 0 {
		since = time.Now().Add(-*window)
	}

	f, err := os.Open(eventLogPath(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "journal: %v\n", err)
	} else {
		js := collectStats(f, since)
		f.Close()
		printJournalStats(os.Stdout, js)
	}

	if *noDB {
		return
	}

	st := openDB(cfg)
	defer st.Close()
	c, err := st.Counts()
	if err != nil {
		log.Fatalf("count history: %v", err)
	}

	fmt.Println()
	fmt.Println("=== History ===")
	fmt.Printf("Searches:              %d (%d distinct queries)\n", c.Searches, c.Queries)
	fmt.Printf("Analyses:              %d (%d failed)\n", c.Analyses, c.FailedAnalyses)
	fmt.Printf("Sessions:              %d\n", c.Sessions)
}

func printJournalStats(w io.Writer, js journalStats) {
	total := 0
	for _, n := range js.kinds {
		total += n
	}
	fmt.Fprintln(w, "=== Journal ===")
	fmt.Fprintf(w, "Events:                %d\n", total)
	fmt.Fprintf(w, "Sessions:              %d\n", len(js.sessions))
	if total == 0 {
		return
	}
	fmt.Fprintf(w, "Span:                  %s .. %s\n",
		js.first.Local().Format(time.DateTime), js.last.Local().Format(time.DateTime))

	kinds := make([]string, 0, len(js.kinds))
	for k := range js.kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	fmt.Fprintf(w, "\nBy kind (%d):\n", len(kinds))
	for _, k := range kinds {
		marker := ""
		if strings.HasSuffix(k, ".error") {
			marker = "  !"
		}
		fmt.Fprintf(w, "  %-22s %6d%s\n", k, js.kinds[k], marker)
	}

	if len(js.latency) == 0 {
		return
	}
	fmt.Fprintln(w, "\nLatency (ms):")
	fmt.Fprintf(w, "  %-22s %6s %8s %8s %8s\n", "kind", "n", "avg", "p50", "max")
	lkinds := make([]string, 0, len(js.latency))
	for k := range js.latency {
		lkinds = append(lkinds, k)
	}
	sort.Strings(lkinds)
	for _, k := range lkinds {
		l := js.latency[k]
		fmt.Fprintf(w, "  %-22s %6d %8.0f %8.0f %8.0f\n", k, l.n, l.sum/float64(l.n), l.p50(), l.max)
	}
}
