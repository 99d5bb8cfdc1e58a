// Package store persists research history in SQLite: the searches a user
// ran and the analyses they received.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/emsal/internal/model"
)

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

// Store handles SQLite persistence. NOT an interface - concrete type.
// All methods are safe for concurrent use.
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	sessionID string
	now       func() time.Time
}

// SearchRecord is one successful search.
type SearchRecord struct {
	ID        string
	SessionID string
	Query     string
	Sources   []model.Source
	Filters   model.FilterSet
	Page      int
	Total     int
	At        time.Time
}

// AnalysisRecord is one settled analysis.
type AnalysisRecord struct {
	ID        string
	SessionID string
	Action    model.AnalysisAction
	DocIDs    []string
	Provider  string
	Result    string
	Err       string
	At        time.Time
}

// Open opens or creates the database at dbPath. ":memory:" gives an
// in-memory database that lives until Close.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection keeps every caller on the same in-memory database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, sessionID: uuid.NewString(), now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		query TEXT NOT NULL,
		sources TEXT NOT NULL,
		filters TEXT NOT NULL,
		page INTEGER NOT NULL,
		total INTEGER NOT NULL,
		searched_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_searches_at ON searches(searched_at DESC);

	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		action TEXT NOT NULL,
		doc_ids TEXT NOT NULL,
		provider TEXT,
		result TEXT,
		error TEXT,
		analyzed_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_at ON analyses(analyzed_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// SetSessionID tags subsequent records with id, normally the journal's
// session so history rows and events can be joined.
func (s *Store) SetSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		s.sessionID = id
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// RecordSearch stores a successful search.
func (s *Store) RecordSearch(query string, sources []model.Source, filters model.FilterSet, page, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	srcJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	filterJSON, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO searches (id, session_id, query, sources, filters, page, total, searched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), s.sessionID, query, string(srcJSON), string(filterJSON), page, total, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert search: %w", err)
	}
	return nil
}

// RecentQueries returns up to limit distinct query strings, newest first.
func (s *Store) RecentQueries(limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT query FROM searches
		GROUP BY query
		ORDER BY MAX(searched_at) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent searches: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// RecentSearches returns up to limit searches, newest first.
func (s *Store) RecentSearches(limit int) ([]SearchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, session_id, query, sources, filters, page, total, searched_at
		FROM searches ORDER BY searched_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", err)
	}
	defer rows.Close()

	var out []SearchRecord
	for rows.Next() {
		var r SearchRecord
		var sources, filters string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Query, &sources, &filters, &r.Page, &r.Total, &r.At); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &r.Sources); err != nil {
			return nil, fmt.Errorf("decode sources: %w", err)
		}
		if err := json.Unmarshal([]byte(filters), &r.Filters); err != nil {
			return nil, fmt.Errorf("decode filters: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordAnalysis stores a settled analysis. errMsg is empty on success.
func (s *Store) RecordAnalysis(action model.AnalysisAction, docIDs []string, provider, result, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO analyses (id, session_id, action, doc_ids, provider, result, error, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), s.sessionID, string(action), strings.Join(docIDs, ","), provider, result, errMsg, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// RecentAnalyses returns up to limit analyses, newest first.
func (s *Store) RecentAnalyses(limit int) ([]AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, session_id, action, doc_ids, COALESCE(provider, ''), COALESCE(result, ''), COALESCE(error, ''), analyzed_at
		FROM analyses ORDER BY analyzed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var r AnalysisRecord
		var action, ids string
		if err := rows.Scan(&r.ID, &r.SessionID, &action, &ids, &r.Provider, &r.Result, &r.Err, &r.At); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		r.Action = model.AnalysisAction(action)
		if ids != "" {
			r.DocIDs = strings.Split(ids, ",")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Counts summarizes the history tables.
type Counts struct {
	Searches       int
	Queries        int // distinct query strings
	Analyses       int
	FailedAnalyses int
	Sessions       int
}

// Counts returns row totals across every session.
func (s *Store) Counts() (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Counts
	err := s.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT query) FROM searches`).Scan(&c.Searches, &c.Queries)
	if err != nil {
		return Counts{}, fmt.Errorf("count searches: %w", err)
	}
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0) FROM analyses`).Scan(&c.Analyses, &c.FailedAnalyses)
	if err != nil {
		return Counts{}, fmt.Errorf("count analyses: %w", err)
	}
	err = s.db.QueryRow(`
		SELECT COUNT(*) FROM (
			SELECT session_id FROM searches UNION SELECT session_id FROM analyses
		)`).Scan(&c.Sessions)
	if err != nil {
		return Counts{}, fmt.Errorf("count sessions: %w", err)
	}
	return c, nil
}
