package main

import (
	"log"
	"path/filepath"

	"github.com/abelbrown/emsal/internal/config"
	"github.com/abelbrown/emsal/internal/store"
)

// loadConfig reads the console configuration or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// dbPath returns the path to emsal.db.
func dbPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "emsal.db")
}

// eventLogPath returns the path to events.jsonl.
func eventLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "events.jsonl")
}

// openDB opens the store or fatals.
func openDB(cfg *config.Config) *store.Store {
	st, err := store.Open(dbPath(cfg))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return st
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
