// Command emsal is a terminal research console for Turkish court and
// regulatory decisions: search, read, summarize, compare and discuss.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/emsal/internal/api"
	"github.com/abelbrown/emsal/internal/brain"
	"github.com/abelbrown/emsal/internal/config"
	"github.com/abelbrown/emsal/internal/logging"
	"github.com/abelbrown/emsal/internal/otel"
	"github.com/abelbrown/emsal/internal/session"
	"github.com/abelbrown/emsal/internal/store"
	"github.com/abelbrown/emsal/internal/ui"
)

func main() {
	dataDir := flag.String("data", "", "data directory (default $EMSAL_DATA_DIR or ~/.emsal)")
	keysFile := flag.String("keys", "", "shell file of `export KEY=value` lines to read API keys from")
	writeConfig := flag.Bool("write-config", false, "write the effective configuration to config.toml and exit")
	flag.Parse()

	cfg, err := config.Load(*dataDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *keysFile != "" {
		if err := cfg.LoadKeysFromFile(*keysFile); err != nil {
			log.Fatalf("Failed to read keys file: %v", err)
		}
	}
	if *writeConfig {
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Println("Wrote", config.Path(cfg.DataDir))
		return
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	if err := logging.Init(cfg.DataDir, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logging: %v", err)
	}
	defer logging.Close()

	journal, err := otel.OpenJournal(cfg.DataDir)
	if err != nil {
		logging.Warn("Event journal unavailable", "error", err)
		journal = otel.NewNullJournal()
	}
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	journal.SetRingBuffer(ring)
	defer journal.Close()

	// History is optional: the console works without it.
	var history *store.Store
	if st, err := store.Open(filepath.Join(cfg.DataDir, "emsal.db")); err != nil {
		logging.Warn("Research history unavailable", "error", err)
		journal.Error(otel.KindStoreError, "main", err)
	} else {
		st.SetSessionID(journal.SessionID())
		history = st
		defer history.Close()
	}

	apiTimeout, _ := cfg.APITimeout()
	aiTimeout, _ := cfg.AITimeout()

	client := api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(apiTimeout),
		api.WithRateLimit(cfg.API.RatePerSecond),
	)

	providers, err := newProviders(cfg)
	if err != nil {
		logging.Error("Failed to set up AI providers", "error", err)
		journal.Error(otel.KindError, "main", err)
	}
	analyst := brain.NewAnalyst(providers,
		brain.WithTimeout(aiTimeout),
		brain.WithCompareCharLimit(cfg.AI.CompareCharLimit),
	)

	ctrl := session.New(session.Deps{Search: client, Documents: client, Analyst: analyst})
	defer ctrl.Close()
	ctrl.Subscribe(session.JournalObserver(journal))
	ctrl.Subscribe(session.LogObserver())

	opts := ui.Options{
		Controller: ctrl,
		Ring:       ring,
		Journal:    journal,
		RecallSize: cfg.UI.HistorySize,
	}
	if history != nil {
		writer := session.NewHistoryWriter(history)
		defer func() {
			writer.Close()
			if n := writer.Dropped(); n > 0 {
				logging.Warn("History writes dropped", "count", n)
			}
		}()
		ctrl.Subscribe(writer.Observe)
		opts.History = history
	}

	journal.Emit(otel.Event{
		Level:    otel.LevelInfo,
		Kind:     otel.KindStartup,
		Comp:     "main",
		Provider: cfg.AI.Provider,
		Msg:      fmt.Sprintf("api=%s providers=%v", cfg.API.BaseURL, providers.ListAvailable()),
	})
	logging.Info("Starting console", "api", cfg.API.BaseURL, "provider", cfg.AI.Provider, "session", journal.SessionID())

	program := tea.NewProgram(ui.NewApp(opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logging.Error("Error running program", "error", err)
		log.Printf("Error running program: %v", err)
	}

	journal.Info(otel.KindShutdown, "main", "console closed")
}

// newProviders registers every configured backend with cfg.AI.Provider
// preferred. The returned manager is usable even when err is set.
func newProviders(cfg *config.Config) (*brain.ProviderManager, error) {
	pm := brain.NewProviderManager()
	pm.SetPreferred(cfg.AI.Provider)

	var firstErr error
	gemini, err := brain.NewGeminiProvider(context.Background(), cfg.AI.Gemini.APIKey, cfg.AI.Gemini.Model)
	if err != nil {
		firstErr = err
	} else {
		pm.AddProvider(gemini)
	}

	ollama, err := brain.NewOllamaProvider(cfg.AI.Ollama.Host, cfg.AI.Ollama.Model)
	if err != nil && firstErr == nil {
		firstErr = err
	} else if err == nil {
		pm.AddProvider(ollama)
	}
	return pm, firstErr
}
