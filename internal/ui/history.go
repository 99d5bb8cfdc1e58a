package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/emsal/internal/model"
	"github.com/abelbrown/emsal/internal/store"
)

// History is the read side of the research journal. *store.Store
// satisfies it.
type History interface {
	RecentQueries(limit int) ([]string, error)
	RecentSearches(limit int) ([]store.SearchRecord, error)
	RecentAnalyses(limit int) ([]store.AnalysisRecord, error)
}

const (
	defaultRecallSize = 20
	historyListSize   = 15
)

func loadRecentQueries(h History, n int) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		q, err := h.RecentQueries(n)
		return RecentQueriesLoaded{Queries: q, Err: err}
	}
}

func loadHistory(h History) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		searches, err := h.RecentSearches(historyListSize)
		if err != nil {
			return HistoryLoaded{Err: err}
		}
		analyses, err := h.RecentAnalyses(historyListSize)
		return HistoryLoaded{Searches: searches, Analyses: analyses, Err: err}
	}
}

// historyOverlay renders past searches and analyses.
func historyOverlay(h HistoryLoaded, width, height int) string {
	var lines []string
	if h.Err != nil {
		lines = append(lines, ErrorStyle.Render("Geçmiş okunamadı: "+h.Err.Error()))
	}

	lines = append(lines, DebugHeaderStyle.Render("Son Aramalar"))
	if len(h.Searches) == 0 {
		lines = append(lines, StatusBarText.Render("  kayıt yok"))
	}
	for _, s := range h.Searches {
		srcs := make([]string, len(s.Sources))
		for i, src := range s.Sources {
			srcs[i] = string(src)
		}
		lines = append(lines, fmt.Sprintf("  %s  %-24s  s.%d  %d sonuç  %s",
			s.At.Local().Format("02.01 15:04"), truncateRunes(s.Query, 24), s.Page, s.Total,
			truncateRunes(strings.Join(srcs, ", "), 40)))
	}
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Son Analizler"))
	if len(h.Analyses) == 0 {
		lines = append(lines, StatusBarText.Render("  kayıt yok"))
	}
	for _, a := range h.Analyses {
		kind := "özet"
		if a.Action == model.ActionCompare {
			kind = "karşılaştırma"
		}
		line := fmt.Sprintf("  %s  %-13s  %d belge  %s",
			a.At.Local().Format("02.01 15:04"), kind, len(a.DocIDs), a.Provider)
		if a.Err != "" {
			line += "  " + ErrorStyle.Render(truncateRunes(a.Err, 30))
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}
	panelWidth := 96
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}
	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}
