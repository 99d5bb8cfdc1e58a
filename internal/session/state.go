package session

import (
	"fmt"

	"github.com/abelbrown/emsal/internal/model"
	"github.com/abelbrown/emsal/internal/selection"
)

// State is a point-in-time copy of the research session. Views read it and
// never mutate the controller through it.
type State struct {
	// Search session
	Query         string
	Page          int
	Filters       model.FilterSet
	Sources       []model.Source
	Results       *model.SearchPage
	SearchLoading bool
	SearchError   string

	FilterPanelOpen  bool
	SourcePickerOpen bool

	// Selected items in selection order.
	Selected []model.ResultItem

	// Viewing is nil when the document modal is closed.
	Viewing         *model.FullDocument
	DocumentLoading bool
	DocumentError   string

	Analysis AnalysisState

	Chat        []model.ChatMessage
	ChatPending bool
}

// AnalysisState is the single active analysis.
type AnalysisState struct {
	Action   model.AnalysisAction
	Result   string
	Provider string
	Loading  bool
	Error    string
}

// CanSummarize reports whether the current selection permits a summary.
func (s State) CanSummarize() bool {
	return selection.CanSummarize(len(s.Selected))
}

// CanCompare reports whether the current selection permits a comparison.
func (s State) CanCompare() bool {
	return selection.CanCompare(len(s.Selected))
}

// IsSelected reports whether the item with id is in the selection.
func (s State) IsSelected(id string) bool {
	for _, it := range s.Selected {
		if it.ID == id {
			return true
		}
	}
	return false
}

// LoadingMessage describes the analysis in progress.
func (s State) LoadingMessage() string {
	switch s.Analysis.Action {
	case model.ActionSummarize:
		title := ""
		if len(s.Selected) > 0 {
			title = s.Selected[0].Title
		}
		return fmt.Sprintf("%q başlıklı belge özetleniyor...", title)
	case model.ActionCompare:
		return fmt.Sprintf("%d adet belge karşılaştırılıyor...", len(s.Selected))
	}
	return "Analiz ediliyor..."
}
