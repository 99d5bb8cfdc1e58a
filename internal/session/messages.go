package session

import (
	"time"

	"github.com/abelbrown/emsal/internal/api"
	"github.com/abelbrown/emsal/internal/brain"
	"github.com/abelbrown/emsal/internal/model"
)

// Completion messages are returned by the commands the controller hands
// out and must be passed back through Update. Gen identifies the request;
// a message whose Gen is no longer current is discarded.

// SearchCompleted carries the outcome of a search request.
type SearchCompleted struct {
	Gen     uint64
	Request api.SearchRequest
	Page    *model.SearchPage
	Err     error
	Started time.Time
}

// DocumentLoaded carries the outcome of a document fetch for the modal.
type DocumentLoaded struct {
	Gen      uint64
	Item     model.ResultItem
	Document *model.FullDocument
	Err      error
	Started  time.Time
}

// AnalysisCompleted carries the outcome of a summarize or compare run.
// Err is set only when a document fetch failed and no AI call was made.
type AnalysisCompleted struct {
	Gen     uint64
	Action  model.AnalysisAction
	Items   []model.ResultItem
	Result  brain.Result
	Err     error
	Started time.Time
}

// ChatReplied carries the reply to a chat message.
type ChatReplied struct {
	Gen     uint64
	Result  brain.Result
	Started time.Time
}
