package session

import (
	"context"

	"github.com/abelbrown/emsal/internal/api"
	"github.com/abelbrown/emsal/internal/brain"
	"github.com/abelbrown/emsal/internal/model"
)

// SearchClient runs a paginated full-text query.
type SearchClient interface {
	Search(ctx context.Context, req api.SearchRequest) (*model.SearchPage, error)
}

// DocumentClient fetches one full document.
type DocumentClient interface {
	Document(ctx context.Context, source model.Source, id string) (*model.FullDocument, error)
}

// Analyst produces AI text. Failures come back inside the Result, never as
// a separate error.
type Analyst interface {
	Summarize(ctx context.Context, doc model.FullDocument) brain.Result
	Compare(ctx context.Context, docs []model.FullDocument) brain.Result
	Reply(ctx context.Context, analysis string, thread []model.ChatMessage, message string) brain.Result
}

// Deps are the collaborators a Controller coordinates.
type Deps struct {
	Search    SearchClient
	Documents DocumentClient
	Analyst   Analyst
}
