package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/emsal/internal/logging"
	"github.com/abelbrown/emsal/internal/model"
)

// ErrNoProvider is reported when no AI provider is configured.
var ErrNoProvider = errors.New("yapılandırılmış bir yapay zeka sağlayıcısı yok")

// Result is the outcome of an AI call. A failed call is still a Result:
// its error renders as ordinary text through Display.
type Result struct {
	Text     string
	Err      error
	Provider string
}

// Display returns the text to show the user, success or not.
func (r Result) Display() string {
	if r.Err == nil {
		return r.Text
	}
	return fmt.Sprintf("%s API hatası: %s", providerLabel(r.Provider), r.Err.Error())
}

// Failed reports whether the call produced an error instead of text.
func (r Result) Failed() bool {
	return r.Err != nil
}

func providerLabel(name string) string {
	switch name {
	case "gemini":
		return "Gemini"
	case "ollama":
		return "Ollama"
	case "":
		return "Yapay zeka"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Analyst produces summaries, comparisons and chat replies for legal documents.
type Analyst struct {
	providers    *ProviderManager
	timeout      time.Duration
	compareLimit int
}

// AnalystOption configures an Analyst.
type AnalystOption func(*Analyst)

// WithTimeout bounds every AI call. Zero disables the bound.
func WithTimeout(d time.Duration) AnalystOption {
	return func(a *Analyst) { a.timeout = d }
}

// WithCompareCharLimit sets the per-document body limit for comparisons.
func WithCompareCharLimit(n int) AnalystOption {
	return func(a *Analyst) { a.compareLimit = n }
}

// NewAnalyst creates an Analyst backed by the manager's available provider.
func NewAnalyst(pm *ProviderManager, opts ...AnalystOption) *Analyst {
	a := &Analyst{
		providers:    pm,
		timeout:      15 * time.Second,
		compareLimit: DefaultCompareCharLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Summarize asks for a summary of a single document.
func (a *Analyst) Summarize(ctx context.Context, doc model.FullDocument) Result {
	return a.generate(ctx, "summarize", Request{UserPrompt: summarizePrompt(doc)})
}

// Compare asks for a comparative analysis of two or more documents.
func (a *Analyst) Compare(ctx context.Context, docs []model.FullDocument) Result {
	return a.generate(ctx, "compare", Request{UserPrompt: comparePrompt(docs, a.compareLimit)})
}

// Reply answers a follow-up question about an analysis. thread holds the
// messages exchanged before message, oldest first.
func (a *Analyst) Reply(ctx context.Context, analysis string, thread []model.ChatMessage, message string) Result {
	return a.generate(ctx, "chat", Request{
		SystemPrompt: chatSystemPrompt,
		History:      chatHistory(analysis, thread),
		UserPrompt:   message,
	})
}

func (a *Analyst) generate(ctx context.Context, op string, req Request) Result {
	var p Provider
	if a.providers != nil {
		p = a.providers.GetAvailable()
	}
	if p == nil {
		logging.Warn("No AI provider available", "op", op)
		return Result{Err: ErrNoProvider}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("istek zaman aşımına uğradı: %w", err)
		}
		logging.Error("AI call failed", "op", op, "provider", p.Name(), "error", err)
		return Result{Err: err, Provider: p.Name()}
	}

	logging.Info("AI call complete", "op", op, "provider", p.Name(), "model", resp.Model,
		"duration", time.Since(start).Round(time.Millisecond))
	return Result{Text: resp.Content, Provider: p.Name()}
}
