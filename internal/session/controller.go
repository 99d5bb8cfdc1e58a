// Package session owns the state of one research session: the search, the
// source and filter choices, the selection, the open document, the active
// analysis and its chat. Views dispatch actions into a Controller and read
// State snapshots back.
//
// A Controller belongs to the Bubble Tea event loop. Actions and Update must
// only be called from that goroutine. Network work runs inside the returned
// tea.Cmd on captured copies, and its result comes back as a message.
package session

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/emsal/internal/api"
	"github.com/abelbrown/emsal/internal/logging"
	"github.com/abelbrown/emsal/internal/model"
	"github.com/abelbrown/emsal/internal/selection"
)

// Fallback messages used when a failure carries no text of its own.
const (
	msgSearchFailed   = "Bilinmeyen bir hata oluştu."
	msgDocumentFailed = "Belge yüklenemedi."
	msgAnalysisFailed = "Analiz sırasında bir hata oluştu."
)

// Controller coordinates the research session.
type Controller struct {
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time

	state     State
	selected  selection.Set
	observers []Observer

	// Request generations. Each async scope has its own counter; only the
	// completion carrying the current value is committed.
	searchGen   uint64
	docGen      uint64
	analysisGen uint64
	chatGen     uint64
}

// New creates a Controller with an empty session.
func New(deps Deps) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
		state:  State{Page: 1},
	}
}

// Close cancels every request still in flight.
func (c *Controller) Close() {
	c.cancel()
}

// Subscribe registers an observer for every subsequent transition.
func (c *Controller) Subscribe(o Observer) {
	c.observers = append(c.observers, o)
}

func (c *Controller) emit(e Event) {
	if e.Time.IsZero() {
		e.Time = c.now()
	}
	for _, o := range c.observers {
		o(e)
	}
}

// State returns a deep copy of the current session.
func (c *Controller) State() State {
	s := c.state
	s.Sources = append([]model.Source(nil), c.state.Sources...)
	s.Results = c.state.Results.Clone()
	s.Selected = c.selected.Items()
	if c.state.Viewing != nil {
		doc := *c.state.Viewing
		s.Viewing = &doc
	}
	s.Chat = append([]model.ChatMessage(nil), c.state.Chat...)
	return s
}

// SubmitSearch runs a page-1 search for text with the current sources and
// filters. Without text or sources it opens the source picker instead.
func (c *Controller) SubmitSearch(text string) tea.Cmd {
	return c.startSearch(text, 1, c.state.Filters)
}

// ChangePage re-runs the stored query on page n. It does nothing before a
// query has been submitted.
func (c *Controller) ChangePage(n int) tea.Cmd {
	if c.state.Query == "" || n < 1 {
		return nil
	}
	return c.startSearch(c.state.Query, n, c.state.Filters)
}

// ConfirmSourcesAndFilters commits a source and filter choice together and
// closes the source picker. An existing query is re-run from page 1.
func (c *Controller) ConfirmSourcesAndFilters(sources []model.Source, filters model.FilterSet) tea.Cmd {
	c.state.Sources = append([]model.Source(nil), sources...)
	c.state.Filters = filters
	c.state.SourcePickerOpen = false
	c.state.Page = 1
	if len(sources) == 0 {
		// The session starts over: a search still in flight is superseded.
		c.state.Query = ""
		c.state.SearchLoading = false
		c.searchGen++
	}
	c.emit(Event{Kind: EventSourcesConfirm, Sources: c.State().Sources, Filters: filters})

	if c.state.Query == "" {
		return nil
	}
	return c.startSearch(c.state.Query, 1, filters)
}

// SetFilters edits the filters without searching.
func (c *Controller) SetFilters(filters model.FilterSet) {
	c.state.Filters = filters
	c.emit(Event{Kind: EventFiltersChange, Filters: filters})
}

// ApplyFilters commits filters and re-runs the stored query from page 1.
// The filter panel closes either way.
func (c *Controller) ApplyFilters(filters model.FilterSet) tea.Cmd {
	c.state.Filters = filters
	c.state.FilterPanelOpen = false
	c.emit(Event{Kind: EventFiltersChange, Filters: filters})
	return c.startSearch(c.state.Query, 1, filters)
}

// ToggleFilterPanel opens or closes the filter panel.
func (c *Controller) ToggleFilterPanel() {
	c.state.FilterPanelOpen = !c.state.FilterPanelOpen
	c.emit(Event{Kind: EventPanelChange, Text: "filters"})
}

// OpenSourcePicker shows the source selection surface.
func (c *Controller) OpenSourcePicker() {
	c.state.SourcePickerOpen = true
	c.emit(Event{Kind: EventPanelChange, Text: "sources"})
}

// CloseSourcePicker hides the source selection surface without committing.
func (c *Controller) CloseSourcePicker() {
	c.state.SourcePickerOpen = false
	c.emit(Event{Kind: EventPanelChange, Text: "sources"})
}

func (c *Controller) startSearch(query string, page int, filters model.FilterSet) tea.Cmd {
	if !selection.CanSearch(query, c.state.Sources) {
		c.state.SourcePickerOpen = true
		c.emit(Event{Kind: EventSearchRedirect, Query: query})
		return nil
	}

	c.searchGen++
	gen := c.searchGen

	c.state.SearchLoading = true
	c.state.SearchError = ""
	if page == 1 {
		c.state.Results = nil
	}
	c.state.Query = query
	c.state.Page = page
	c.state.Filters = filters
	c.state.FilterPanelOpen = false

	req := api.SearchRequest{
		Sources: append([]model.Source(nil), c.state.Sources...),
		Query:   query,
		Filters: filters,
		Page:    page,
	}
	c.emit(Event{Kind: EventSearchStart, Query: query, Page: page, Sources: req.Sources, Filters: filters})

	client, ctx, started := c.deps.Search, c.ctx, c.now()
	return func() tea.Msg {
		result, err := client.Search(ctx, req)
		return SearchCompleted{Gen: gen, Request: req, Page: result, Err: err, Started: started}
	}
}

// ToggleItemSelection adds item to the selection or removes it, keyed by ID.
func (c *Controller) ToggleItemSelection(item model.ResultItem) {
	c.selected.Toggle(item)
	c.emit(Event{Kind: EventSelection, DocID: item.ID, DocIDs: c.selected.IDs()})
}

// OpenDocument shows item immediately and fetches its full text.
func (c *Controller) OpenDocument(item model.ResultItem) tea.Cmd {
	c.docGen++
	gen := c.docGen

	placeholder := model.Placeholder(item)
	c.state.Viewing = &placeholder
	c.state.DocumentLoading = true
	c.state.DocumentError = ""
	c.emit(Event{Kind: EventDocumentOpen, DocID: item.ID})

	client, ctx, started := c.deps.Documents, c.ctx, c.now()
	return func() tea.Msg {
		doc, err := client.Document(ctx, item.Source, item.ID)
		return DocumentLoaded{Gen: gen, Item: item, Document: doc, Err: err, Started: started}
	}
}

// CloseDocument closes the modal. A fetch still in flight is not cancelled
// but its result will not reopen the modal.
func (c *Controller) CloseDocument() {
	c.state.Viewing = nil
	c.emit(Event{Kind: EventDocumentClose})
}

// RunAnalysis summarizes or compares the selected items. It is ignored when
// the selection does not allow action or an analysis is already running.
func (c *Controller) RunAnalysis(action model.AnalysisAction) tea.Cmd {
	n := c.selected.Len()
	if c.state.Analysis.Loading || !selection.Allows(action, n) {
		c.emit(Event{Kind: EventAnalysisIgnored, Action: action, Total: n})
		return nil
	}

	c.analysisGen++
	gen := c.analysisGen
	items := c.selected.Items()

	c.state.Analysis = AnalysisState{Action: action, Loading: true}
	c.resetChat()
	c.emit(Event{Kind: EventAnalysisStart, Action: action, DocIDs: c.selected.IDs()})

	docs, analyst, ctx, started := c.deps.Documents, c.deps.Analyst, c.ctx, c.now()
	return func() tea.Msg {
		msg := AnalysisCompleted{Gen: gen, Action: action, Items: items, Started: started}

		full := make([]model.FullDocument, 0, len(items))
		for _, it := range items {
			doc, err := docs.Document(ctx, it.Source, it.ID)
			if err != nil {
				msg.Err = err
				return msg
			}
			full = append(full, *doc)
		}

		if action == model.ActionSummarize {
			msg.Result = analyst.Summarize(ctx, full[0])
		} else {
			msg.Result = analyst.Compare(ctx, full)
		}
		return msg
	}
}

// SendChatMessage appends text to the chat and asks for a reply. Blank text,
// sends while a reply is pending and sends without an analysis result are
// ignored.
func (c *Controller) SendChatMessage(text string) tea.Cmd {
	if strings.TrimSpace(text) == "" || c.state.ChatPending || c.state.Analysis.Result == "" {
		return nil
	}

	thread := append([]model.ChatMessage(nil), c.state.Chat...)
	c.state.Chat = append(c.state.Chat, model.ChatMessage{Role: model.RoleUser, Text: text})
	c.state.ChatPending = true
	c.chatGen++
	gen := c.chatGen
	c.emit(Event{Kind: EventChatSend, Text: text, Total: len(thread)})

	analyst, ctx, analysis, started := c.deps.Analyst, c.ctx, c.state.Analysis.Result, c.now()
	return func() tea.Msg {
		return ChatReplied{Gen: gen, Result: analyst.Reply(ctx, analysis, thread, text), Started: started}
	}
}

// resetChat empties the thread and orphans any pending reply. Called
// whenever the analysis result text changes.
func (c *Controller) resetChat() {
	c.state.Chat = nil
	c.state.ChatPending = false
	c.chatGen++
}

// Update commits a completion message. It returns true when msg belonged
// to the controller.
func (c *Controller) Update(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case SearchCompleted:
		c.onSearch(msg)
	case DocumentLoaded:
		c.onDocument(msg)
	case AnalysisCompleted:
		c.onAnalysis(msg)
	case ChatReplied:
		c.onChat(msg)
	default:
		return false
	}
	return true
}

func (c *Controller) stale(scope string, gen, current uint64) bool {
	if gen == current {
		return false
	}
	logging.Debug("Discarding stale completion", "scope", scope, "gen", gen, "current", current)
	c.emit(Event{Kind: EventStale, Text: scope})
	return true
}

func (c *Controller) onSearch(msg SearchCompleted) {
	if c.stale("search", msg.Gen, c.searchGen) {
		return
	}
	c.state.SearchLoading = false
	dur := c.now().Sub(msg.Started)

	if msg.Err != nil {
		c.state.SearchError = errorText(msg.Err, msgSearchFailed)
		c.emit(Event{Kind: EventSearchError, Query: msg.Request.Query, Page: msg.Request.Page, Err: c.state.SearchError, Dur: dur})
		return
	}
	if msg.Page == nil {
		msg.Page = &model.SearchPage{Page: msg.Request.Page}
	}
	c.state.Results = msg.Page.Clone()
	c.emit(Event{
		Kind:    EventSearchComplete,
		Query:   msg.Request.Query,
		Page:    msg.Request.Page,
		Sources: msg.Request.Sources,
		Filters: msg.Request.Filters,
		Total:   msg.Page.Total,
		Dur:     dur,
	})
}

func (c *Controller) onDocument(msg DocumentLoaded) {
	if c.stale("document", msg.Gen, c.docGen) {
		return
	}
	c.state.DocumentLoading = false
	dur := c.now().Sub(msg.Started)

	if msg.Err != nil {
		text := errorText(msg.Err, msgDocumentFailed)
		if c.state.Viewing != nil {
			c.state.DocumentError = text
		}
		c.emit(Event{Kind: EventDocumentError, DocID: msg.Item.ID, Err: text, Dur: dur})
		return
	}
	if c.state.Viewing != nil && msg.Document != nil {
		doc := *msg.Document
		c.state.Viewing = &doc
	}
	c.emit(Event{Kind: EventDocumentComplete, DocID: msg.Item.ID, Dur: dur})
}

func (c *Controller) onAnalysis(msg AnalysisCompleted) {
	if c.stale("analysis", msg.Gen, c.analysisGen) {
		return
	}
	c.state.Analysis.Loading = false
	dur := c.now().Sub(msg.Started)

	ids := make([]string, len(msg.Items))
	for i, it := range msg.Items {
		ids[i] = it.ID
	}

	if msg.Err != nil {
		c.state.Analysis.Error = errorText(msg.Err, msgAnalysisFailed)
		c.emit(Event{Kind: EventAnalysisError, Action: msg.Action, DocIDs: ids, Err: c.state.Analysis.Error, Dur: dur})
		return
	}

	text := msg.Result.Display()
	if text != c.state.Analysis.Result {
		c.resetChat()
	}
	c.state.Analysis.Result = text
	c.state.Analysis.Provider = msg.Result.Provider

	ev := Event{Kind: EventAnalysisComplete, Action: msg.Action, DocIDs: ids, Provider: msg.Result.Provider, Text: text, Dur: dur}
	if msg.Result.Failed() {
		ev.Err = msg.Result.Err.Error()
	}
	c.emit(ev)
}

func (c *Controller) onChat(msg ChatReplied) {
	if c.stale("chat", msg.Gen, c.chatGen) {
		return
	}
	c.state.ChatPending = false
	text := msg.Result.Display()
	c.state.Chat = append(c.state.Chat, model.ChatMessage{Role: model.RoleModel, Text: text})

	ev := Event{Kind: EventChatReply, Provider: msg.Result.Provider, Text: text, Dur: c.now().Sub(msg.Started)}
	if msg.Result.Failed() {
		ev.Err = msg.Result.Err.Error()
	}
	c.emit(ev)
}

func errorText(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
