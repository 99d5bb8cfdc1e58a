package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/abelbrown/emsal/internal/api"
	"github.com/abelbrown/emsal/internal/brain"
	"github.com/abelbrown/emsal/internal/model"
)

// --- fakes ---

type fakeSearch struct {
	calls []api.SearchRequest
	pages map[int]*model.SearchPage
	err   error
}

func (f *fakeSearch) Search(_ context.Context, req api.SearchRequest) (*model.SearchPage, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.pages[req.Page]; ok {
		return p, nil
	}
	return &model.SearchPage{Page: req.Page, Pages: 1}, nil
}

type fakeDocs struct {
	calls []string
	errs  map[string]error
}

func (f *fakeDocs) Document(_ context.Context, source model.Source, id string) (*model.FullDocument, error) {
	f.calls = append(f.calls, id)
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return &model.FullDocument{
		ResultItem:  model.ResultItem{ID: id, Title: "Karar " + id, Source: source},
		Court:       "Yargıtay 9. Hukuk Dairesi",
		PageContent: "metin " + id,
	}, nil
}

type replyCall struct {
	analysis string
	thread   []model.ChatMessage
	message  string
}

type fakeAnalyst struct {
	summarized []model.FullDocument
	compared   [][]model.FullDocument
	replies    []replyCall
	result     brain.Result
	reply      brain.Result
}

func (f *fakeAnalyst) Summarize(_ context.Context, doc model.FullDocument) brain.Result {
	f.summarized = append(f.summarized, doc)
	return f.result
}

func (f *fakeAnalyst) Compare(_ context.Context, docs []model.FullDocument) brain.Result {
	f.compared = append(f.compared, docs)
	return f.result
}

func (f *fakeAnalyst) Reply(_ context.Context, analysis string, thread []model.ChatMessage, message string) brain.Result {
	f.replies = append(f.replies, replyCall{analysis, thread, message})
	return f.reply
}

type harness struct {
	c       *Controller
	search  *fakeSearch
	docs    *fakeDocs
	analyst *fakeAnalyst
	events  []Event
}

func newHarness() *harness {
	h := &harness{
		search:  &fakeSearch{pages: map[int]*model.SearchPage{}},
		docs:    &fakeDocs{errs: map[string]error{}},
		analyst: &fakeAnalyst{result: brain.Result{Text: "# Analiz", Provider: "gemini"}, reply: brain.Result{Text: "yanıt", Provider: "gemini"}},
	}
	h.c = New(Deps{Search: h.search, Documents: h.docs, Analyst: h.analyst})
	h.c.Subscribe(func(e Event) { h.events = append(h.events, e) })
	return h
}

// run executes cmd the way the event loop would and commits its message.
func (h *harness) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	if !h.c.Update(cmd()) {
		t.Fatal("controller did not accept its own completion message")
	}
}

func (h *harness) kinds() []EventKind {
	out := make([]EventKind, len(h.events))
	for i, e := range h.events {
		out[i] = e.Kind
	}
	return out
}

func item(id string) model.ResultItem {
	return model.ResultItem{ID: id, Title: "Karar " + id, Source: model.Yargitay, Date: "2024-01-15"}
}

var yargitay = []model.Source{model.Yargitay}

// --- search ---

func TestSubmitSearchRedirectsWithoutQueryOrSources(t *testing.T) {
	tests := []struct {
		name    string
		sources []model.Source
		query   string
	}{
		{"empty query, no sources", nil, ""},
		{"query, no sources", nil, "x"},
		{"blank query with sources", yargitay, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.c.state.Sources = tt.sources

			if cmd := h.c.SubmitSearch(tt.query); cmd != nil {
				t.Fatal("redirect should not return a command")
			}
			if len(h.search.calls) != 0 {
				t.Errorf("search calls = %d, want 0", len(h.search.calls))
			}
			st := h.c.State()
			if !st.SourcePickerOpen {
				t.Error("source picker should open")
			}
			if st.SearchError != "" || st.SearchLoading {
				t.Errorf("redirect is not an error: %+v", st)
			}
			if diff := cmp.Diff([]EventKind{EventSearchRedirect}, h.kinds()); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubmitSearchSuccess(t *testing.T) {
	h := newHarness()
	h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{YargitayDaire: "9. Hukuk Dairesi"})
	h.c.ToggleFilterPanel()
	page := &model.SearchPage{Items: []model.ResultItem{item("A"), item("B")}, Total: 2, Page: 1, Pages: 1}
	h.search.pages[1] = page

	cmd := h.c.SubmitSearch("adil yargılanma")
	st := h.c.State()
	if !st.SearchLoading || st.FilterPanelOpen || st.Query != "adil yargılanma" || st.Page != 1 {
		t.Errorf("state while loading = %+v", st)
	}

	h.run(t, cmd)
	st = h.c.State()
	if st.SearchLoading {
		t.Error("loading should clear")
	}
	if diff := cmp.Diff(page, st.Results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	want := api.SearchRequest{
		Sources: yargitay,
		Query:   "adil yargılanma",
		Filters: model.FilterSet{YargitayDaire: "9. Hukuk Dairesi"},
		Page:    1,
	}
	if diff := cmp.Diff([]api.SearchRequest{want}, h.search.calls); diff != "" {
		t.Errorf("search request mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchFailureKeepsPreviousResults(t *testing.T) {
	h := newHarness()
	h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{})
	h.search.pages[1] = &model.SearchPage{Items: []model.ResultItem{item("A")}, Total: 11, Page: 1, Pages: 2}
	h.run(t, h.c.SubmitSearch("x"))

	h.search.err = &api.Error{Kind: api.KindServerRejected, Status: 500, Message: "Veritabanı hatası"}
	h.run(t, h.c.ChangePage(2))

	st := h.c.State()
	if st.SearchError != "Veritabanı hatası" {
		t.Errorf("SearchError = %q", st.SearchError)
	}
	if st.Results == nil || st.Results.Items[0].ID != "A" {
		t.Errorf("page change failure should keep previous results, got %+v", st.Results)
	}
	if st.Page != 2 {
		t.Errorf("Page = %d, want 2", st.Page)
	}
}

func TestFirstSearchFailureShowsEmptyAndError(t *testing.T) {
	h := newHarness()
	h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{})
	h.search.pages[1] = &model.SearchPage{Items: []model.ResultItem{item("A")}, Total: 1, Page: 1, Pages: 1}
	h.run(t, h.c.SubmitSearch("x"))

	h.search.err = errors.New("")
	h.run(t, h.c.SubmitSearch("y"))

	st := h.c.State()
	if st.Results != nil {
		t.Errorf("page-1 search should have cleared results, got %+v", st.Results)
	}
	if st.SearchError != msgSearchFailed {
		t.Errorf("SearchError = %q, want fallback %q", st.SearchError, msgSearchFailed)
	}
}

func TestChangePage(t *testing.T) {
	h := newHarness()
	if cmd := h.c.ChangePage(2); cmd != nil {
		t.Fatal("ChangePage without a query should be a no-op")
	}
	if len(h.search.calls) != 0 || len(h.events) != 0 {
		t.Fatal("no-op ChangePage must not call or emit")
	}

	filters := model.FilterSet{StartDate: "2020-01-01"}
	h.c.ConfirmSourcesAndFilters(yargitay, filters)
	h.search.pages[1] = &model.SearchPage{Items: []model.ResultItem{item("A")}, Total: 30, Page: 1, Pages: 3}
	h.run(t, h.c.SubmitSearch("x"))

	cmd := h.c.ChangePage(2)
	if st := h.c.State(); st.Results == nil {
		t.Error("page change should keep showing the last results while loading")
	}
	h.run(t, cmd)

	last := h.search.calls[len(h.search.calls)-1]
	want := api.SearchRequest{Sources: yargitay, Query: "x", Filters: filters, Page: 2}
	if diff := cmp.Diff(want, last); diff != "" {
		t.Errorf("page 2 request mismatch (-want +got):\n%s", diff)
	}

	if cmd := h.c.ChangePage(0); cmd != nil {
		t.Error("page 0 should be ignored")
	}
}

func TestConfirmSourcesAndFilters(t *testing.T) {
	t.Run("no prior query", func(t *testing.T) {
		h := newHarness()
		h.c.OpenSourcePicker()
		if cmd := h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{}); cmd != nil {
			t.Fatal("no query means no search")
		}
		st := h.c.State()
		if st.SourcePickerOpen {
			t.Error("picker should close")
		}
		if diff := cmp.Diff(yargitay, st.Sources); diff != "" {
			t.Errorf("sources mismatch (-want +got):\n%s", diff)
		}
		if len(h.search.calls) != 0 {
			t.Errorf("search calls = %d, want 0", len(h.search.calls))
		}
	})

	t.Run("prior query", func(t *testing.T) {
		h := newHarness()
		h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{})
		h.run(t, h.c.SubmitSearch("x"))
		h.run(t, h.c.ChangePage(3))
		before := len(h.search.calls)

		sources := []model.Source{model.Danistay, model.Sayistay}
		filters := model.FilterSet{DanistayDaire: "2. Daire"}
		h.run(t, h.c.ConfirmSourcesAndFilters(sources, filters))

		if got := len(h.search.calls) - before; got != 1 {
			t.Fatalf("search calls = %d, want exactly 1", got)
		}
		want := api.SearchRequest{Sources: sources, Query: "x", Filters: filters, Page: 1}
		if diff := cmp.Diff(want, h.search.calls[before]); diff != "" {
			t.Errorf("request mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty sources reset the query", func(t *testing.T) {
		h := newHarness()
		h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{})
		h.run(t, h.c.SubmitSearch("x"))
		before := len(h.search.calls)

		if cmd := h.c.ConfirmSourcesAndFilters(nil, model.FilterSet{}); cmd != nil {
			t.Fatal("empty sources should not search")
		}
		if st := h.c.State(); st.Query != "" {
			t.Errorf("Query = %q, want empty", st.Query)
		}
		if len(h.search.calls) != before {
			t.Error("no search call expected")
		}
	})

	t.Run("empty sources supersede a search in flight", func(t *testing.T) {
		h := newHarness()
		h.search.pages[1] = &model.SearchPage{Items: []model.ResultItem{item("A")}, Total: 1, Page: 1, Pages: 1}
		h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{})
		inflight := h.c.SubmitSearch("x")

		h.c.ConfirmSourcesAndFilters(nil, model.FilterSet{})
		if st := h.c.State(); st.SearchLoading {
			t.Error("loading should clear when the session resets")
		}

		h.run(t, inflight)
		st := h.c.State()
		if st.Query != "" || st.Results != nil || st.SearchLoading {
			t.Errorf("late result committed: query=%q results=%+v loading=%v", st.Query, st.Results, st.SearchLoading)
		}
		for _, e := range h.events {
			if e.Kind == EventSearchComplete {
				t.Error("superseded search should not be reported as complete")
			}
		}
		if last := h.events[len(h.events)-1].Kind; last != EventStale {
			t.Errorf("last event = %v, want stale discard", last)
		}
	})
}

func TestFilters(t *testing.T) {
	h := newHarness()
	h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{})

	h.c.ToggleFilterPanel()
	if !h.c.State().FilterPanelOpen {
		t.Fatal("filter panel should open")
	}
	h.c.SetFilters(model.FilterSet{EndDate: "2024-12-31"})
	if len(h.search.calls) != 0 {
		t.Error("SetFilters must not search")
	}

	// No query yet: applying redirects to source selection.
	if cmd := h.c.ApplyFilters(model.FilterSet{EndDate: "2024-12-31"}); cmd != nil {
		t.Error("ApplyFilters without a query should redirect")
	}
	st := h.c.State()
	if st.FilterPanelOpen || !st.SourcePickerOpen {
		t.Errorf("after redirect: filterPanel=%v picker=%v", st.FilterPanelOpen, st.SourcePickerOpen)
	}

	h.c.CloseSourcePicker()
	h.run(t, h.c.SubmitSearch("x"))
	h.run(t, h.c.ChangePage(2))
	h.run(t, h.c.ApplyFilters(model.FilterSet{StartDate: "2021-01-01"}))

	last := h.search.calls[len(h.search.calls)-1]
	if last.Page != 1 || last.Filters.StartDate != "2021-01-01" || last.Query != "x" {
		t.Errorf("apply request = %+v", last)
	}
	if h.c.State().SourcePickerOpen {
		t.Error("picker should stay closed")
	}
}

func TestStaleSearchDiscarded(t *testing.T) {
	h := newHarness()
	h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{})
	h.search.pages[1] = &model.SearchPage{Items: []model.ResultItem{item("old")}, Page: 1, Pages: 2}
	h.search.pages[2] = &model.SearchPage{Items: []model.ResultItem{item("new")}, Page: 2, Pages: 2}
	h.run(t, h.c.SubmitSearch("x"))

	slow := h.c.SubmitSearch("x")
	fast := h.c.ChangePage(2)

	fastMsg := fast()
	slowMsg := slow()
	h.c.Update(fastMsg)
	h.c.Update(slowMsg)

	st := h.c.State()
	if st.Results == nil || st.Results.Items[0].ID != "new" {
		t.Errorf("stale page-1 response overwrote newer page 2: %+v", st.Results)
	}
	if h.events[len(h.events)-1].Kind != EventStale {
		t.Errorf("last event = %v, want stale discard", h.events[len(h.events)-1].Kind)
	}
}

// --- selection ---

func TestToggleItemSelectionTwiceRestores(t *testing.T) {
	h := newHarness()
	h.c.ToggleItemSelection(item("A"))
	h.c.ToggleItemSelection(item("B"))
	before := h.c.State().Selected

	for _, id := range []string{"A", "B", "C"} {
		h.c.ToggleItemSelection(item(id))
		h.c.ToggleItemSelection(item(id))
		if diff := cmp.Diff(before, h.c.State().Selected); diff != "" {
			t.Errorf("toggling %s twice changed selection (-want +got):\n%s", id, diff)
		}
	}
}

func TestStateGating(t *testing.T) {
	h := newHarness()
	for n := 0; n <= 4; n++ {
		st := h.c.State()
		if st.CanSummarize() != (n == 1) || st.CanCompare() != (n >= 2) {
			t.Errorf("n=%d: summarize=%v compare=%v", n, st.CanSummarize(), st.CanCompare())
		}
		h.c.ToggleItemSelection(item(fmt.Sprint(n)))
	}
}

// --- document ---

func TestOpenDocument(t *testing.T) {
	h := newHarness()
	a := item("A")

	cmd := h.c.OpenDocument(a)
	st := h.c.State()
	if st.Viewing == nil || st.Viewing.ID != "A" || st.Viewing.PageContent != "" || !st.DocumentLoading {
		t.Fatalf("placeholder not shown: %+v", st.Viewing)
	}

	h.run(t, cmd)
	st = h.c.State()
	if st.DocumentLoading || st.Viewing.PageContent != "metin A" || st.Viewing.Court == "" {
		t.Errorf("full document not committed: %+v", st.Viewing)
	}

	// Reopening re-fetches.
	h.run(t, h.c.OpenDocument(a))
	if diff := cmp.Diff([]string{"A", "A"}, h.docs.calls); diff != "" {
		t.Errorf("document calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDocumentTimeoutKeepsPlaceholder(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := api.NewClient(srv.URL, api.WithTimeout(30*time.Millisecond))
	c := New(Deps{Search: client, Documents: client, Analyst: &fakeAnalyst{}})

	cmd := c.OpenDocument(item("A"))
	c.Update(cmd())

	st := c.State()
	if st.Viewing == nil || st.Viewing.ID != "A" {
		t.Fatalf("placeholder should stay visible, got %+v", st.Viewing)
	}
	if st.DocumentLoading {
		t.Error("loading should clear")
	}
	if st.DocumentError != "Belge detayı isteği zaman aşımına uğradı. Lütfen tekrar deneyin." {
		t.Errorf("DocumentError = %q", st.DocumentError)
	}
}

func TestLateDocumentDoesNotReopen(t *testing.T) {
	for _, fail := range []bool{false, true} {
		t.Run(fmt.Sprintf("fail=%v", fail), func(t *testing.T) {
			h := newHarness()
			if fail {
				h.docs.errs["A"] = errors.New("bağlantı koptu")
			}
			cmd := h.c.OpenDocument(item("A"))
			h.c.CloseDocument()
			h.run(t, cmd)

			st := h.c.State()
			if st.Viewing != nil {
				t.Error("late result reopened the modal")
			}
			if st.DocumentLoading || st.DocumentError != "" {
				t.Errorf("state = loading %v error %q", st.DocumentLoading, st.DocumentError)
			}
		})
	}
}

func TestSupersededDocumentIgnored(t *testing.T) {
	h := newHarness()
	first := h.c.OpenDocument(item("A"))
	second := h.c.OpenDocument(item("B"))
	h.run(t, second)
	h.run(t, first)

	if st := h.c.State(); st.Viewing.ID != "B" {
		t.Errorf("Viewing = %s, want B", st.Viewing.ID)
	}
}

// --- analysis ---

func TestRunAnalysisIgnoredByGate(t *testing.T) {
	h := newHarness()
	h.c.ToggleItemSelection(item("A"))
	h.c.ToggleItemSelection(item("B"))
	before := h.c.State()

	if cmd := h.c.RunAnalysis(model.ActionSummarize); cmd != nil {
		t.Fatal("summarize with 2 items should be a no-op")
	}
	if diff := cmp.Diff(before, h.c.State()); diff != "" {
		t.Errorf("state changed (-want +got):\n%s", diff)
	}
	if len(h.docs.calls)+len(h.analyst.summarized)+len(h.analyst.compared) != 0 {
		t.Error("no client calls expected")
	}

	h.c.ToggleItemSelection(item("B"))
	if cmd := h.c.RunAnalysis(model.ActionCompare); cmd != nil {
		t.Error("compare with 1 item should be a no-op")
	}
	if cmd := h.c.RunAnalysis(model.ActionNone); cmd != nil {
		t.Error("unknown action should be a no-op")
	}
}

func TestSummarizeScenario(t *testing.T) {
	h := newHarness()
	h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{})
	h.search.pages[1] = &model.SearchPage{Items: []model.ResultItem{item("A"), item("B")}, Total: 2, Page: 1, Pages: 1}
	h.run(t, h.c.SubmitSearch("adil yargılanma"))

	h.c.ToggleItemSelection(h.c.State().Results.Items[0])
	cmd := h.c.RunAnalysis(model.ActionSummarize)

	st := h.c.State()
	if !st.Analysis.Loading || st.Analysis.Action != model.ActionSummarize {
		t.Errorf("analysis state while loading = %+v", st.Analysis)
	}
	if got := st.LoadingMessage(); got != `"Karar A" başlıklı belge özetleniyor...` {
		t.Errorf("LoadingMessage() = %q", got)
	}

	h.run(t, cmd)
	st = h.c.State()
	if diff := cmp.Diff([]string{"A"}, h.docs.calls); diff != "" {
		t.Errorf("document calls mismatch (-want +got):\n%s", diff)
	}
	if len(h.analyst.summarized) != 1 || h.analyst.summarized[0].ID != "A" {
		t.Errorf("summarize calls = %+v", h.analyst.summarized)
	}
	if st.Analysis.Result != "# Analiz" || st.Analysis.Loading || st.Analysis.Provider != "gemini" {
		t.Errorf("analysis = %+v", st.Analysis)
	}
}

func TestCompareScenario(t *testing.T) {
	h := newHarness()
	h.c.ToggleItemSelection(item("B"))
	h.c.ToggleItemSelection(item("A"))

	cmd := h.c.RunAnalysis(model.ActionCompare)
	if got := h.c.State().LoadingMessage(); got != "2 adet belge karşılaştırılıyor..." {
		t.Errorf("LoadingMessage() = %q", got)
	}
	h.run(t, cmd)

	if diff := cmp.Diff([]string{"B", "A"}, h.docs.calls); diff != "" {
		t.Errorf("fetch order mismatch (-want +got):\n%s", diff)
	}
	if len(h.analyst.compared) != 1 {
		t.Fatalf("compare calls = %d, want 1", len(h.analyst.compared))
	}
	got := h.analyst.compared[0]
	if len(got) != 2 || got[0].ID != "B" || got[1].ID != "A" || got[0].PageContent != "metin B" {
		t.Errorf("compare received %+v", got)
	}
}

func TestAnalysisFetchFailureAborts(t *testing.T) {
	h := newHarness()
	for _, id := range []string{"A", "B", "C"} {
		h.c.ToggleItemSelection(item(id))
	}
	h.docs.errs["B"] = &api.Error{Kind: api.KindConnectivity, Message: "Belge detayları hizmetine ulaşılamadı."}

	h.run(t, h.c.RunAnalysis(model.ActionCompare))

	if diff := cmp.Diff([]string{"A", "B"}, h.docs.calls); diff != "" {
		t.Errorf("fetches after the failure should not run (-want +got):\n%s", diff)
	}
	if len(h.analyst.compared) != 0 {
		t.Error("AI call must not be made after a fetch failure")
	}
	st := h.c.State()
	if st.Analysis.Error != "Belge detayları hizmetine ulaşılamadı." || st.Analysis.Loading || st.Analysis.Result != "" {
		t.Errorf("analysis = %+v", st.Analysis)
	}
}

func TestAnalysisFailureFallbackMessage(t *testing.T) {
	h := newHarness()
	h.c.ToggleItemSelection(item("A"))
	h.docs.errs["A"] = errors.New("")
	h.run(t, h.c.RunAnalysis(model.ActionSummarize))

	if got := h.c.State().Analysis.Error; got != msgAnalysisFailed {
		t.Errorf("Analysis.Error = %q, want %q", got, msgAnalysisFailed)
	}
}

func TestAIFailureRendersAsResult(t *testing.T) {
	h := newHarness()
	h.analyst.result = brain.Result{Err: errors.New("quota exceeded"), Provider: "gemini"}
	h.c.ToggleItemSelection(item("A"))
	h.run(t, h.c.RunAnalysis(model.ActionSummarize))

	st := h.c.State()
	if st.Analysis.Error != "" {
		t.Errorf("AI failure should not use the error slot, got %q", st.Analysis.Error)
	}
	if st.Analysis.Result != "Gemini API hatası: quota exceeded" {
		t.Errorf("Analysis.Result = %q", st.Analysis.Result)
	}
}

func TestAnalysisSequential(t *testing.T) {
	h := newHarness()
	h.c.ToggleItemSelection(item("A"))
	first := h.c.RunAnalysis(model.ActionSummarize)

	h.c.ToggleItemSelection(item("B"))
	if cmd := h.c.RunAnalysis(model.ActionCompare); cmd != nil {
		t.Fatal("a second analysis must wait for the first to settle")
	}

	h.run(t, first)
	if cmd := h.c.RunAnalysis(model.ActionCompare); cmd == nil {
		t.Error("after settling, a new analysis should start")
	}
	st := h.c.State()
	if st.Analysis.Result != "" || st.Analysis.Error != "" || !st.Analysis.Loading {
		t.Errorf("entering Loading must reset the previous payload: %+v", st.Analysis)
	}
}

// --- chat ---

func TestChatFlow(t *testing.T) {
	h := newHarness()
	h.c.ToggleItemSelection(item("A"))
	h.run(t, h.c.RunAnalysis(model.ActionSummarize))

	cmd := h.c.SendChatMessage("Bu kararın emsal değeri nedir?")
	st := h.c.State()
	if len(st.Chat) != 1 || st.Chat[0].Role != model.RoleUser || !st.ChatPending {
		t.Fatalf("user message not appended optimistically: %+v", st.Chat)
	}
	if h.c.SendChatMessage("ikinci") != nil {
		t.Error("send while pending should be ignored")
	}
	if h.c.SendChatMessage("   ") != nil {
		t.Error("blank send should be ignored")
	}

	h.run(t, cmd)
	h.run(t, h.c.SendChatMessage("Peki ya karşı oy?"))

	want := []model.ChatMessage{
		{Role: model.RoleUser, Text: "Bu kararın emsal değeri nedir?"},
		{Role: model.RoleModel, Text: "yanıt"},
		{Role: model.RoleUser, Text: "Peki ya karşı oy?"},
		{Role: model.RoleModel, Text: "yanıt"},
	}
	if diff := cmp.Diff(want, h.c.State().Chat); diff != "" {
		t.Errorf("chat mismatch (-want +got):\n%s", diff)
	}

	if len(h.analyst.replies) != 2 {
		t.Fatalf("reply calls = %d, want 2", len(h.analyst.replies))
	}
	first, second := h.analyst.replies[0], h.analyst.replies[1]
	if first.analysis != "# Analiz" || len(first.thread) != 0 {
		t.Errorf("first reply call = %+v", first)
	}
	if diff := cmp.Diff(want[:2], second.thread); diff != "" {
		t.Errorf("second reply history mismatch (-want +got):\n%s", diff)
	}
}

func TestChatFailureIsSwallowedIntoReply(t *testing.T) {
	h := newHarness()
	h.analyst.reply = brain.Result{Err: errors.New("503"), Provider: "gemini"}
	h.c.ToggleItemSelection(item("A"))
	h.run(t, h.c.RunAnalysis(model.ActionSummarize))

	h.run(t, h.c.SendChatMessage("soru"))
	st := h.c.State()
	if st.ChatPending {
		t.Error("pending should clear")
	}
	if got := st.Chat[len(st.Chat)-1]; got.Role != model.RoleModel || got.Text != "Gemini API hatası: 503" {
		t.Errorf("failure should render as a model reply, got %+v", got)
	}
	if st.Analysis.Error != "" || st.SearchError != "" || st.DocumentError != "" {
		t.Error("chat failures must not touch any error slot")
	}
}

func TestChatNeedsAnalysisResult(t *testing.T) {
	h := newHarness()
	if h.c.SendChatMessage("soru") != nil {
		t.Error("send before any analysis should be ignored")
	}

	h.c.ToggleItemSelection(item("A"))
	cmd := h.c.RunAnalysis(model.ActionSummarize)
	if h.c.SendChatMessage("soru") != nil {
		t.Error("send while the analysis is loading should be ignored")
	}
	if st := h.c.State(); len(st.Chat) != 0 || st.ChatPending {
		t.Errorf("ignored sends must not touch the thread: %+v", st.Chat)
	}
	if len(h.analyst.replies) != 0 {
		t.Errorf("reply calls = %d, want 0", len(h.analyst.replies))
	}

	h.run(t, cmd)
	if h.c.SendChatMessage("soru") == nil {
		t.Error("send after the result arrived should be accepted")
	}
}

func TestNewAnalysisClearsChat(t *testing.T) {
	h := newHarness()
	h.c.ToggleItemSelection(item("A"))
	h.run(t, h.c.RunAnalysis(model.ActionSummarize))
	h.run(t, h.c.SendChatMessage("soru"))
	pending := h.c.SendChatMessage("ikinci soru")

	if len(h.c.State().Chat) == 0 {
		t.Fatal("chat should have messages")
	}

	h.analyst.result = brain.Result{Text: "# Yeni analiz", Provider: "gemini"}
	cmd := h.c.RunAnalysis(model.ActionSummarize)
	if st := h.c.State(); len(st.Chat) != 0 || st.ChatPending {
		t.Errorf("chat should clear when the result resets: %+v", st.Chat)
	}

	// The reply to the old thread arrives late and must be dropped.
	h.run(t, pending)
	if len(h.c.State().Chat) != 0 {
		t.Error("late reply leaked into the new thread")
	}

	h.run(t, cmd)
	if st := h.c.State(); st.Analysis.Result != "# Yeni analiz" || len(st.Chat) != 0 {
		t.Errorf("after new analysis: result=%q chat=%v", st.Analysis.Result, st.Chat)
	}
}

// --- snapshots and observers ---

func TestStateIsACopy(t *testing.T) {
	h := newHarness()
	h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{})
	h.search.pages[1] = &model.SearchPage{Items: []model.ResultItem{item("A")}, Page: 1, Pages: 1}
	h.run(t, h.c.SubmitSearch("x"))
	h.c.ToggleItemSelection(item("A"))
	h.run(t, h.c.OpenDocument(item("A")))

	st := h.c.State()
	st.Sources[0] = model.KVKK
	st.Results.Items[0].Title = "değişti"
	st.Selected[0].Title = "değişti"
	st.Viewing.Title = "değişti"

	again := h.c.State()
	if again.Sources[0] != model.Yargitay || again.Results.Items[0].Title != "Karar A" ||
		again.Selected[0].Title != "Karar A" || again.Viewing.Title != "Karar A" {
		t.Error("mutating a snapshot leaked into the controller")
	}
}

func TestUpdateIgnoresForeignMessages(t *testing.T) {
	h := newHarness()
	if h.c.Update(tea.KeyMsg{Type: tea.KeyEnter}) {
		t.Error("Update should report foreign messages as unhandled")
	}
}

type fakeHistory struct {
	searches []string
	analyses []string
}

func (f *fakeHistory) RecordSearch(query string, _ []model.Source, _ model.FilterSet, page, total int) error {
	f.searches = append(f.searches, fmt.Sprintf("%s/%d/%d", query, page, total))
	return nil
}

func (f *fakeHistory) RecordAnalysis(action model.AnalysisAction, ids []string, provider, result, errMsg string) error {
	f.analyses = append(f.analyses, fmt.Sprintf("%s/%s/%s/%s/%s", action, strings.Join(ids, ","), provider, result, errMsg))
	return nil
}

func TestHistoryObserver(t *testing.T) {
	h := newHarness()
	hist := &fakeHistory{}
	h.c.Subscribe(HistoryObserver(hist))

	h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{})
	h.search.pages[1] = &model.SearchPage{Total: 5, Page: 1, Pages: 1}
	h.run(t, h.c.SubmitSearch("x"))
	h.c.ToggleItemSelection(item("A"))
	h.run(t, h.c.RunAnalysis(model.ActionSummarize))
	h.c.ToggleItemSelection(item("B"))
	h.docs.errs["B"] = errors.New("yok")
	h.run(t, h.c.RunAnalysis(model.ActionCompare))

	if diff := cmp.Diff([]string{"x/1/5"}, hist.searches); diff != "" {
		t.Errorf("searches mismatch (-want +got):\n%s", diff)
	}
	want := []string{
		"SUMMARIZE/A/gemini/# Analiz/",
		"COMPARE/A,B///yok",
	}
	if diff := cmp.Diff(want, hist.analyses); diff != "" {
		t.Errorf("analyses mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryWriterRecordsInOrder(t *testing.T) {
	h := newHarness()
	hist := &fakeHistory{}
	w := NewHistoryWriter(hist)
	h.c.Subscribe(w.Observe)

	h.c.ConfirmSourcesAndFilters(yargitay, model.FilterSet{})
	h.search.pages[1] = &model.SearchPage{Total: 5, Page: 1, Pages: 1}
	h.run(t, h.c.SubmitSearch("x"))
	h.search.pages[1] = &model.SearchPage{Total: 2, Page: 1, Pages: 1}
	h.run(t, h.c.SubmitSearch("y"))
	h.c.ToggleItemSelection(item("A"))
	h.run(t, h.c.RunAnalysis(model.ActionSummarize))
	w.Close()

	if diff := cmp.Diff([]string{"x/1/5", "y/1/2"}, hist.searches); diff != "" {
		t.Errorf("searches mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"SUMMARIZE/A/gemini/# Analiz/"}, hist.analyses); diff != "" {
		t.Errorf("analyses mismatch (-want +got):\n%s", diff)
	}

	w.Observe(Event{Kind: EventSearchComplete, Query: "z"})
	if w.Dropped() != 1 {
		t.Errorf("write after Close: dropped = %d, want 1", w.Dropped())
	}
	w.Close()
}

// gatedHistory blocks every write until release is closed.
type gatedHistory struct {
	release chan struct{}
	n       atomic.Int64
}

func (g *gatedHistory) RecordSearch(string, []model.Source, model.FilterSet, int, int) error {
	<-g.release
	g.n.Add(1)
	return nil
}

func (g *gatedHistory) RecordAnalysis(model.AnalysisAction, []string, string, string, string) error {
	<-g.release
	g.n.Add(1)
	return nil
}

func TestHistoryWriterDoesNotBlockWhenFull(t *testing.T) {
	hist := &gatedHistory{release: make(chan struct{})}
	w := NewHistoryWriter(hist)

	const total = historyQueueSize + 2
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			w.Observe(Event{Kind: EventSearchComplete, Query: fmt.Sprint(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Observe blocked on a stalled store")
	}

	if w.Dropped() == 0 {
		t.Error("a full queue should drop writes")
	}
	close(hist.release)
	w.Close()
	if got := uint64(hist.n.Load()) + w.Dropped(); got != total {
		t.Errorf("recorded + dropped = %d, want %d", got, total)
	}
}

func TestHistoryWriterSkipsOtherEvents(t *testing.T) {
	hist := &fakeHistory{}
	w := NewHistoryWriter(hist)
	w.Observe(Event{Kind: EventSearchStart, Query: "x"})
	w.Observe(Event{Kind: EventChatSend, Text: "soru"})
	w.Close()
	if len(hist.searches)+len(hist.analyses) != 0 || w.Dropped() != 0 {
		t.Errorf("unexpected writes: %v %v dropped=%d", hist.searches, hist.analyses, w.Dropped())
	}
}

func TestJournalEventMapping(t *testing.T) {
	tests := []struct {
		in    Event
		kind  string
		level string
		count int
	}{
		{Event{Kind: EventSearchComplete, Total: 12}, "search.complete", "info", 12},
		{Event{Kind: EventSearchError, Err: "x"}, "search.error", "warn", 0},
		{Event{Kind: EventAnalysisStart, DocIDs: []string{"a", "b"}}, "analysis.start", "info", 2},
		{Event{Kind: EventAnalysisComplete, Err: "quota"}, "analysis.complete", "warn", 0},
		{Event{Kind: EventStale, Text: "search"}, "session.stale", "debug", 0},
		{Event{Kind: EventSelection}, "session.change", "debug", 0},
	}
	for _, tt := range tests {
		got := journalEvent(tt.in)
		if string(got.Kind) != tt.kind || string(got.Level) != tt.level || got.Count != tt.count {
			t.Errorf("journalEvent(%s) = kind %s level %s count %d", tt.in.Kind, got.Kind, got.Level, got.Count)
		}
		if got.Comp != "session" {
			t.Errorf("Comp = %q", got.Comp)
		}
	}
}
