package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/emsal/internal/model"
	"github.com/abelbrown/emsal/internal/otel"
	"github.com/abelbrown/emsal/internal/session"
	"github.com/abelbrown/emsal/internal/ui/filters"
	"github.com/abelbrown/emsal/internal/ui/sources"
)

type focus int

const (
	focusResults focus = iota
	focusSearch
	focusChat
)

type overlay int

const (
	overlayNone overlay = iota
	overlayDebug
	overlayHistory
)

// Options configures an App. Only Controller is required.
type Options struct {
	Controller *session.Controller
	History    History
	Ring       *otel.RingBuffer
	Journal    *otel.Journal
	RecallSize int // queries recalled in the search box; 0 means 20
}

// App is the root Bubble Tea model.
// IMPORTANT: App holds no session state of its own. It dispatches actions
// into the controller and renders the snapshot it reads back.
type App struct {
	ctrl    *session.Controller
	history History
	ring    *otel.RingBuffer
	journal *otel.Journal

	st     session.State
	focus  focus
	cursor int
	notice string

	search   textinput.Model
	chat     textinput.Model
	spinner  spinner.Model
	spinning bool

	docView      viewport.Model
	docID        string
	analysisView viewport.Model
	analysisText string

	picker      sources.Model
	pickerOpen  bool
	filterPanel filters.Model
	filterOpen  bool

	recent     []string
	recall     int
	recallSize int

	overlay overlay
	hist    HistoryLoaded

	width  int
	height int
	ready  bool
}

// NewApp creates an App driving opts.Controller.
func NewApp(opts Options) App {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Karar metinlerinde ara..."
	search.CharLimit = 256

	chat := textinput.New()
	chat.Prompt = "› "
	chat.Placeholder = "Analiz hakkında bir soru sorun..."
	chat.CharLimit = 1000

	s := spinner.New()
	s.Spinner = spinner.Dot

	a := App{
		ctrl:         opts.Controller,
		history:      opts.History,
		ring:         opts.Ring,
		journal:      opts.Journal,
		search:       search,
		chat:         chat,
		spinner:      s,
		docView:      viewport.New(0, 0),
		analysisView: viewport.New(0, 0),
		recall:       -1,
		recallSize:   opts.RecallSize,
	}
	if a.recallSize <= 0 {
		a.recallSize = defaultRecallSize
	}
	a.st = a.ctrl.State()
	return a
}

// Init loads the query history for recall.
func (a App) Init() tea.Cmd {
	return loadRecentQueries(a.history, a.recallSize)
}

// rememberQuery puts a committed query at the front of the recall list.
// History is written asynchronously, so the store may not have it yet.
func (a *App) rememberQuery(q string) {
	st := a.ctrl.State()
	if st.SearchLoading || st.SearchError != "" || st.Query != q {
		return
	}
	recent := make([]string, 0, len(a.recent)+1)
	recent = append(recent, q)
	for _, r := range a.recent {
		if r != q && len(recent) < a.recallSize {
			recent = append(recent, r)
		}
	}
	a.recent = recent
	a.recall = -1
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.journal != nil && otel.TraceEnabled() {
		a.journal.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	if a.ctrl.Update(msg) {
		if done, ok := msg.(session.SearchCompleted); ok {
			a.rememberQuery(done.Request.Query)
		}
		return a.refresh()
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.layout()
		a.sync()
		return a, nil

	case spinner.TickMsg:
		if !a.busy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case RecentQueriesLoaded:
		if msg.Err == nil {
			a.recent = msg.Queries
		}
		return a, nil

	case HistoryLoaded:
		a.hist = msg
		return a, nil
	}

	// Cursor blink and similar input-internal messages.
	var cmd tea.Cmd
	switch a.focus {
	case focusSearch:
		a.search, cmd = a.search.Update(msg)
	case focusChat:
		a.chat, cmd = a.chat.Update(msg)
	}
	return a, cmd
}

// refresh re-reads the controller and starts the spinner when something
// began loading.
func (a App) refresh(cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	a.sync()
	if a.busy() && !a.spinning {
		a.spinning = true
		cmds = append(cmds, a.spinner.Tick)
	}
	return a, tea.Batch(cmds...)
}

func (a App) busy() bool {
	return a.st.SearchLoading || a.st.DocumentLoading || a.st.Analysis.Loading || a.st.ChatPending
}

// sync copies the controller snapshot into the view state.
func (a *App) sync() {
	a.st = a.ctrl.State()

	if a.st.SourcePickerOpen && !a.pickerOpen {
		a.picker = sources.New(a.st.Sources, a.st.Filters)
		a.picker.SetSize(a.width, a.height)
	}
	a.pickerOpen = a.st.SourcePickerOpen

	if a.st.FilterPanelOpen && !a.filterOpen {
		a.filterPanel = filters.New(a.st.Sources, a.st.Filters)
		a.filterPanel.SetWidth(a.filterWidth())
	}
	a.filterOpen = a.st.FilterPanelOpen

	if n := a.itemCount(); a.cursor >= n {
		a.cursor = maxInt(n-1, 0)
	}

	if doc := a.st.Viewing; doc != nil {
		a.docView.SetContent(documentContent(a.st, a.docView.Width))
		if doc.ID != a.docID {
			a.docView.GotoTop()
			a.docID = doc.ID
		}
	} else {
		a.docID = ""
	}

	text := analysisContent(a.st, a.analysisView.Width)
	if text != a.analysisText {
		a.analysisView.SetContent(text)
		if len(a.st.Chat) > 0 {
			a.analysisView.GotoBottom()
		} else {
			a.analysisView.GotoTop()
		}
		a.analysisText = text
	}

	if a.focus == focusChat && a.st.Analysis.Result == "" {
		a.chat.Blur()
		a.focus = focusResults
	}
}

func (a *App) layout() {
	a.docView.Width = maxInt(a.width-6, 10)
	a.docView.Height = maxInt(a.height-6, 3)
	a.analysisView.Width = maxInt(a.analysisWidth()-4, 10)
	a.analysisView.Height = maxInt(a.height-10, 3)
	a.search.Width = maxInt(a.width-6, 10)
	a.chat.Width = maxInt(a.analysisWidth()-8, 10)
	if a.pickerOpen {
		a.picker.SetSize(a.width, a.height)
	}
	if a.filterOpen {
		a.filterPanel.SetWidth(a.filterWidth())
	}
	a.analysisText = ""
}

func (a App) analysisWidth() int {
	return a.width - a.width*11/20
}

func (a App) filterWidth() int {
	if a.width > 74 {
		return 70
	}
	return maxInt(a.width-4, 20)
}

func (a App) showAnalysis() bool {
	an := a.st.Analysis
	return an.Loading || an.Result != "" || an.Error != ""
}

func (a App) itemCount() int {
	if a.st.Results == nil {
		return 0
	}
	return len(a.st.Results.Items)
}

func (a App) current() (model.ResultItem, bool) {
	if a.cursor < 0 || a.cursor >= a.itemCount() {
		return model.ResultItem{}, false
	}
	return a.st.Results.Items[a.cursor], true
}

// handleKeyMsg routes keyboard input to whichever surface is on top.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	a.notice = ""

	switch {
	case a.st.SourcePickerOpen:
		return a.updatePicker(msg)
	case a.overlay != overlayNone:
		return a.updateOverlay(msg)
	case a.st.Viewing != nil:
		return a.updateDocument(msg)
	case a.focus == focusSearch:
		return a.updateSearch(msg)
	case a.focus == focusChat:
		return a.updateChat(msg)
	case a.st.FilterPanelOpen:
		return a.updateFilterPanel(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Search):
		a.focus = focusSearch
		a.recall = -1
		cmd := a.search.Focus()
		return a, cmd

	case key.Matches(msg, keys.Sources):
		a.ctrl.OpenSourcePicker()
		return a.refresh()

	case key.Matches(msg, keys.Filters):
		a.ctrl.ToggleFilterPanel()
		return a.refresh()

	case key.Matches(msg, keys.Down):
		if a.cursor < a.itemCount()-1 {
			a.cursor++
		}
		return a, nil

	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case key.Matches(msg, keys.Select):
		if item, ok := a.current(); ok {
			a.ctrl.ToggleItemSelection(item)
			return a.refresh()
		}
		return a, nil

	case key.Matches(msg, keys.Open):
		if item, ok := a.current(); ok {
			return a.refresh(a.ctrl.OpenDocument(item))
		}
		return a, nil

	case key.Matches(msg, keys.NextPage):
		if r := a.st.Results; r != nil && r.Page < r.Pages && !a.st.SearchLoading {
			a.cursor = 0
			return a.refresh(a.ctrl.ChangePage(r.Page + 1))
		}
		return a, nil

	case key.Matches(msg, keys.PrevPage):
		if r := a.st.Results; r != nil && r.Page > 1 && !a.st.SearchLoading {
			a.cursor = 0
			return a.refresh(a.ctrl.ChangePage(r.Page - 1))
		}
		return a, nil

	case key.Matches(msg, keys.Summarize):
		if !a.st.CanSummarize() {
			a.notice = "Özet için tam olarak bir belge seçin."
			return a, nil
		}
		return a.refresh(a.ctrl.RunAnalysis(model.ActionSummarize))

	case key.Matches(msg, keys.Compare):
		if !a.st.CanCompare() {
			a.notice = "Karşılaştırma için en az iki belge seçin."
			return a, nil
		}
		return a.refresh(a.ctrl.RunAnalysis(model.ActionCompare))

	case key.Matches(msg, keys.Chat):
		if a.st.Analysis.Result == "" || a.st.Analysis.Loading {
			return a, nil
		}
		a.focus = focusChat
		cmd := a.chat.Focus()
		return a, cmd

	case key.Matches(msg, keys.ScrollUp, keys.ScrollDn):
		var cmd tea.Cmd
		a.analysisView, cmd = a.analysisView.Update(msg)
		return a, cmd

	case key.Matches(msg, keys.History):
		if a.history == nil {
			return a, nil
		}
		a.overlay = overlayHistory
		return a, loadHistory(a.history)

	case key.Matches(msg, keys.Debug):
		a.overlay = overlayDebug
		return a, nil
	}

	return a, nil
}

func (a App) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	closeKey := keys.Debug
	if a.overlay == overlayHistory {
		closeKey = keys.History
	}
	if key.Matches(msg, keys.Escape, keys.Quit, closeKey) {
		a.overlay = overlayNone
	}
	return a, nil
}

func (a App) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	switch {
	case a.picker.IsConfirmed():
		a.cursor = 0
		return a.refresh(cmd, a.ctrl.ConfirmSourcesAndFilters(a.picker.Sources(), a.picker.Filters()))
	case a.picker.IsQuitting():
		a.ctrl.CloseSourcePicker()
		return a.refresh(cmd)
	}
	return a, cmd
}

func (a App) updateFilterPanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.filterPanel, cmd = a.filterPanel.Update(msg)
	switch {
	case a.filterPanel.IsApplied():
		a.cursor = 0
		return a.refresh(cmd, a.ctrl.ApplyFilters(a.filterPanel.Filters()))
	case a.filterPanel.IsQuitting():
		a.ctrl.ToggleFilterPanel()
		return a.refresh(cmd)
	}
	if f := a.filterPanel.Filters(); f != a.st.Filters && a.filterPanel.Validate() == nil {
		a.ctrl.SetFilters(f)
		return a.refresh(cmd)
	}
	return a, cmd
}

func (a App) updateDocument(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Escape, keys.Quit) {
		a.ctrl.CloseDocument()
		return a.refresh()
	}
	var cmd tea.Cmd
	a.docView, cmd = a.docView.Update(msg)
	return a, cmd
}

func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(a.search.Value())
		a.search.Blur()
		a.focus = focusResults
		a.cursor = 0
		return a.refresh(a.ctrl.SubmitSearch(text))
	case tea.KeyEsc:
		a.search.Blur()
		a.focus = focusResults
		a.search.SetValue(a.st.Query)
		return a, nil
	case tea.KeyUp:
		if a.recall < len(a.recent)-1 {
			a.recall++
			a.search.SetValue(a.recent[a.recall])
			a.search.CursorEnd()
		}
		return a, nil
	case tea.KeyDown:
		switch {
		case a.recall > 0:
			a.recall--
			a.search.SetValue(a.recent[a.recall])
			a.search.CursorEnd()
		case a.recall == 0:
			a.recall = -1
			a.search.SetValue("")
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	return a, cmd
}

func (a App) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		cmd := a.ctrl.SendChatMessage(a.chat.Value())
		if cmd != nil {
			a.chat.Reset()
		}
		return a.refresh(cmd)
	case tea.KeyEsc:
		a.chat.Blur()
		a.focus = focusResults
		return a, nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		a.analysisView, cmd = a.analysisView.Update(msg)
		return a, cmd
	}
	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	return a, cmd
}

// View renders the application.
func (a App) View() string {
	if !a.ready {
		return "Başlatılıyor..."
	}

	if a.st.SourcePickerOpen {
		return a.picker.View()
	}

	switch a.overlay {
	case overlayDebug:
		return debugOverlay(a.ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	case overlayHistory:
		bar := StatusBar.Width(a.width).Render("  [GEÇMİŞ]  " + StatusBarKey.Render("h") + StatusBarText.Render(":kapat"))
		return historyOverlay(a.hist, a.width, a.height-1) + "\n" + bar
	}

	if doc := a.st.Viewing; doc != nil {
		return a.documentView(doc)
	}

	top := SearchBar.Width(a.width).Render(a.search.View()) + "\n" + renderSources(a.st.Sources, a.st.Filters, a.width)
	if a.st.FilterPanelOpen {
		top += "\n" + a.filterPanel.View()
	}
	status := renderStatusBar(a.st, a.notice, a.width)
	bodyH := maxInt(a.height-lipgloss.Height(top)-lipgloss.Height(status), 3)

	resultsW := a.width
	if a.showAnalysis() {
		resultsW = a.width - a.analysisWidth()
	}
	results := renderResults(a.st, a.cursor, resultsW, bodyH, a.spinner.View())
	body := lipgloss.NewStyle().Width(resultsW).Height(bodyH).MaxHeight(bodyH).Render(results)
	if a.showAnalysis() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, a.analysisPanel(bodyH))
	}

	return lipgloss.JoinVertical(lipgloss.Left, top, body, status)
}

func (a App) analysisPanel(height int) string {
	header := analysisHeader(a.st, a.spinner.View())
	var footer string
	if a.st.Analysis.Result != "" {
		if a.st.ChatPending {
			footer = StatusBarText.Render(a.spinner.View() + " Asistan yazıyor...")
		}
		footer += "\n" + a.chat.View()
	}

	// Border takes two lines.
	vp := a.analysisView
	vp.Height = maxInt(height-2-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	parts := []string{header, vp.View()}
	if footer != "" {
		parts = append(parts, footer)
	}
	style := Panel
	if a.focus == focusChat {
		style = ActivePanel
	}
	return style.Width(a.analysisWidth() - 2).Height(height - 2).Render(strings.Join(parts, "\n"))
}

func (a App) documentView(doc *model.FullDocument) string {
	title := PanelTitle.Render(truncateRunes(doc.Title, maxInt(a.width-8, 10)))
	if a.st.DocumentLoading {
		title += " " + a.spinner.View()
	}
	panel := ActivePanel.Width(a.width - 2).Render(title + "\n" + a.docView.View())
	bar := StatusBar.Width(a.width).Render(
		helpFor(key.NewBinding(key.WithHelp("esc", "kapat"))) + " " +
			helpFor(key.NewBinding(key.WithHelp("j/k", "kaydır"))) + " " +
			StatusBarText.Render(fmt.Sprintf("%3.f%%", a.docView.ScrollPercent()*100)))
	return lipgloss.JoinVertical(lipgloss.Left, panel, bar)
}

// Cursor returns the result cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// State returns the session snapshot the App last rendered.
func (a App) State() session.State {
	return a.st
}
