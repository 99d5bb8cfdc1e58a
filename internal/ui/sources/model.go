package sources

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/emsal/internal/model"
	"github.com/abelbrown/emsal/internal/ui/filters"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#484f58"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
	dimBoxStyle = boxStyle.BorderForeground(lipgloss.Color("240"))
)

// Model is the source selection surface: a checklist of every source with
// the filters for the checked ones underneath.
type Model struct {
	list          list.Model
	chosen        []model.Source
	filters       filters.Model
	editFilters   bool
	width, height int
	confirmed     bool
	quitting      bool
}

type sourceItem struct {
	source  model.Source
	checked bool
}

func (i sourceItem) Title() string {
	box := "[ ]"
	if i.checked {
		box = "[✓]"
	}
	return fmt.Sprintf("%s %s", box, i.source)
}

func (i sourceItem) Description() string {
	if i.source.HasChamberFilter() {
		return "daire/kurul filtresi"
	}
	return ""
}

func (i sourceItem) FilterValue() string { return string(i.source) }

// New creates a picker starting from the current choice.
func New(current []model.Source, f model.FilterSet) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("#58a6ff"))
	delegate.SetSpacing(0)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Kaynak Seçimi"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()

	m := Model{
		list:    l,
		chosen:  append([]model.Source(nil), current...),
		filters: filters.NewEmbedded(current, f),
	}
	m.filters.Blur()
	m.refresh()
	return m
}

func (m *Model) refresh() {
	items := make([]list.Item, 0, len(model.AllSources))
	for _, src := range model.AllSources {
		items = append(items, sourceItem{source: src, checked: model.ContainsSource(m.chosen, src)})
	}
	m.list.SetItems(items)
}

func (m *Model) toggle(src model.Source) {
	for i, s := range m.chosen {
		if s == src {
			m.chosen = append(m.chosen[:i:i], m.chosen[i+1:]...)
			m.refreshAll()
			return
		}
	}
	m.chosen = append(m.chosen, src)
	m.refreshAll()
}

func (m *Model) refreshAll() {
	m.refresh()
	m.filters.SetSources(m.chosen)
	if !m.editFilters {
		m.filters.Blur()
	}
}

func (m *Model) SetSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w-6, h/2)
	m.filters.SetWidth(w - 6)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "esc":
		m.quitting = true
		return m, nil
	case "enter":
		if err := m.filters.Validate(); err != nil {
			m.editFilters = true
			m.filters.Refocus()
			return m, nil
		}
		m.confirmed = true
		return m, nil
	case "tab":
		m.editFilters = !m.editFilters
		if m.editFilters {
			m.filters.Refocus()
		} else {
			m.filters.Blur()
		}
		return m, nil
	}

	if m.editFilters {
		var cmd tea.Cmd
		m.filters, cmd = m.filters.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case " ", "x":
		if item, ok := m.list.SelectedItem().(sourceItem); ok {
			m.toggle(item.source)
		}
		return m, nil
	case "a":
		if len(m.chosen) == len(model.AllSources) {
			m.chosen = nil
		} else {
			m.chosen = append([]model.Source(nil), model.AllSources...)
		}
		m.refreshAll()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := headerStyle.Render(fmt.Sprintf("  %d / %d kaynak seçili", len(m.chosen), len(model.AllSources)))

	listBox, filterBox := boxStyle, dimBoxStyle
	if m.editFilters {
		listBox, filterBox = dimBoxStyle, boxStyle
	}

	help := helpStyle.Render("  [space]seç [a]tümü [/]ara [tab]filtreler [enter]devam [esc]vazgeç")
	if m.editFilters {
		help = helpStyle.Render("  [↑/↓]alan [←/→]daire [tab]kaynaklar [enter]devam [esc]vazgeç")
	}

	return strings.Join([]string{
		header,
		listBox.Render(m.list.View()),
		filterBox.Render(m.filters.View()),
		help,
	}, "\n")
}

// Sources returns the checked sources in checking order.
func (m Model) Sources() []model.Source {
	return append([]model.Source(nil), m.chosen...)
}

// Filters returns the edited filters.
func (m Model) Filters() model.FilterSet {
	return m.filters.Filters()
}

func (m Model) IsConfirmed() bool { return m.confirmed }
func (m Model) IsQuitting() bool  { return m.quitting }
