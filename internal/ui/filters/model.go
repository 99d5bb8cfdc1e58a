package filters

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/emsal/internal/model"
)

const dateLayout = "2006-01-02"

// allChambers labels the empty chamber choice.
const allChambers = "Tüm Daireler"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(24)
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
	chamberLabels = map[model.FilterKey]string{
		model.FilterYargitayDaire: "Yargıtay Daire/Kurul",
		model.FilterDanistayDaire: "Danıştay Daire/Kurul",
		model.FilterSayistayDaire: "Sayıştay Daire/Kurul",
	}
)

// field is one editable row. Chamber rows cycle through options; date rows
// take typed input.
type field struct {
	key     model.FilterKey
	label   string
	options []string
}

func (f field) isDate() bool { return f.options == nil }

// Model edits a FilterSet for the chosen sources. Chamber rows appear only
// for selected sources that have chambers; the date range appears whenever
// any source is selected.
type Model struct {
	filters  model.FilterSet
	fields   []field
	cursor   int
	start    textinput.Model
	end      textinput.Model
	err      string
	width    int
	embedded bool
	applied  bool
	quitting bool
}

// New creates a filter editor for sources starting from filters.
func New(sources []model.Source, filters model.FilterSet) Model {
	m := Model{
		filters: filters,
		start:   dateInput(filters.StartDate),
		end:     dateInput(filters.EndDate),
		width:   60,
	}
	m.SetSources(sources)
	return m
}

func dateInput(value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "YYYY-AA-GG"
	ti.CharLimit = len(dateLayout)
	ti.Width = 12
	ti.Prompt = ""
	ti.SetValue(value)
	return ti
}

// NewEmbedded creates an editor hosted inside another view: it draws no
// border and leaves enter and esc to the host.
func NewEmbedded(sources []model.Source, filters model.FilterSet) Model {
	m := New(sources, filters)
	m.embedded = true
	return m
}

// SetSources rebuilds the rows for a new source selection. Values already
// entered are kept.
func (m *Model) SetSources(sources []model.Source) {
	m.filters = m.Filters()
	m.fields = m.fields[:0]
	for _, src := range model.AllSources {
		if !model.ContainsSource(sources, src) {
			continue
		}
		if key, ok := model.ChamberKey(src); ok {
			m.fields = append(m.fields, field{
				key:     key,
				label:   chamberLabels[key],
				options: append([]string{""}, src.Chambers()...),
			})
		}
	}
	if len(sources) > 0 {
		m.fields = append(m.fields,
			field{key: model.FilterStartDate, label: "Başlangıç Tarihi"},
			field{key: model.FilterEndDate, label: "Bitiş Tarihi"},
		)
	}
	if m.cursor >= len(m.fields) {
		m.cursor = 0
	}
	m.focusCurrent()
}

// SetWidth sets the rendered width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// Filters returns the edited filter set.
func (m Model) Filters() model.FilterSet {
	f := m.filters
	f.StartDate = strings.TrimSpace(m.start.Value())
	f.EndDate = strings.TrimSpace(m.end.Value())
	return f
}

// Validate checks the date range.
func (m Model) Validate() error {
	f := m.Filters()
	var start, end time.Time
	var err error
	if f.StartDate != "" {
		if start, err = time.Parse(dateLayout, f.StartDate); err != nil {
			return fmt.Errorf("geçersiz başlangıç tarihi: %s", f.StartDate)
		}
	}
	if f.EndDate != "" {
		if end, err = time.Parse(dateLayout, f.EndDate); err != nil {
			return fmt.Errorf("geçersiz bitiş tarihi: %s", f.EndDate)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("bitiş tarihi başlangıçtan önce olamaz")
	}
	return nil
}

// Focused reports whether a date row has keyboard focus.
func (m Model) Focused() bool {
	return m.start.Focused() || m.end.Focused()
}

func (m *Model) focusCurrent() {
	m.start.Blur()
	m.end.Blur()
	if m.cursor >= len(m.fields) {
		return
	}
	switch m.fields[m.cursor].key {
	case model.FilterStartDate:
		m.start.Focus()
	case model.FilterEndDate:
		m.end.Focus()
	}
}

// Blur releases keyboard focus, for hosts that move focus elsewhere.
func (m *Model) Blur() {
	m.start.Blur()
	m.end.Blur()
}

// Refocus restores focus to the current row.
func (m *Model) Refocus() {
	m.focusCurrent()
}

func (m *Model) cycle(delta int) {
	f := m.fields[m.cursor]
	current := m.filters.Get(f.key)
	idx := 0
	for i, opt := range f.options {
		if opt == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(f.options)) % len(f.options)
	m.filters = m.filters.With(f.key, f.options[idx])
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "esc":
		if !m.embedded {
			m.quitting = true
		}
		return m, nil
	case "enter":
		if m.embedded {
			return m, nil
		}
		if err := m.Validate(); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.err = ""
		m.applied = true
		return m, nil
	case "down", "tab":
		if len(m.fields) > 0 {
			m.cursor = (m.cursor + 1) % len(m.fields)
			m.focusCurrent()
		}
		return m, nil
	case "up", "shift+tab":
		if len(m.fields) > 0 {
			m.cursor = (m.cursor - 1 + len(m.fields)) % len(m.fields)
			m.focusCurrent()
		}
		return m, nil
	}

	if len(m.fields) == 0 {
		return m, nil
	}
	f := m.fields[m.cursor]
	if !f.isDate() {
		switch key.String() {
		case "right", "l", " ":
			m.cycle(1)
		case "left", "h":
			m.cycle(-1)
		case "backspace", "delete":
			m.filters = m.filters.With(f.key, "")
		}
		return m, nil
	}

	var cmd tea.Cmd
	if f.key == model.FilterStartDate {
		m.start, cmd = m.start.Update(msg)
	} else {
		m.end, cmd = m.end.Update(msg)
	}
	m.err = ""
	return m, cmd
}

func (m Model) View() string {
	var lines []string
	if !m.embedded {
		lines = append(lines, titleStyle.Render("Filtreler"), "")
	}
	if len(m.fields) == 0 {
		lines = append(lines, helpStyle.Render("Filtre seçenekleri için önce kaynak seçin."))
	}

	for i, f := range m.fields {
		cursor := "  "
		label := labelStyle.Render(f.label)
		if i == m.cursor {
			cursor = activeStyle.Render("▸ ")
		}

		var value string
		switch {
		case f.key == model.FilterStartDate:
			value = m.start.View()
		case f.key == model.FilterEndDate:
			value = m.end.View()
		default:
			v := m.filters.Get(f.key)
			if v == "" {
				v = allChambers
			}
			value = valueStyle.Render("‹ " + v + " ›")
		}
		lines = append(lines, cursor+label+value)
	}

	if m.err != "" {
		lines = append(lines, "", errorStyle.Render(m.err))
	}
	if !m.embedded {
		lines = append(lines, "", helpStyle.Render("  [↑/↓]alan  [←/→]daire  [enter]uygula  [esc]kapat"))
		return panelStyle.Width(m.width).Render(strings.Join(lines, "\n"))
	}
	return strings.Join(lines, "\n")
}

// IsApplied reports whether the user confirmed the filters.
func (m Model) IsApplied() bool { return m.applied }

// IsQuitting reports whether the user closed the panel.
func (m Model) IsQuitting() bool { return m.quitting }

// Reset clears the applied and quitting flags.
func (m *Model) Reset() { m.applied, m.quitting = false, false }
