package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/emsal/internal/model"
	"github.com/abelbrown/emsal/internal/session"
	"github.com/abelbrown/emsal/internal/ui/markup"
)

// linesPerItem is the height of one rendered result: title, meta, snippet.
const linesPerItem = 3

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// renderSources renders the chosen sources as badges, or a prompt when
// none are chosen.
func renderSources(sources []model.Source, f model.FilterSet, width int) string {
	if len(sources) == 0 {
		return StatusBarText.Render(" Kaynak seçilmedi. Seçmek için ") +
			StatusBarKey.Render("s") + StatusBarText.Render(" tuşuna basın.")
	}
	var b strings.Builder
	for _, s := range sources {
		b.WriteString(SourceBadge.Render(string(s)))
	}
	if !f.IsZero() {
		b.WriteString(StatusBarText.Render(filterSummary(f)))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}

func filterSummary(f model.FilterSet) string {
	var parts []string
	for _, v := range []string{f.YargitayDaire, f.DanistayDaire, f.SayistayDaire} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	switch {
	case f.StartDate != "" && f.EndDate != "":
		parts = append(parts, f.StartDate+" – "+f.EndDate)
	case f.StartDate != "":
		parts = append(parts, f.StartDate+" sonrası")
	case f.EndDate != "":
		parts = append(parts, f.EndDate+" öncesi")
	}
	return strings.Join(parts, " · ")
}

// renderResults renders the current result page with the cursor kept in view.
func renderResults(st session.State, cursor, width, height int, spin string) string {
	var b strings.Builder
	if st.SearchError != "" {
		b.WriteString(ErrorStyle.Render(st.SearchError))
		b.WriteString("\n")
		height--
	}

	switch {
	case st.SearchLoading && st.Results == nil:
		b.WriteString(HelpStyle.Render(spin + " Aranıyor..."))
		return b.String()
	case st.Results == nil:
		if st.SearchError == "" {
			b.WriteString(HelpStyle.Render("Aramak için / tuşuna basın. Kaynak ve filtre seçimi için s."))
		}
		return b.String()
	case len(st.Results.Items) == 0:
		b.WriteString(HelpStyle.Render("Sonuç bulunamadı."))
		return b.String()
	}

	// One line for the page footer.
	visible := (height - 1) / linesPerItem
	if visible < 1 {
		visible = 1
	}
	offset := 0
	if cursor >= visible {
		offset = cursor - visible + 1
	}

	items := st.Results.Items
	for i := offset; i < len(items) && i < offset+visible; i++ {
		b.WriteString(renderItem(items[i], i == cursor, st.IsSelected(items[i].ID), width))
		b.WriteString("\n")
	}

	footer := fmt.Sprintf("Sayfa %d/%d · %d sonuç", st.Results.Page, maxInt(st.Results.Pages, 1), st.Results.Total)
	if st.SearchLoading {
		footer += " · " + spin + " yükleniyor"
	}
	b.WriteString(StatusBarText.Render(" " + footer))
	return b.String()
}

func renderItem(it model.ResultItem, current, selected bool, width int) string {
	box := "[ ]"
	if selected {
		box = CheckMark.Render("[✓]")
	}
	title := truncateRunes(it.Title, maxInt(width-8, 10))
	style := NormalItem
	if current {
		style = SelectedItem
	}

	meta := []string{string(it.Source)}
	if it.Date != "" {
		meta = append(meta, it.Date)
	}
	if it.CaseNumber != "" {
		meta = append(meta, it.CaseNumber)
	}
	if it.Score > 0 {
		meta = append(meta, fmt.Sprintf("skor %.2f", it.Score))
	}

	snippet := strings.Join(strings.Fields(it.Snippet), " ")
	return box + style.Render(title) + "\n" +
		"    " + ItemMeta.Render(truncateRunes(strings.Join(meta, " · "), maxInt(width-6, 10))) + "\n" +
		"    " + ItemSnippet.Render(truncateRunes(snippet, maxInt(width-6, 10)))
}

// analysisContent is the scrollable body of the analysis panel: the result
// followed by the chat thread.
func analysisContent(st session.State, width int) string {
	a := st.Analysis
	if a.Result == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(markup.Render(a.Result, width))
	if a.Provider != "" {
		b.WriteString("\n")
		b.WriteString(StatusBarText.Render("kaynak: " + a.Provider))
	}
	b.WriteString("\n\n")
	b.WriteString(PanelTitle.Render("Analiz Üzerine Sohbet Et"))
	b.WriteString("\n")
	if len(st.Chat) == 0 {
		b.WriteString(StatusBarText.Render("Analiz hakkında soru sormak için c tuşuna basın."))
	}
	for _, m := range st.Chat {
		label := ChatUser.Render("Siz: ")
		if m.Role == model.RoleModel {
			label = ChatModel.Render("Asistan: ")
		}
		b.WriteString("\n")
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(markup.Render(m.Text, width))
		b.WriteString("\n")
	}
	return b.String()
}

// analysisHeader renders what stands above the analysis viewport.
func analysisHeader(st session.State, spin string) string {
	a := st.Analysis
	title := "Analiz"
	switch a.Action {
	case model.ActionSummarize:
		title = "Özet"
	case model.ActionCompare:
		title = "Karşılaştırma"
	}
	lines := []string{PanelTitle.Render(title)}
	switch {
	case a.Loading:
		lines = append(lines, spin+" "+st.LoadingMessage())
	case a.Error != "":
		lines = append(lines, ErrorStyle.Render(a.Error))
	}
	return strings.Join(lines, "\n")
}

// documentContent is the scrollable body of the document modal.
func documentContent(st session.State, width int) string {
	doc := st.Viewing
	if doc == nil {
		return ""
	}
	var meta []string
	if doc.Court != "" {
		meta = append(meta, "Mahkeme: "+doc.Court)
	}
	meta = append(meta, "Kaynak: "+string(doc.Source))
	if doc.Date != "" {
		meta = append(meta, "Tarih: "+doc.Date)
	}
	if doc.CaseNumber != "" {
		meta = append(meta, "Esas/Karar: "+doc.CaseNumber)
	}

	var b strings.Builder
	b.WriteString(ItemMeta.Render(strings.Join(meta, " · ")))
	b.WriteString("\n\n")
	switch {
	case st.DocumentError != "":
		b.WriteString(ErrorStyle.Render(st.DocumentError))
	case st.DocumentLoading && doc.PageContent == "":
		b.WriteString(StatusBarText.Render("Belge içeriği yükleniyor..."))
		if doc.Snippet != "" {
			b.WriteString("\n\n")
			b.WriteString(lipgloss.NewStyle().Width(width).Render(doc.Snippet))
		}
	default:
		b.WriteString(lipgloss.NewStyle().Width(width).Render(doc.PageContent))
	}
	return b.String()
}

// renderStatusBar renders the bottom bar: selection state on the left and
// key hints on the right.
func renderStatusBar(st session.State, notice string, width int) string {
	left := fmt.Sprintf(" Seçili: %d ", len(st.Selected))
	switch {
	case st.CanCompare():
		left += StatusBarText.Render("· C ile karşılaştır ")
	case st.CanSummarize():
		left += StatusBarText.Render("· S ile özetle ")
	}
	if notice != "" {
		left += ErrorStyle.Render(notice)
	}

	var hints []string
	for _, k := range keys.hints() {
		hints = append(hints, helpFor(k))
	}
	right := strings.Join(hints, " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		// Not enough room: drop hints from the right until they fit.
		for len(hints) > 0 && padding < 1 {
			hints = hints[:len(hints)-1]
			right = strings.Join(hints, " ")
			padding = width - lipgloss.Width(left) - lipgloss.Width(right) - 2
		}
		if padding < 0 {
			padding = 0
		}
	}
	return StatusBar.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func helpFor(b key.Binding) string {
	h := b.Help()
	return StatusBarKey.Render(h.Key) + StatusBarText.Render(":"+h.Desc)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
