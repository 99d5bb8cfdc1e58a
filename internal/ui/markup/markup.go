// Package markup renders the small markup subset AI responses use: #, ##
// and ### headings, "* " bullets, "N. " numbered lines, a lone "---" rule
// and **bold** spans. Everything else is plain text.
package markup

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

var (
	h1Style     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginTop(1)
	h2Style     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).MarginTop(1)
	h3Style     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	bulletStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Kind classifies one line of input.
type Kind int

const (
	Paragraph Kind = iota
	Heading1
	Heading2
	Heading3
	Bullet
	Numbered
	Rule
	Blank
)

// Line is one classified input line. Text has the marker removed; for
// Numbered lines Marker holds "N.".
type Line struct {
	Kind   Kind
	Marker string
	Text   string
}

// Parse classifies each line of text.
func Parse(text string) []Line {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, classify(l))
	}
	return lines
}

func classify(l string) Line {
	t := strings.TrimSpace(l)
	switch {
	case t == "":
		return Line{Kind: Blank}
	case t == "---":
		return Line{Kind: Rule}
	case strings.HasPrefix(t, "### "):
		return Line{Kind: Heading3, Text: t[4:]}
	case strings.HasPrefix(t, "## "):
		return Line{Kind: Heading2, Text: t[3:]}
	case strings.HasPrefix(t, "# "):
		return Line{Kind: Heading1, Text: t[2:]}
	case strings.HasPrefix(t, "* "):
		return Line{Kind: Bullet, Text: t[2:]}
	}
	if marker, rest, ok := numbered(t); ok {
		return Line{Kind: Numbered, Marker: marker, Text: rest}
	}
	return Line{Kind: Paragraph, Text: t}
}

// numbered splits "12. text" into "12." and "text".
func numbered(t string) (string, string, bool) {
	i := 0
	for i < len(t) && t[i] >= '0' && t[i] <= '9' {
		i++
	}
	if i == 0 || !strings.HasPrefix(t[i:], ". ") {
		return "", "", false
	}
	return t[:i+1], t[i+2:], true
}

// Span is a run of inline text, bold or not.
type Span struct {
	Text string
	Bold bool
}

// Inline splits text on paired ** markers. An unpaired ** is kept literally.
func Inline(text string) []Span {
	var spans []Span
	for {
		start := strings.Index(text, "**")
		if start < 0 {
			break
		}
		end := strings.Index(text[start+2:], "**")
		if end < 0 {
			break
		}
		if start > 0 {
			spans = append(spans, Span{Text: text[:start]})
		}
		if inner := text[start+2 : start+2+end]; inner != "" {
			spans = append(spans, Span{Text: inner, Bold: true})
		}
		text = text[start+2+end+2:]
	}
	if text != "" {
		spans = append(spans, Span{Text: text})
	}
	return spans
}

func renderInline(text string) string {
	var b strings.Builder
	for _, s := range Inline(text) {
		if s.Bold {
			b.WriteString(boldStyle.Render(s.Text))
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// Render formats text for a terminal of the given width.
func Render(text string, width int) string {
	if width < 10 {
		width = 10
	}
	wrap := lipgloss.NewStyle().Width(width)

	var out []string
	prevBlank := true
	for _, l := range Parse(text) {
		switch l.Kind {
		case Blank:
			if !prevBlank {
				out = append(out, "")
			}
			prevBlank = true
			continue
		case Rule:
			out = append(out, ruleStyle.Render(strings.Repeat("─", width)))
		case Heading1:
			out = append(out, h1Style.Width(width).Render(strings.ToUpper(stripMarkers(l.Text))))
		case Heading2:
			out = append(out, h2Style.Width(width).Render(stripMarkers(l.Text)))
		case Heading3:
			out = append(out, h3Style.Width(width).Render(stripMarkers(l.Text)))
		case Bullet:
			out = append(out, hanging(bulletStyle.Render("•"), 2, l.Text, width))
		case Numbered:
			out = append(out, hanging(bulletStyle.Render(l.Marker), len(l.Marker)+1, l.Text, width))
		default:
			out = append(out, wrap.Render(renderInline(l.Text)))
		}
		prevBlank = false
	}
	return strings.TrimRightFunc(strings.Join(out, "\n"), unicode.IsSpace)
}

// hanging renders marker followed by text wrapped under an indent.
func hanging(marker string, indent int, text string, width int) string {
	body := lipgloss.NewStyle().Width(width - indent).Render(renderInline(text))
	return lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(indent).Render(marker), body)
}

func stripMarkers(text string) string {
	var b strings.Builder
	for _, s := range Inline(text) {
		b.WriteString(s.Text)
	}
	return b.String()
}
