package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	Search    key.Binding
	Sources   key.Binding
	Filters   key.Binding
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Open      key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Summarize key.Binding
	Compare   key.Binding
	Chat      key.Binding
	ScrollUp  key.Binding
	ScrollDn  key.Binding
	History   key.Binding
	Debug     key.Binding
	Escape    key.Binding
	Enter     key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "çıkış")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "ara")),
	Sources:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "kaynaklar")),
	Filters:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filtreler")),
	Up:        key.NewBinding(key.WithKeys("k", "up")),
	Down:      key.NewBinding(key.WithKeys("j", "down")),
	Select:    key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "seç")),
	Open:      key.NewBinding(key.WithKeys("enter", "o"), key.WithHelp("enter", "oku")),
	NextPage:  key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/p", "sayfa")),
	PrevPage:  key.NewBinding(key.WithKeys("p", "left")),
	Summarize: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "özetle")),
	Compare:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "karşılaştır")),
	Chat:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "sohbet")),
	ScrollUp:  key.NewBinding(key.WithKeys("pgup", "ctrl+u")),
	ScrollDn:  key.NewBinding(key.WithKeys("pgdown", "ctrl+d")),
	History:   key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "geçmiş")),
	Debug:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "debug")),
	Escape:    key.NewBinding(key.WithKeys("esc")),
	Enter:     key.NewBinding(key.WithKeys("enter")),
}

// hints is the status bar key list.
func (k keyMap) hints() []key.Binding {
	return []key.Binding{k.Search, k.Sources, k.Filters, k.Select, k.Open, k.NextPage, k.Summarize, k.Compare, k.Chat, k.History, k.Quit}
}
