package tui

import "github.com/charmbracelet/bubbles/key"

type boardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Edit     key.Binding
	Delete   key.Binding
	New      key.Binding
	Filter   key.Binding
	Refresh  key.Binding
	Copy     key.Binding
	Avatar   key.Binding
	Close    key.Binding
	Logout   key.Binding
	Quit     key.Binding
	SortKeys key.Binding
}

var boardKeys = boardKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "detail")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
	Avatar:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "avatar")),
	Close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	SortKeys: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6"), key.WithHelp("1-6", "sort")),
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.SortKeys, k.New, k.Edit, k.Delete, k.Filter, k.Refresh, k.Copy, k.Avatar, k.Logout, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type formKeyMap struct {
	Next        key.Binding
	Prev        key.Binding
	Left        key.Binding
	Right       key.Binding
	Save        key.Binding
	NewCategory key.Binding
	Cancel      key.Binding
}

var formKeys = formKeyMap{
	Next:        key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
	Prev:        key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
	Left:        key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev option")),
	Right:       key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next option")),
	Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	NewCategory: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new category")),
	Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Left, k.Right, k.Save, k.NewCategory, k.Cancel}
}

func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
