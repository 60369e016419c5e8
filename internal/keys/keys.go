package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Screens
	Dashboard key.Binding
	Clients   key.Binding
	Projects  key.Binding
	Invoices  key.Binding

	// Record actions
	New      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Add      key.Binding
	Advance  key.Binding
	PayAll   key.Binding
	OpenMap  key.Binding
	DrainNow key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search clients"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "dashboard"),
		),
		Clients: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "clients"),
		),
		Projects: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "projects"),
		),
		Invoices: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "invoices"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add child record"),
		),
		Advance: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "advance project status"),
		),
		PayAll: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "mark invoices paid"),
		),
		OpenMap: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "show map link"),
		),
		DrainNow: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "replay queued cascades"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.New,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Dashboard, k.Clients, k.Projects, k.Invoices},
		{k.New, k.Edit, k.Delete, k.Add, k.Search},
		{k.Advance, k.PayAll, k.OpenMap, k.Refresh, k.DrainNow, k.Help},
	}
}
