package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings shared by all views
type KeyMap struct {
	Quit   key.Binding
	Back   key.Binding
	Enter  key.Binding
	Tab    key.Binding
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Save   key.Binding
	Search key.Binding
	Help   key.Binding

	// task actions
	Toggle        key.Binding
	Check         key.Binding
	Priority      key.Binding
	ShowCompleted key.Binding
	Subtask       key.Binding
	Comment       key.Binding
	Timer         key.Binding
	Refresh       key.Binding
	Role          key.Binding

	// navigation between views
	Workspaces key.Binding
	Insights   key.Binding
	Completed  key.Binding
	Members    key.Binding
	MyTasks    key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("↵", "select")),
		Tab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),

		Toggle:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "done")),
		Check:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "check subtask")),
		Priority:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority")),
		ShowCompleted: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "completed")),
		Subtask:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add subtask")),
		Comment:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
		Timer:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "timer")),
		Refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Role:          key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "role")),

		Workspaces: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "workspaces")),
		Insights:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "insights")),
		Completed:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "completed")),
		Members:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "members")),
		MyTasks:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "my tasks")),
	}
}
