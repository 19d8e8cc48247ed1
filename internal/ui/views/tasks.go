package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/analytics"
	"github.com/tgienger/taskboard/internal/db"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/session"
	"github.com/tgienger/taskboard/internal/ui/keys"
	"github.com/tgienger/taskboard/internal/ui/styles"
)

const dueLayout = "2006-01-02"

// task form fields
const (
	taskFieldName = iota
	taskFieldPriority
	taskFieldDue
	taskFieldSave
	taskFieldCount
)

// TaskListView shows the top-level tasks of a project
type TaskListView struct {
	ctrl    *session.Controller
	project models.Project
	tasks   []models.Task
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	cursor        int
	scrollY       int
	loaded        bool
	searching     bool
	searchInput   textinput.Model
	showCompleted bool

	// Task creation/editing
	editing      bool
	editingID    string // empty for a new task
	editTitle    textinput.Model
	editDue      textinput.Model
	editPriority int // index into models.Priorities
	editFocusIdx int

	confirmingDelete bool
	deleteTarget     models.Task

	drawer *TaskDrawer

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskListView creates a new task list view
func NewTaskListView(ctrl *session.Controller, project models.Project) *TaskListView {
	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Task name"
	editTitle.CharLimit = 200

	editDue := textinput.New()
	editDue.Placeholder = dueLayout
	editDue.CharLimit = len(dueLayout)

	return &TaskListView{
		ctrl:        ctrl,
		project:     project,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		searchInput: search,
		editTitle:   editTitle,
		editDue:     editDue,
	}
}

type tasksLoadedMsg struct {
	projectID string
	tasks     []models.Task
	err       error
}

type taskSavedMsg struct {
	update  session.TaskUpdate
	created *models.Task
	err     error
}

type taskDeletedMsg struct {
	task models.Task
	err  error
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return v.loadTasks()
}

func (v *TaskListView) loadTasks() tea.Cmd {
	projectID := v.project.ID
	return call(func(ctx context.Context) tea.Msg {
		tasks, err := v.ctrl.ProjectTasks(ctx, projectID)
		return tasksLoadedMsg{projectID: projectID, tasks: tasks, err: err}
	})
}

// visible returns the tasks shown with the current search and completed filter
func (v *TaskListView) visible() []models.Task {
	search := strings.ToLower(strings.TrimSpace(v.searchInput.Value()))
	var out []models.Task
	for _, t := range v.tasks {
		if t.Status.IsComplete() != v.showCompleted {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (v *TaskListView) selected() (models.Task, bool) {
	tasks := v.visible()
	if v.cursor < 0 || v.cursor >= len(tasks) {
		return models.Task{}, false
	}
	return tasks[v.cursor], true
}

// replaceTask swaps in t for the task with the same id
func (v *TaskListView) replaceTask(t models.Task) {
	for i := range v.tasks {
		if v.tasks[i].ID == t.ID {
			v.tasks[i] = t
			return
		}
	}
}

func (v *TaskListView) clampCursor() {
	v.cursor = clamp(v.cursor, 0, max(0, len(v.visible())-1))
	v.ensureVisible()
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		if v.drawer != nil {
			v.drawer.resize(msg.Width, msg.Height)
		}
		return v, nil

	case tasksLoadedMsg:
		if msg.projectID != v.project.ID {
			return v, nil
		}
		v.loaded = true
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		v.tasks = msg.tasks
		v.clampCursor()
		return v, nil

	case taskSavedMsg:
		if msg.update.Apply {
			v.replaceTask(msg.update.Task)
			v.clampCursor()
		}
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		if msg.created != nil {
			return v, tea.Batch(notify(fmt.Sprintf("Created task %q", msg.created.Name)), v.loadTasks())
		}
		return v, nil

	case taskDeletedMsg:
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		return v, tea.Batch(notify(fmt.Sprintf("Deleted task %q", msg.task.Name)), v.loadTasks())

	case drawerClosedMsg:
		v.drawer = nil
		return v, v.loadTasks()

	case drawerLoadedMsg, subtaskSavedMsg, subtaskCreatedMsg, commentAddedMsg, timerTickMsg:
		if v.drawer == nil {
			return v, nil
		}
		return v, v.drawer.update(msg)

	case drawerTaskSavedMsg:
		if msg.update.Apply {
			v.replaceTask(msg.update.Task)
		}
		if v.drawer == nil {
			return v, notifyErr(msg.err)
		}
		return v, v.drawer.update(msg)

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.drawer != nil {
			return v, v.drawer.update(msg)
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.editing {
			return v.updateEditing(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle search input typing first - don't process hotkeys while typing
	if v.searching {
		switch {
		case key.Matches(msg, v.keys.Back):
			v.searchInput.Reset()
			fallthrough
		case key.Matches(msg, v.keys.Enter):
			v.searchInput.Blur()
			v.searching = false
			v.clampCursor()
			return v, nil
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			v.cursor = 0
			v.scrollY = 0
			return v, cmd
		}
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, navigate(BackToProjects{})

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.visible())-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if t, ok := v.selected(); ok {
			v.drawer = NewTaskDrawer(v.ctrl, t, v.width, v.height)
			return v, v.drawer.Init()
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if t, ok := v.selected(); ok {
			return v, call(func(ctx context.Context) tea.Msg {
				res, err := v.ctrl.ToggleComplete(ctx, t)
				return taskSavedMsg{update: res, err: err}
			})
		}
		return v, nil

	case key.Matches(msg, v.keys.Priority):
		if t, ok := v.selected(); ok {
			next := nextPriority(t.Priority)
			return v, call(func(ctx context.Context) tea.Msg {
				res, err := v.ctrl.UpdateTask(ctx, t, db.TaskPatch{"priority": next})
				return taskSavedMsg{update: res, err: err}
			})
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if t, ok := v.selected(); ok {
			v.startEditTask(&t)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startEditTask(nil)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTarget = t
		}
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.ShowCompleted):
		v.showCompleted = !v.showCompleted
		v.cursor = 0
		v.scrollY = 0
		return v, nil

	case key.Matches(msg, v.keys.Refresh):
		return v, v.loadTasks()
	}

	return v, nil
}

func nextPriority(p models.Priority) models.Priority {
	switch p.OrDefault() {
	case models.PriorityLow:
		return models.PriorityMedium
	case models.PriorityMedium:
		return models.PriorityHigh
	default:
		return models.PriorityLow
	}
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		target := v.deleteTarget
		return v, call(func(ctx context.Context) tea.Msg {
			return taskDeletedMsg{task: target, err: v.ctrl.DeleteTask(ctx, target.ID)}
		})
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *TaskListView) startEditTask(t *models.Task) {
	v.editing = true
	v.editFocusIdx = taskFieldName
	v.editTitle.Reset()
	v.editDue.Reset()
	v.editingID = ""
	v.editPriority = 1 // medium

	if t != nil {
		v.editingID = t.ID
		v.editTitle.SetValue(t.Name)
		if t.DueDate != nil {
			v.editDue.SetValue(t.DueDate.Local().Format(dueLayout))
		}
		for i, p := range models.Priorities {
			if p == t.Priority.OrDefault() {
				v.editPriority = i
			}
		}
	}
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDue.Blur()
	switch v.editFocusIdx {
	case taskFieldName:
		v.editTitle.Focus()
	case taskFieldDue:
		v.editDue.Focus()
	}
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + taskFieldCount - 1) % taskFieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % taskFieldCount
		v.updateEditFocus()
		return v, nil

	case v.editFocusIdx == taskFieldPriority && key.Matches(msg, v.keys.Left):
		v.editPriority = (v.editPriority + len(models.Priorities) - 1) % len(models.Priorities)
		return v, nil

	case v.editFocusIdx == taskFieldPriority && key.Matches(msg, v.keys.Right):
		v.editPriority = (v.editPriority + 1) % len(models.Priorities)
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.editFocusIdx == taskFieldSave {
			return v, v.saveTask()
		}
		v.editFocusIdx++
		v.updateEditFocus()
		return v, nil
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case taskFieldName:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case taskFieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
	}
	return v, cmd
}

// parseDue reads a due date typed as YYYY-MM-DD in local time
func parseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dueLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("due date must look like %s", dueLayout)
	}
	return &t, nil
}

func (v *TaskListView) saveTask() tea.Cmd {
	name := strings.TrimSpace(v.editTitle.Value())
	if name == "" {
		v.editing = false
		return nil
	}
	due, err := parseDue(v.editDue.Value())
	if err != nil {
		return notifyErr(err)
	}
	priority := models.Priorities[v.editPriority]
	v.editing = false

	if v.editingID == "" {
		in := db.TaskInput{Name: name, ProjectID: &v.project.ID, Priority: priority, DueDate: due}
		return call(func(ctx context.Context) tea.Msg {
			t, err := v.ctrl.CreateTask(ctx, in)
			return taskSavedMsg{created: t, err: err}
		})
	}

	var current models.Task
	for _, t := range v.tasks {
		if t.ID == v.editingID {
			current = t
		}
	}
	patch := db.TaskPatch{"name": name, "priority": priority, "dueDate": due}
	if due == nil {
		patch["dueDate"] = nil
	}
	return call(func(ctx context.Context) tea.Msg {
		res, err := v.ctrl.UpdateTask(ctx, current, patch)
		return taskSavedMsg{update: res, err: err}
	})
}

func (v *TaskListView) ensureVisible() {
	visibleItems := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// visibleItems is how many two-line task rows fit on screen
func (v *TaskListView) visibleItems() int {
	availableHeight := max(v.height-10, 3)
	return max(availableHeight/3, 1)
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.drawer != nil {
		return v.drawer.View()
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.editing {
		return v.renderEditForm()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	searchStyle := s.Input
	if v.searching {
		searchStyle = s.InputFocused
	}
	searchWidth := clamp(contentWidth-8, 10, 30)
	searchBox := searchStyle.Width(searchWidth).Render(v.searchInput.View())

	dot := lipgloss.NewStyle().Foreground(styles.ProjectColor(v.project.Color)).Render("●")
	titleText := v.project.Name
	if v.showCompleted {
		titleText += " (Completed)"
	}
	title := dot + " " + s.Title.Render(titleText)

	return lipgloss.JoinVertical(lipgloss.Left, title, searchBox)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}
	tasks := v.visible()
	if len(tasks) == 0 {
		if v.showCompleted {
			return s.TitleMuted.Render("No completed tasks.")
		}
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	var items []string
	endIdx := min(v.scrollY+v.visibleItems(), len(tasks))
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(tasks[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	check := "[ ]"
	name := task.Name
	if task.Status.IsComplete() {
		check = "[x]"
		name = s.TaskDone.Render(name)
	}
	priority := s.TaskPriority.Foreground(styles.PriorityColor(task.Priority)).Render(task.Priority.Label())
	titleLine := check + " " + name + "  " + priority

	var meta []string
	if task.DueDate != nil {
		due := "due " + formatDue(task.DueDate)
		if analytics.IsOverdue(time.Now(), task) {
			due = s.TaskOverdue.Render(due)
		}
		meta = append(meta, due)
	}
	if task.Assignee != nil {
		meta = append(meta, "@"+task.Assignee.DisplayName())
	}
	if task.Status != models.StatusTodo && !task.Status.IsComplete() {
		meta = append(meta, string(task.Status))
	}
	metaLine := s.TitleMuted.Render(strings.Join(meta, " • "))

	style := s.ListItem
	if selected {
		style = s.ListSelected
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		style.Width(width).Render(titleLine),
		style.Width(width).Render("    "+metaLine),
	) + "\n"
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if v.editingID != "" {
		formTitle = "Edit Task"
	}

	titleStyle := s.Input
	priorityStyle := s.Input
	dueStyle := s.Input
	btnStyle := s.Button

	switch v.editFocusIdx {
	case taskFieldName:
		titleStyle = s.InputFocused
	case taskFieldPriority:
		priorityStyle = s.InputFocused
	case taskFieldDue:
		dueStyle = s.InputFocused
	case taskFieldSave:
		btnStyle = s.ButtonFocused
	}

	// Dynamic input width based on content width
	inputWidth := clamp(contentWidth-6, 20, 50)

	var options []string
	for i, p := range models.Priorities {
		label := p.Label()
		if i == v.editPriority {
			label = s.TaskPriority.Foreground(styles.PriorityColor(p)).Render("[" + label + "]")
		} else {
			label = s.TitleMuted.Render(" " + label + " ")
		}
		options = append(options, label)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(formTitle),
		"",
		"Name:",
		titleStyle.Width(inputWidth).Render(v.editTitle.View()),
		"",
		"Priority:",
		priorityStyle.Width(inputWidth).Render(strings.Join(options, " ")),
		"",
		"Due date:",
		dueStyle.Width(16).Render(v.editDue.View()),
		"",
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Tab: next • ←→: priority • Ctrl+S: save • Esc: cancel"),
	)
	return centered(form, v.width, v.height)
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	// Dynamic label for 'c' key based on current mode
	completedLabel := "done"
	if v.showCompleted {
		completedLabel = "open"
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s toggle • %s priority • %s edit • %s new • %s del • %s search • %s %s • %s back",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("x"),
			v.styles.HelpKey.Render("p"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("c"),
			completedLabel,
			v.styles.HelpKey.Render("esc"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles

	completedLabel := "show completed"
	if v.showCompleted {
		completedLabel = "show open"
	}

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open task",
		s.HelpKey.Render("x") + "      toggle complete",
		s.HelpKey.Render("p") + "      cycle priority",
		s.HelpKey.Render("e") + "      edit task",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("/") + "      search",
		s.HelpKey.Render("c") + "      " + completedLabel,
		s.HelpKey.Render("r") + "      refresh",
		s.HelpKey.Render("esc") + "    back",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)
	return centered(s.Popup.Render(content), v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and its subtasks will be deleted.", v.deleteTarget.Name)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return centered(content, v.width, v.height)
}
