package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/analytics"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/session"
	"github.com/tgienger/taskboard/internal/ui/keys"
	"github.com/tgienger/taskboard/internal/ui/styles"
)

// drawer input modes
type drawerMode int

const (
	drawerBrowse drawerMode = iota
	drawerAddSubtask
	drawerComment
)

// timerSeq tags every started timer so ticks from a stopped or closed one
// are dropped
var timerSeq uint64

type (
	drawerClosedMsg struct{}

	drawerLoadedMsg struct {
		taskID   string
		subtasks []models.Task
		comments []models.Comment
		err      error
	}

	subtaskSavedMsg struct {
		update session.TaskUpdate
		err    error
	}

	subtaskCreatedMsg struct {
		parentID string
		task     *models.Task
		err      error
	}

	commentAddedMsg struct {
		taskID string
		err    error
	}

	drawerTaskSavedMsg struct {
		update session.TaskUpdate
		err    error
	}

	timerTickMsg struct {
		taskID string
		seq    uint64
	}
)

// TaskDrawer shows one task with its subtasks and comments
type TaskDrawer struct {
	ctrl   *session.Controller
	task   models.Task
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	loaded   bool
	subtasks []models.Task
	comments []models.Comment
	cursor   int

	mode         drawerMode
	subtaskInput textinput.Model
	commentInput textarea.Model

	// elapsed-time counter, never saved
	running bool
	timerID uint64
	elapsed time.Duration
}

// NewTaskDrawer creates a drawer for task
func NewTaskDrawer(ctrl *session.Controller, task models.Task, width, height int) *TaskDrawer {
	subtaskInput := textinput.New()
	subtaskInput.Placeholder = "Subtask name"
	subtaskInput.CharLimit = 200

	commentInput := textarea.New()
	commentInput.Placeholder = "Add a comment..."
	commentInput.CharLimit = 2000
	commentInput.SetHeight(3)
	commentInput.ShowLineNumbers = false

	d := &TaskDrawer{
		ctrl:         ctrl,
		task:         task,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		subtaskInput: subtaskInput,
		commentInput: commentInput,
	}
	d.resize(width, height)
	return d
}

// Init loads subtasks and comments
func (d *TaskDrawer) Init() tea.Cmd {
	return d.load()
}

func (d *TaskDrawer) load() tea.Cmd {
	taskID := d.task.ID
	return call(func(ctx context.Context) tea.Msg {
		subtasks, err := d.ctrl.Subtasks(ctx, taskID)
		if err != nil {
			return drawerLoadedMsg{taskID: taskID, err: err}
		}
		comments, err := d.ctrl.Comments(ctx, taskID)
		return drawerLoadedMsg{taskID: taskID, subtasks: subtasks, comments: comments, err: err}
	})
}

func (d *TaskDrawer) resize(width, height int) {
	d.width = width
	d.height = height
	d.commentInput.SetWidth(clamp(styles.ContentWidth(width)-6, 20, 70))
}

func (d *TaskDrawer) tick() tea.Cmd {
	taskID, seq := d.task.ID, d.timerID
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return timerTickMsg{taskID: taskID, seq: seq}
	})
}

func (d *TaskDrawer) toggleTimer() tea.Cmd {
	timerSeq++
	d.timerID = timerSeq
	d.running = !d.running
	if d.running {
		return d.tick()
	}
	return nil
}

func (d *TaskDrawer) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case drawerLoadedMsg:
		if msg.taskID != d.task.ID {
			return nil
		}
		d.loaded = true
		if msg.err != nil {
			return notifyErr(msg.err)
		}
		d.subtasks = msg.subtasks
		d.comments = msg.comments
		d.cursor = clamp(d.cursor, 0, max(0, len(d.subtasks)-1))
		return nil

	case subtaskSavedMsg:
		if msg.update.Apply {
			for i := range d.subtasks {
				if d.subtasks[i].ID == msg.update.Task.ID {
					d.subtasks[i] = msg.update.Task
				}
			}
		}
		return notifyErr(msg.err)

	case subtaskCreatedMsg:
		if msg.err != nil {
			return notifyErr(msg.err)
		}
		if msg.parentID == d.task.ID && msg.task != nil {
			d.subtasks = append(d.subtasks, *msg.task)
			d.cursor = len(d.subtasks) - 1
		}
		return nil

	case commentAddedMsg:
		if msg.err != nil {
			return notifyErr(msg.err)
		}
		if msg.taskID != d.task.ID {
			return nil
		}
		return tea.Batch(notify("Comment added"), d.load())

	case drawerTaskSavedMsg:
		if msg.update.Apply && msg.update.Task.ID == d.task.ID {
			d.task = msg.update.Task
		}
		return notifyErr(msg.err)

	case timerTickMsg:
		if !d.running || msg.taskID != d.task.ID || msg.seq != d.timerID {
			return nil
		}
		d.elapsed += time.Second
		return d.tick()

	case tea.KeyMsg:
		switch d.mode {
		case drawerAddSubtask:
			return d.updateSubtaskInput(msg)
		case drawerComment:
			return d.updateCommentInput(msg)
		}
		return d.updateBrowse(msg)
	}
	return nil
}

func (d *TaskDrawer) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, d.keys.Back):
		d.running = false
		return navigate(drawerClosedMsg{})

	case key.Matches(msg, d.keys.Up):
		if d.cursor > 0 {
			d.cursor--
		}

	case key.Matches(msg, d.keys.Down):
		if d.cursor < len(d.subtasks)-1 {
			d.cursor++
		}

	case key.Matches(msg, d.keys.Check):
		if d.cursor < len(d.subtasks) {
			sub := d.subtasks[d.cursor]
			return call(func(ctx context.Context) tea.Msg {
				res, err := d.ctrl.ToggleComplete(ctx, sub)
				return subtaskSavedMsg{update: res, err: err}
			})
		}

	case key.Matches(msg, d.keys.Toggle):
		task := d.task
		return call(func(ctx context.Context) tea.Msg {
			res, err := d.ctrl.ToggleComplete(ctx, task)
			return drawerTaskSavedMsg{update: res, err: err}
		})

	case key.Matches(msg, d.keys.Subtask):
		d.mode = drawerAddSubtask
		d.subtaskInput.Reset()
		d.subtaskInput.Focus()
		return textinput.Blink

	case key.Matches(msg, d.keys.Comment):
		d.mode = drawerComment
		d.commentInput.Reset()
		d.commentInput.Focus()
		return textarea.Blink

	case key.Matches(msg, d.keys.Timer):
		return d.toggleTimer()

	case key.Matches(msg, d.keys.Refresh):
		return d.load()
	}
	return nil
}

func (d *TaskDrawer) updateSubtaskInput(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, d.keys.Back):
		d.mode = drawerBrowse
		d.subtaskInput.Blur()
		return nil

	case key.Matches(msg, d.keys.Enter):
		d.mode = drawerBrowse
		d.subtaskInput.Blur()
		name := strings.TrimSpace(d.subtaskInput.Value())
		if name == "" {
			return nil
		}
		parent := d.task
		return call(func(ctx context.Context) tea.Msg {
			t, err := d.ctrl.AddSubtask(ctx, parent, name)
			return subtaskCreatedMsg{parentID: parent.ID, task: t, err: err}
		})
	}

	var cmd tea.Cmd
	d.subtaskInput, cmd = d.subtaskInput.Update(msg)
	return cmd
}

func (d *TaskDrawer) updateCommentInput(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, d.keys.Back):
		d.mode = drawerBrowse
		d.commentInput.Blur()
		return nil

	case key.Matches(msg, d.keys.Save):
		d.mode = drawerBrowse
		d.commentInput.Blur()
		content := d.commentInput.Value()
		if strings.TrimSpace(content) == "" {
			return nil
		}
		taskID := d.task.ID
		return call(func(ctx context.Context) tea.Msg {
			_, err := d.ctrl.AddComment(ctx, taskID, content)
			return commentAddedMsg{taskID: taskID, err: err}
		})
	}

	var cmd tea.Cmd
	d.commentInput, cmd = d.commentInput.Update(msg)
	return cmd
}

// formatElapsed renders a duration as h:mm:ss
func formatElapsed(e time.Duration) string {
	secs := int(e / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// View renders the drawer
func (d *TaskDrawer) View() string {
	s := d.styles
	width := max(styles.ContentWidth(d.width)-4, 20)

	check := "[ ]"
	if d.task.Status.IsComplete() {
		check = "[x]"
	}
	sections := []string{s.Title.Render(check + " " + d.task.Name)}

	var meta []string
	meta = append(meta, s.TaskPriority.Foreground(styles.PriorityColor(d.task.Priority)).Render(d.task.Priority.Label()))
	meta = append(meta, string(d.task.Status))
	if d.task.DueDate != nil {
		due := "due " + formatDue(d.task.DueDate)
		if analytics.IsOverdue(time.Now(), d.task) {
			due = s.TaskOverdue.Render(due)
		}
		meta = append(meta, due)
	}
	if d.task.Assignee != nil {
		meta = append(meta, "@"+d.task.Assignee.DisplayName())
	}
	if d.task.ProjectName != nil {
		meta = append(meta, *d.task.ProjectName)
	}
	sections = append(sections, s.TitleMuted.Render(strings.Join(meta, " • ")))

	if desc := strings.TrimSpace(deref(d.task.Description)); desc != "" {
		sections = append(sections, "", lipgloss.NewStyle().Width(width).Render(desc))
	}

	timer := "Timer " + formatElapsed(d.elapsed)
	if d.running {
		timer += " ●"
	}
	sections = append(sections, "", s.CardValue.Render(timer))

	sections = append(sections, "", s.Title.Render(fmt.Sprintf("Subtasks (%d)", len(d.subtasks))))
	switch {
	case !d.loaded:
		sections = append(sections, s.TitleMuted.Render("Loading..."))
	case len(d.subtasks) == 0:
		sections = append(sections, s.TitleMuted.Render("No subtasks. Press 'a' to add one."))
	}
	for i, sub := range d.subtasks {
		box := "[ ] "
		name := sub.Name
		if sub.Status.IsComplete() {
			box = "[x] "
			name = s.TaskDone.Render(name)
		}
		style := s.ListItem
		if i == d.cursor {
			style = s.ListSelected
		}
		sections = append(sections, style.Width(width).Render(box+name))
	}
	if d.mode == drawerAddSubtask {
		sections = append(sections, s.InputFocused.Width(clamp(width-4, 20, 50)).Render(d.subtaskInput.View()))
	}

	sections = append(sections, "", s.Title.Render(fmt.Sprintf("Comments (%d)", len(d.comments))))
	for _, c := range d.comments {
		author := "Unknown"
		if c.Author != nil {
			author = c.Author.DisplayName()
		}
		header := s.HelpKey.Render(author) + " " + s.TitleMuted.Render(c.CreatedAt.Local().Format("Jan 2 15:04"))
		sections = append(sections, header, lipgloss.NewStyle().Width(width).Render(c.Content))
	}
	if d.mode == drawerComment {
		sections = append(sections, "", s.InputFocused.Render(d.commentInput.View()),
			s.TitleMuted.Render("Ctrl+S: post • Esc: cancel"))
	}

	sections = append(sections, "", d.renderHelp())
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, sections...), d.width, d.height)
}

func (d *TaskDrawer) renderHelp() string {
	s := d.styles
	return s.Help.Render(fmt.Sprintf("%s done • %s check • %s subtask • %s comment • %s timer • %s back",
		s.HelpKey.Render("x"),
		s.HelpKey.Render("space"),
		s.HelpKey.Render("a"),
		s.HelpKey.Render("c"),
		s.HelpKey.Render("s"),
		s.HelpKey.Render("esc"),
	))
}
