package views

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskboard/internal/models"
)

func TestParseDue(t *testing.T) {
	due, err := parseDue("  ")
	require.NoError(t, err)
	assert.Nil(t, due)

	due, err = parseDue("2024-03-09")
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.True(t, due.Equal(time.Date(2024, 3, 9, 0, 0, 0, 0, time.Local)))

	_, err = parseDue("9 March")
	assert.Error(t, err)
}

func TestNextPriority(t *testing.T) {
	assert.Equal(t, models.PriorityMedium, nextPriority(models.PriorityLow))
	assert.Equal(t, models.PriorityHigh, nextPriority(models.PriorityMedium))
	assert.Equal(t, models.PriorityLow, nextPriority(models.PriorityHigh))
	assert.Equal(t, models.PriorityHigh, nextPriority(""))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0:00:00", formatElapsed(0))
	assert.Equal(t, "0:01:05", formatElapsed(65*time.Second))
	assert.Equal(t, "2:00:01", formatElapsed(2*time.Hour+time.Second))
}

func TestDayHeading(t *testing.T) {
	assert.Equal(t, "Monday, Jan 15", dayHeading("2024-01-15"))
	assert.Equal(t, "someday", dayHeading("someday"))
}

func TestVisibleTasks(t *testing.T) {
	v := NewTaskListView(nil, models.Project{ID: "p1"})
	v.tasks = []models.Task{
		{ID: "1", Name: "Write report", Status: models.StatusTodo},
		{ID: "2", Name: "Review report", Status: models.StatusCompleted},
		{ID: "3", Name: "Plan trip", Status: models.StatusInProgress},
	}

	ids := func(ts []models.Task) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "3"}, ids(v.visible()))

	v.searchInput.SetValue("REPORT")
	assert.Equal(t, []string{"1"}, ids(v.visible()))

	v.showCompleted = true
	assert.Equal(t, []string{"2"}, ids(v.visible()))
}

func TestStaleTasksAreIgnored(t *testing.T) {
	v := NewTaskListView(nil, models.Project{ID: "p1"})
	v.Update(tasksLoadedMsg{projectID: "p2", tasks: []models.Task{{ID: "x"}}})
	assert.False(t, v.loaded)
	assert.Empty(t, v.tasks)

	v.Update(tasksLoadedMsg{projectID: "p1", tasks: []models.Task{{ID: "a"}}})
	assert.True(t, v.loaded)
	assert.Len(t, v.tasks, 1)
}

func TestTaskSavedOnlyAppliesLatest(t *testing.T) {
	v := NewTaskListView(nil, models.Project{ID: "p1"})
	v.tasks = []models.Task{{ID: "a", Name: "old"}}

	v.Update(taskSavedMsg{})
	assert.Equal(t, "old", v.tasks[0].Name)

	msg := taskSavedMsg{}
	msg.update.Task = models.Task{ID: "a", Name: "new"}
	msg.update.Apply = true
	v.Update(msg)
	assert.Equal(t, "new", v.tasks[0].Name)
}

func TestDrawerTimer(t *testing.T) {
	d := NewTaskDrawer(nil, models.Task{ID: "t1"}, 80, 24)

	assert.NotNil(t, d.toggleTimer())
	started := d.timerID
	assert.Nil(t, d.update(timerTickMsg{taskID: "t1", seq: started - 1}))
	assert.NotNil(t, d.update(timerTickMsg{taskID: "t1", seq: started}))
	assert.Equal(t, time.Second, d.elapsed)

	assert.Nil(t, d.toggleTimer())
	assert.Nil(t, d.update(timerTickMsg{taskID: "t1", seq: started}))
	assert.Equal(t, time.Second, d.elapsed)
}

func TestNotify(t *testing.T) {
	assert.Nil(t, notifyErr(nil))

	err := errors.New("boom")
	msg := notifyErr(err)()
	assert.Equal(t, Notify{Err: err}, msg)

	var m tea.Msg = notify("saved")()
	assert.Equal(t, Notify{Text: "saved"}, m)
}
