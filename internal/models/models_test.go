package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsComplete(t *testing.T) {
	assert.True(t, StatusCompleted.IsComplete())
	assert.True(t, StatusDone.IsComplete())
	assert.False(t, StatusTodo.IsComplete())
	assert.False(t, StatusInProgress.IsComplete())
	assert.False(t, Status("blocked").IsComplete())
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusCompleted, NormalizeStatus(StatusDone))
	assert.Equal(t, StatusTodo, NormalizeStatus(StatusTodo))
	assert.Equal(t, Status("blocked"), NormalizeStatus("blocked"))
}

func TestPriorityDefaults(t *testing.T) {
	assert.Equal(t, PriorityMedium, Priority("").OrDefault())
	assert.Equal(t, PriorityHigh, PriorityHigh.OrDefault())
	assert.Equal(t, "Medium", Priority("").Label())
	assert.Equal(t, "Low", PriorityLow.Label())
}

func TestTaskAssignedTo(t *testing.T) {
	u1 := "u1"
	task := Task{AssigneeID: &u1}
	assert.True(t, task.AssignedTo("u1"))
	assert.False(t, task.AssignedTo("u2"))
	assert.False(t, task.AssignedTo(""))
	assert.False(t, Task{}.AssignedTo("u1"))
}

func TestProfilePatch(t *testing.T) {
	assert.True(t, ProfilePatch{}.IsEmpty())

	name, bio := "Ada", "math"
	patch := ProfilePatch{Bio: &bio}
	assert.False(t, patch.IsEmpty())

	got := patch.Apply(UserProfile{ID: "u1", FullName: &name})
	assert.Equal(t, "Ada", *got.FullName)
	assert.Equal(t, "math", *got.Bio)
	assert.Nil(t, got.Website)
}
