package models

import "strings"

// Status is a task status. The set is open: rows may carry values
// this client does not know about.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done" // legacy spelling of StatusCompleted
	StatusCompleted  Status = "completed"
)

// IsComplete reports whether the status means the task is finished.
// Both "done" and "completed" count.
func (s Status) IsComplete() bool {
	return s == StatusCompleted || s == StatusDone
}

// NormalizeStatus maps legacy spellings onto the canonical status
func NormalizeStatus(s Status) Status {
	if s == StatusDone {
		return StatusCompleted
	}
	return s
}

// Priority is a task priority bucket
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists buckets from most to least urgent
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// OrDefault returns medium for an empty priority
func (p Priority) OrDefault() Priority {
	if p == "" {
		return PriorityMedium
	}
	return p
}

// Label returns the capitalized display name
func (p Priority) Label() string {
	p = p.OrDefault()
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// Color is a project color tag
type Color string

const (
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
	ColorPurple Color = "purple"
	ColorPink   Color = "pink"
	ColorGray   Color = "gray"
)

// Colors lists the tags offered when creating a project
var Colors = []Color{ColorBlue, ColorGreen, ColorYellow, ColorOrange, ColorRed, ColorPurple, ColorPink, ColorGray}
