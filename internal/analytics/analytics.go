// Package analytics turns flat task lists into the series and groupings the
// dashboards render. Everything here is pure: callers pass the clock in.
package analytics

import (
	"sort"
	"time"

	"github.com/tgienger/taskboard/internal/models"
)

// TrendDays is the length of the daily trend window
const TrendDays = 7

// DayCount is one bucket of the daily completion trend
type DayCount struct {
	Date     time.Time // midnight in the caller's location
	Label    string    // short weekday, e.g. "Mon"
	Mine     int
	Everyone int
}

// PriorityCount is one non-empty bucket of the overdue breakdown
type PriorityCount struct {
	Priority models.Priority
	Count    int
}

// Filter selects which completed tasks are grouped
type Filter int

const (
	FilterAll Filter = iota
	FilterMine
)

func (f Filter) String() string {
	if f == FilterMine {
		return "mine"
	}
	return "all"
}

// DayGroup holds the completed tasks of one calendar day
type DayGroup struct {
	Date  string // 2006-01-02
	Tasks []models.Task
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DailyTrend counts completed tasks per calendar day for today and the six
// days before it, in now's location. Mine counts only tasks assigned to userID.
func DailyTrend(now time.Time, tasks []models.Task, userID string) []DayCount {
	today := startOfDay(now)
	days := make([]DayCount, TrendDays)
	for i := range days {
		day := today.AddDate(0, 0, i-(TrendDays-1))
		days[i] = DayCount{Date: day, Label: day.Format("Mon")}
	}

	for _, t := range tasks {
		if !t.Status.IsComplete() || t.CompletedAt == nil {
			continue
		}
		done := t.CompletedAt.In(now.Location())
		for i := range days {
			if !sameDay(done, days[i].Date) {
				continue
			}
			days[i].Everyone++
			if t.AssignedTo(userID) {
				days[i].Mine++
			}
			break
		}
	}
	return days
}

// IsOverdue reports whether t is open and its due date has passed
func IsOverdue(now time.Time, t models.Task) bool {
	return !t.Status.IsComplete() && t.DueDate != nil && t.DueDate.Before(now)
}

// OverdueByPriority counts overdue tasks per priority, most urgent first.
// A task without a priority counts as medium; unknown priorities are not
// counted. Buckets with no tasks are left out.
func OverdueByPriority(now time.Time, tasks []models.Task) []PriorityCount {
	counts := make(map[models.Priority]int, len(models.Priorities))
	for _, t := range tasks {
		if IsOverdue(now, t) {
			counts[t.Priority.OrDefault()]++
		}
	}

	var out []PriorityCount
	for _, p := range models.Priorities {
		if n := counts[p]; n > 0 {
			out = append(out, PriorityCount{Priority: p, Count: n})
		}
	}
	return out
}

// completionTime is when a task was completed, falling back to its last
// modification
func completionTime(t models.Task) (time.Time, bool) {
	if t.CompletedAt != nil && !t.CompletedAt.IsZero() {
		return *t.CompletedAt, true
	}
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt, true
	}
	return time.Time{}, false
}

// GroupCompletedByDay buckets tasks by the calendar date they were completed
// on in loc, newest day first. Within a day tasks keep their input order.
// Tasks with no usable timestamp are skipped.
func GroupCompletedByDay(tasks []models.Task, filter Filter, userID string, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}

	index := make(map[string]int)
	var groups []DayGroup
	for _, t := range tasks {
		if filter == FilterMine && !t.AssignedTo(userID) {
			continue
		}
		at, ok := completionTime(t)
		if !ok {
			continue
		}

		key := at.In(loc).Format("2006-01-02")
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Date: key})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date > groups[j].Date
	})
	return groups
}

// DueSoonWindow is how far ahead Summary looks for upcoming due dates
const DueSoonWindow = 7 * 24 * time.Hour

// Counters feeds the home dashboard cards
type Counters struct {
	Total     int
	Completed int
	DueSoon   int // open, due within DueSoonWindow
	Overdue   int
}

// Summary counts tasks for the home dashboard
func Summary(now time.Time, tasks []models.Task) Counters {
	c := Counters{Total: len(tasks)}
	horizon := now.Add(DueSoonWindow)
	for _, t := range tasks {
		switch {
		case t.Status.IsComplete():
			c.Completed++
		case IsOverdue(now, t):
			c.Overdue++
		case t.DueDate != nil && !t.DueDate.After(horizon):
			c.DueSoon++
		}
	}
	return c
}

// Sections splits a user's open tasks for the "My Tasks" page
type Sections struct {
	Overdue  []models.Task // due before today
	Today    []models.Task
	Upcoming []models.Task // due after today, or undated
}

// SectionMyTasks partitions open tasks by due date relative to now's
// calendar day. Completed tasks are dropped.
func SectionMyTasks(now time.Time, tasks []models.Task) Sections {
	today := startOfDay(now)
	var s Sections
	for _, t := range tasks {
		if t.Status.IsComplete() {
			continue
		}
		if t.DueDate == nil {
			s.Upcoming = append(s.Upcoming, t)
			continue
		}
		due := t.DueDate.In(now.Location())
		switch {
		case sameDay(due, today):
			s.Today = append(s.Today, t)
		case due.Before(today):
			s.Overdue = append(s.Overdue, t)
		default:
			s.Upcoming = append(s.Upcoming, t)
		}
	}
	return s
}
