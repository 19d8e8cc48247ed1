package session

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/taskboard/internal/analytics"
)

// Insights is what the insights view renders
type Insights struct {
	Trend   []analytics.DayCount
	Overdue []analytics.PriorityCount
	Summary analytics.Counters
}

// Insights fetches every task of the current workspace and aggregates them
func (c *Controller) Insights(ctx context.Context) (Insights, error) {
	w, err := c.CurrentWorkspace()
	if err != nil {
		return Insights{}, err
	}
	tasks, err := c.backend.ListWorkspaceTasks(ctx, w.ID)
	if err != nil {
		return Insights{}, c.fail("load insights", err, logrus.Fields{"workspace": w.ID})
	}

	now := c.now()
	return Insights{
		Trend:   analytics.DailyTrend(now, tasks, c.UserID()),
		Overdue: analytics.OverdueByPriority(now, tasks),
		Summary: analytics.Summary(now, tasks),
	}, nil
}

// Completed fetches the workspace's recently completed tasks grouped by day
func (c *Controller) Completed(ctx context.Context, filter analytics.Filter) ([]analytics.DayGroup, error) {
	w, err := c.CurrentWorkspace()
	if err != nil {
		return nil, err
	}
	tasks, err := c.backend.ListCompletedTasks(ctx, w.ID)
	if err != nil {
		return nil, c.fail("load completed", err, logrus.Fields{"workspace": w.ID, "filter": filter.String()})
	}
	return analytics.GroupCompletedByDay(tasks, filter, c.UserID(), c.now().Location()), nil
}
