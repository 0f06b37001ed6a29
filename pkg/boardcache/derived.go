package boardcache

import (
	"strings"
	"time"
)

// Summary is the board-level count view.
type Summary struct {
	TotalTasks    int `json:"total_tasks"`
	TotalPeople   int `json:"total_people"`
	OverdueTasks  int `json:"overdue_tasks"`
	UpcomingTasks int `json:"upcoming_tasks"`
}

// Overdue lists incomplete tasks whose deadline passed more than
// overdueDays ago, in board order. A task exactly overdueDays overdue
// is not included. Tasks with deadlines that do not parse are skipped
// with a warning.
func (c *Cache) Overdue(overdueDays int) ([]OverdueTask, error) {
	snap := c.Snapshot()
	if snap == nil {
		return nil, ErrNoData
	}

	today := c.today()
	var overdue []OverdueTask
	for _, t := range snap.Tasks {
		deadline, ok := c.parseDeadline(t)
		if !ok {
			continue
		}
		days := daysBetween(today, deadline)
		if days > overdueDays && !t.Completed() {
			overdue = append(overdue, OverdueTask{Task: t, DaysOverdue: days})
		}
	}
	return overdue, nil
}

// Upcoming lists incomplete tasks due today or within the next
// daysAhead days, inclusive on both ends.
func (c *Cache) Upcoming(daysAhead int) ([]UpcomingTask, error) {
	snap := c.Snapshot()
	if snap == nil {
		return nil, ErrNoData
	}

	today := c.today()
	var upcoming []UpcomingTask
	for _, t := range snap.Tasks {
		deadline, ok := c.parseDeadline(t)
		if !ok {
			continue
		}
		left := daysBetween(deadline, today)
		if left >= 0 && left <= daysAhead && !t.Completed() {
			upcoming = append(upcoming, UpcomingTask{Task: t, DaysLeft: left})
		}
	}
	return upcoming, nil
}

// Summary counts the board: every task regardless of status, distinct
// assignees, and how many incomplete tasks are past or approaching
// their deadline under the given thresholds.
func (c *Cache) Summary(overdueDays, upcomingDays int) (Summary, error) {
	snap := c.Snapshot()
	if snap == nil {
		return Summary{}, ErrNoData
	}

	today := c.today()
	people := make(map[string]struct{})
	sum := Summary{TotalTasks: len(snap.Tasks)}
	for _, t := range snap.Tasks {
		if t.Assignee != "" {
			people[t.Assignee] = struct{}{}
		}
		deadline, ok := c.parseDeadline(t)
		if !ok || t.Completed() {
			continue
		}
		days := daysBetween(today, deadline)
		switch {
		case days > overdueDays:
			sum.OverdueTasks++
		case days >= -upcomingDays && days <= 0:
			sum.UpcomingTasks++
		}
	}
	sum.TotalPeople = len(people)
	return sum, nil
}

// AllTasks returns every task in the snapshot.
func (c *Cache) AllTasks() ([]Task, error) {
	snap := c.Snapshot()
	if snap == nil {
		return nil, ErrNoData
	}
	return snap.Tasks, nil
}

// MatchTasks returns tasks whose name contains any of the given names,
// compared case-insensitively. Empty names are ignored.
func (c *Cache) MatchTasks(names []string) ([]Task, error) {
	snap := c.Snapshot()
	if snap == nil {
		return nil, ErrNoData
	}

	var matched []Task
	for _, t := range snap.Tasks {
		taskName := strings.ToLower(t.Name)
		for _, name := range names {
			if name == "" {
				continue
			}
			if strings.Contains(taskName, strings.ToLower(name)) {
				matched = append(matched, t)
				break
			}
		}
	}
	return matched, nil
}

// parseDeadline parses the task deadline, reporting false for tasks
// without one or with one that does not parse.
func (c *Cache) parseDeadline(t Task) (time.Time, bool) {
	if t.Deadline == "" {
		return time.Time{}, false
	}
	deadline, err := time.Parse(DateLayout, t.Deadline)
	if err != nil {
		c.logger.Warn("skipping task with unparseable deadline",
			"task", t.Name,
			"deadline", t.Deadline,
		)
		return time.Time{}, false
	}
	return deadline, true
}

// daysBetween returns whole days from b to a. Both are midnight UTC,
// so the division is exact.
func daysBetween(a, b time.Time) int {
	return int(a.Sub(b).Hours() / 24)
}
