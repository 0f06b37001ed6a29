package boardcache

import "time"

// DateLayout is the wire format for task deadlines.
const DateLayout = "2006-01-02"

// Task statuses as they appear on the board.
const (
	StatusApproved   = "Approved"
	StatusDone       = "Done"
	StatusInProgress = "In Progress"
	StatusPending    = "Pending"
	StatusBlocked    = "Blocked"
)

// Task is one board item with the columns the agents care about.
// Deadline is a DateLayout string or empty; link and note fields may
// be empty depending on what the board has filled in.
type Task struct {
	Name        string `json:"task"`
	Group       string `json:"group,omitempty"`
	Assignee    string `json:"person,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	Status      string `json:"status,omitempty"`
	Client      string `json:"client,omitempty"`
	MiroLink    string `json:"miro_link,omitempty"`
	DriveLink   string `json:"drive_link,omitempty"`
	FrameioLink string `json:"frameio_link,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// Completed reports whether the task no longer needs attention.
// Approved and Done both count as finished.
func (t Task) Completed() bool {
	return t.Status == StatusApproved || t.Status == StatusDone
}

// OverdueTask is a task whose deadline passed more than the asked-for
// number of days ago.
type OverdueTask struct {
	Task
	DaysOverdue int `json:"days_overdue"`
}

// UpcomingTask is a task due within the asked-for window.
type UpcomingTask struct {
	Task
	DaysLeft int `json:"days_left"`
}

// Snapshot is one fetched view of the board.
type Snapshot struct {
	BoardName string    `json:"board_name"`
	Tasks     []Task    `json:"tasks"`
	FetchedAt time.Time `json:"fetched_at"`
}
