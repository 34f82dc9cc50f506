package domain

import "time"

// Assignment placeholders written to Task.AssignedUserName when the owning
// user cannot be resolved or the task is unowned.
const (
	AssignedNameNone    = "unassigned"
	AssignedNameUnknown = "unknown"
)

// Task represents a unit of work optionally assigned to a single user.
type Task struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Deadline         time.Time `json:"deadline"`
	Completed        bool      `json:"completed"`
	AssignedUser     string    `json:"assignedUser"`
	AssignedUserName string    `json:"assignedUserName"`
}

// IsAssigned reports whether the task references an owning user.
func (t *Task) IsAssigned() bool {
	return t != nil && t.AssignedUser != ""
}

// ClearAssignment resets the task to the unowned state.
func (t *Task) ClearAssignment() {
	if t == nil {
		return
	}
	t.AssignedUser = ""
	t.AssignedUserName = AssignedNameNone
}

// Assign stamps the task with the owning user's id and display name.
func (t *Task) Assign(userID, userName string) {
	if t == nil {
		return
	}
	t.AssignedUser = userID
	t.AssignedUserName = userName
}
