package domain

// User represents an account that tasks can be assigned to.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PendingTasks []string `json:"pendingTasks"`
}

// HasPendingTask reports whether the given task id is already referenced.
func (u *User) HasPendingTask(taskID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.PendingTasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// AddPendingTask appends the task id with set semantics and reports whether
// the list changed.
func (u *User) AddPendingTask(taskID string) bool {
	if u == nil || taskID == "" || u.HasPendingTask(taskID) {
		return false
	}
	u.PendingTasks = append(u.PendingTasks, taskID)
	return true
}

// RemovePendingTask drops the task id, preserving order of the remaining
// entries, and reports whether the list changed.
func (u *User) RemovePendingTask(taskID string) bool {
	if u == nil {
		return false
	}
	for i, id := range u.PendingTasks {
		if id == taskID {
			u.PendingTasks = append(u.PendingTasks[:i], u.PendingTasks[i+1:]...)
			return true
		}
	}
	return false
}
