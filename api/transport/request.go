package transport

// UserCreateRequest is the POST /api/users body.
type UserCreateRequest struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PendingTasks []string `json:"pendingTasks"`
}

// UserUpdateRequest is the PUT /api/users/{id} body. Pointer fields
// distinguish "absent" from "set to zero value" for partial updates.
type UserUpdateRequest struct {
	Name         *string   `json:"name"`
	Email        *string   `json:"email"`
	PendingTasks *[]string `json:"pendingTasks"`
}

// TaskCreateRequest is the POST /api/tasks body. Deadline is RFC3339; an
// absent or unparseable value falls back to the current time.
type TaskCreateRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Deadline     string `json:"deadline"`
	Completed    bool   `json:"completed"`
	AssignedUser string `json:"assignedUser"`
}

// TaskUpdateRequest is the PUT /api/tasks/{id} body.
type TaskUpdateRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	Deadline         *string `json:"deadline"`
	Completed        *bool   `json:"completed"`
	AssignedUser     *string `json:"assignedUser"`
	AssignedUserName *string `json:"assignedUserName"`
}
