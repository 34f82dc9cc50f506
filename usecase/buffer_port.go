package usecase

import "context"

// Sync operation kinds replayed by the buffer processor.
const (
	SyncOpAttach       = "attach"
	SyncOpDetach       = "detach"
	SyncOpClearTask    = "clear_task"
	SyncOpReleaseOwner = "release_owner"
)

// SyncOp captures the intent of a failed secondary write so it can be
// retried later. UserID and TaskID carry whichever ids the op needs.
type SyncOp struct {
	Op     string `json:"op"`
	UserID string `json:"userId,omitempty"`
	TaskID string `json:"taskId,omitempty"`
}

// SyncBuffer abstracts the retry buffer so the sync core stays
// storage-agnostic.
type SyncBuffer interface {
	BufferSync(ctx context.Context, op SyncOp) error
}
