// Package sync keeps the denormalized assignment fields of users and tasks
// mutually consistent: Task.assignedUser/assignedUserName on one side and
// User.pendingTasks on the other. Every hook runs after the owning
// repository's primary write and is best-effort: a missing related entity is
// benign, and a failed secondary write is logged and buffered for retry
// instead of failing the request.
package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/repository"
	"github.com/taskhub/backend/usecase"
)

type Syncer struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	buffer usecase.SyncBuffer
	logger *zap.Logger
}

func New(users repository.UserRepository, tasks repository.TaskRepository, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		users:  users,
		tasks:  tasks,
		logger: logger,
	}
}

// SetBuffer attaches the retry buffer. Wired after construction because the
// buffer processor replays ops through this same Syncer.
func (s *Syncer) SetBuffer(buffer usecase.SyncBuffer) {
	s.buffer = buffer
}

// OnTaskCreated propagates a newly created task's assignment to its user.
// The task is mutated in place so the creation response already carries the
// resolved user name.
func (s *Syncer) OnTaskCreated(ctx context.Context, task *domain.Task) {
	if task == nil || !task.IsAssigned() {
		return
	}
	s.attach(ctx, task, task.AssignedUser)
}

// OnTaskUpdated reconciles both users involved in an assignment change.
func (s *Syncer) OnTaskUpdated(ctx context.Context, task *domain.Task, previousAssigned, newAssigned string) {
	if task == nil || previousAssigned == newAssigned {
		return
	}
	if previousAssigned != "" {
		s.run(ctx, usecase.SyncOp{Op: usecase.SyncOpDetach, UserID: previousAssigned, TaskID: task.ID})
	}
	if newAssigned != "" {
		s.attach(ctx, task, newAssigned)
	}
}

// attach is the live-path variant of applyAttach working on the in-hand task.
// A user that cannot be resolved leaves the task's assignedUserName as
// computed by the caller ("unknown") with no user-side write.
func (s *Syncer) attach(ctx context.Context, task *domain.Task, userID string) {
	op := usecase.SyncOp{Op: usecase.SyncOpAttach, UserID: userID, TaskID: task.ID}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return
		}
		s.fail(ctx, op, err)
		return
	}

	if task.AssignedUser != user.ID || task.AssignedUserName != user.Name {
		task.Assign(user.ID, user.Name)
		if err := s.tasks.Update(ctx, task); err != nil {
			s.fail(ctx, op, err)
			return
		}
	}

	if user.AddPendingTask(task.ID) {
		if err := s.users.Update(ctx, user); err != nil {
			s.fail(ctx, op, err)
		}
	}
}

// OnTaskDeleted removes the deleted task from its owner's pending list.
func (s *Syncer) OnTaskDeleted(ctx context.Context, task *domain.Task) {
	if task == nil || !task.IsAssigned() {
		return
	}
	s.run(ctx, usecase.SyncOp{Op: usecase.SyncOpDetach, UserID: task.AssignedUser, TaskID: task.ID})
}

// OnUserUpdated applies the pending-task set difference to the task side.
// Tasks dropped from the list are cleared; tasks on the new list are stamped
// with the user's id and name, skipping entries that already carry the
// correct assignment.
func (s *Syncer) OnUserUpdated(ctx context.Context, user *domain.User, previousPending, newPending []string) {
	if user == nil {
		return
	}

	current := make(map[string]struct{}, len(newPending))
	for _, taskID := range newPending {
		current[taskID] = struct{}{}
	}

	for _, taskID := range previousPending {
		if _, kept := current[taskID]; !kept {
			s.run(ctx, usecase.SyncOp{Op: usecase.SyncOpClearTask, TaskID: taskID})
		}
	}
	for _, taskID := range newPending {
		s.run(ctx, usecase.SyncOp{Op: usecase.SyncOpAttach, UserID: user.ID, TaskID: taskID})
	}
}

// OnUserDeleted clears every task owned by the user, found by reverse query
// rather than by trusting the user's pendingTasks list.
func (s *Syncer) OnUserDeleted(ctx context.Context, user *domain.User) {
	if user == nil || user.ID == "" {
		return
	}
	s.run(ctx, usecase.SyncOp{Op: usecase.SyncOpReleaseOwner, UserID: user.ID})
}

// run executes one sync op; on store failure it logs and hands the op to the
// retry buffer. It never reports an error to the caller.
func (s *Syncer) run(ctx context.Context, op usecase.SyncOp) {
	if err := s.Apply(ctx, op); err != nil {
		s.fail(ctx, op, err)
	}
}

func (s *Syncer) fail(ctx context.Context, op usecase.SyncOp, err error) {
	s.logger.Error("sync step failed",
		zap.String("op", op.Op),
		zap.String("user_id", op.UserID),
		zap.String("task_id", op.TaskID),
		zap.Error(err))

	if s.buffer == nil {
		return
	}
	if bufErr := s.buffer.BufferSync(ctx, op); bufErr != nil {
		s.logger.Error("failed to buffer sync op", zap.String("op", op.Op), zap.Error(bufErr))
		return
	}
	s.logger.Warn("sync op buffered for retry", zap.String("op", op.Op))
}

// Apply executes a single sync op against the repositories. It is used both
// for the live path and for buffered replays, so every op is idempotent.
// A related entity that no longer exists is success, not failure.
func (s *Syncer) Apply(ctx context.Context, op usecase.SyncOp) error {
	switch op.Op {
	case usecase.SyncOpAttach:
		return s.applyAttach(ctx, op.UserID, op.TaskID)
	case usecase.SyncOpDetach:
		return s.applyDetach(ctx, op.UserID, op.TaskID)
	case usecase.SyncOpClearTask:
		return s.applyClearTask(ctx, op.TaskID)
	case usecase.SyncOpReleaseOwner:
		_, err := s.tasks.ClearByAssignedUser(ctx, op.UserID)
		return err
	default:
		return fmt.Errorf("unsupported sync op %s", op.Op)
	}
}

func (s *Syncer) applyAttach(ctx context.Context, userID, taskID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err
	}

	if task.AssignedUser != user.ID || task.AssignedUserName != user.Name {
		task.Assign(user.ID, user.Name)
		if err := s.tasks.Update(ctx, task); err != nil {
			return err
		}
	}

	if user.AddPendingTask(taskID) {
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

func (s *Syncer) applyDetach(ctx context.Context, userID, taskID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err
	}
	if !user.RemovePendingTask(taskID) {
		return nil
	}
	return s.users.Update(ctx, user)
}

func (s *Syncer) applyClearTask(ctx context.Context, taskID string) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err
	}
	if !task.IsAssigned() && task.AssignedUserName == domain.AssignedNameNone {
		return nil
	}
	task.ClearAssignment()
	return s.tasks.Update(ctx, task)
}
