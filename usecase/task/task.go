package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/storequery"
	"github.com/taskhub/backend/repository"
	syncUC "github.com/taskhub/backend/usecase/sync"
)

// Task listing clamps, unlike user listing which is unbounded by default.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// UpdateParams carries a partial update; nil fields are left untouched.
type UpdateParams struct {
	Name             *string
	Description      *string
	Deadline         *time.Time
	Completed        *bool
	AssignedUser     *string
	AssignedUserName *string
}

type UseCase struct {
	tasks  repository.TaskRepository
	syncer *syncUC.Syncer
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, syncer *syncUC.Syncer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		syncer: syncer,
		logger: logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, q storequery.Query) ([]domain.Task, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	return uc.tasks.List(ctx, q)
}

// CountTasks returns only the matching document count, ignoring every other
// list parameter.
func (uc *UseCase) CountTasks(ctx context.Context, where map[string]interface{}) (int64, error) {
	return uc.tasks.Count(ctx, where)
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return uc.tasks.GetByID(ctx, id)
}

// CreateTask validates the name, defaults the deadline to now and computes
// the assignedUserName placeholder before the primary write; the sync hook
// then resolves the real name and updates the owning user.
func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.Name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "name is required")
	}
	if task.Deadline.IsZero() {
		task.Deadline = time.Now()
	}
	if task.AssignedUser == "" {
		task.AssignedUserName = domain.AssignedNameNone
	} else {
		task.AssignedUserName = domain.AssignedNameUnknown
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	if uc.syncer != nil {
		uc.syncer.OnTaskCreated(ctx, created)
	}
	return created, nil
}

// UpdateTask applies only the provided fields. When the assignment changes,
// assignedUserName is recomputed before the primary write and the sync hook
// reconciles both users afterwards.
func (uc *UseCase) UpdateTask(ctx context.Context, id string, params UpdateParams) (*domain.Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousAssigned := task.AssignedUser

	if params.Name != nil {
		if *params.Name == "" {
			return nil, domain.NewError(domain.ErrCodeInvalid, "name must not be empty")
		}
		task.Name = *params.Name
	}
	if params.Description != nil {
		task.Description = *params.Description
	}
	if params.Deadline != nil {
		task.Deadline = *params.Deadline
	}
	if params.Completed != nil {
		task.Completed = *params.Completed
	}
	if params.AssignedUserName != nil {
		task.AssignedUserName = *params.AssignedUserName
	}
	if params.AssignedUser != nil && *params.AssignedUser != previousAssigned {
		task.AssignedUser = *params.AssignedUser
		if task.AssignedUser == "" {
			task.ClearAssignment()
		} else {
			task.AssignedUserName = domain.AssignedNameUnknown
		}
	}

	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if uc.syncer != nil {
		uc.syncer.OnTaskUpdated(ctx, task, previousAssigned, task.AssignedUser)
	}
	return task, nil
}

// DeleteTask removes the task and detaches it from its owner's pending list.
func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return err
	}

	if uc.syncer != nil {
		uc.syncer.OnTaskDeleted(ctx, task)
	}
	return nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}
