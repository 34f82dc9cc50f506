package user

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/storequery"
	"github.com/taskhub/backend/repository"
	syncUC "github.com/taskhub/backend/usecase/sync"
)

// UpdateParams carries a partial update; nil fields are left untouched.
type UpdateParams struct {
	Name         *string
	Email        *string
	PendingTasks *[]string
}

type UseCase struct {
	users  repository.UserRepository
	syncer *syncUC.Syncer
	logger *zap.Logger
}

func New(users repository.UserRepository, syncer *syncUC.Syncer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		syncer: syncer,
		logger: logger,
	}
}

// ListUsers has no limit clamp: an unspecified limit returns every match.
func (uc *UseCase) ListUsers(ctx context.Context, q storequery.Query) ([]domain.User, error) {
	return uc.users.List(ctx, q)
}

// CountUsers returns only the matching document count, ignoring every other
// list parameter.
func (uc *UseCase) CountUsers(ctx context.Context, where map[string]interface{}) (int64, error) {
	return uc.users.Count(ctx, where)
}

func (uc *UseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return uc.users.GetByID(ctx, id)
}

// CreateUser validates required fields and email uniqueness. A caller-supplied
// pendingTasks list is stored as-is; no sync hook runs on user creation.
func (uc *UseCase) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if user.Name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "name is required")
	}
	if user.Email == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "email is required")
	}

	existing, err := uc.users.Count(ctx, map[string]interface{}{"email": user.Email})
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, domain.ErrDuplicateEmail
	}

	return uc.users.Create(ctx, user)
}

// UpdateUser applies only the provided fields, then reconciles the task side
// when the pendingTasks list was touched.
func (uc *UseCase) UpdateUser(ctx context.Context, id string, params UpdateParams) (*domain.User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousPending := append([]string(nil), user.PendingTasks...)

	if params.Name != nil {
		if *params.Name == "" {
			return nil, domain.NewError(domain.ErrCodeInvalid, "name must not be empty")
		}
		user.Name = *params.Name
	}
	if params.Email != nil {
		if *params.Email == "" {
			return nil, domain.NewError(domain.ErrCodeInvalid, "email must not be empty")
		}
		user.Email = *params.Email
	}
	if params.PendingTasks != nil {
		user.PendingTasks = append([]string(nil), (*params.PendingTasks)...)
	}

	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if params.PendingTasks != nil && uc.syncer != nil {
		uc.syncer.OnUserUpdated(ctx, user, previousPending, user.PendingTasks)
	}
	return user, nil
}

// DeleteUser removes the user and clears every task it owned.
func (uc *UseCase) DeleteUser(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.users.Delete(ctx, id); err != nil {
		return err
	}

	if uc.syncer != nil {
		uc.syncer.OnUserDeleted(ctx, user)
	}
	return nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}
