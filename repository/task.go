package repository

import (
	"context"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/storequery"
)

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, q storequery.Query) ([]domain.Task, error)
	Count(ctx context.Context, where map[string]interface{}) (int64, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error

	// ClearByAssignedUser resets every task owned by the user to the
	// unassigned state using a reverse query over the collection, and
	// returns the number of affected documents.
	ClearByAssignedUser(ctx context.Context, userID string) (int64, error)
}
