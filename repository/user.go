package repository

import (
	"context"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/storequery"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, q storequery.Query) ([]domain.User, error)
	Count(ctx context.Context, where map[string]interface{}) (int64, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}
