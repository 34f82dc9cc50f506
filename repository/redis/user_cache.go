package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/storequery"
	"github.com/taskhub/backend/repository"
)

type userCache struct {
	inner  repository.UserRepository
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewUserCache decorates a UserRepository with a read-through Redis cache for
// get-by-id. Writes delegate and invalidate; list and count pass through.
func NewUserCache(inner repository.UserRepository, client *redislib.Client, ttl time.Duration) repository.UserRepository {
	if client == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &userCache{
		inner:  inner,
		client: client,
		prefix: "user:",
		ttl:    ttl,
	}
}

func (c *userCache) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if payload, err := c.client.Get(ctx, c.key(id)).Result(); err == nil {
		var user domain.User
		if err := json.Unmarshal([]byte(payload), &user); err == nil {
			return &user, nil
		}
	}

	user, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(user); err == nil {
		c.client.Set(ctx, c.key(id), payload, c.ttl)
	}
	return user, nil
}

func (c *userCache) List(ctx context.Context, q storequery.Query) ([]domain.User, error) {
	return c.inner.List(ctx, q)
}

func (c *userCache) Count(ctx context.Context, where map[string]interface{}) (int64, error) {
	return c.inner.Count(ctx, where)
}

func (c *userCache) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	return c.inner.Create(ctx, user)
}

func (c *userCache) Update(ctx context.Context, user *domain.User) error {
	if err := c.inner.Update(ctx, user); err != nil {
		return err
	}
	c.client.Del(ctx, c.key(user.ID))
	return nil
}

func (c *userCache) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.client.Del(ctx, c.key(id))
	return nil
}

func (c *userCache) key(id string) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}
