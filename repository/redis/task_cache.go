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

type taskCache struct {
	inner  repository.TaskRepository
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewTaskCache decorates a TaskRepository with a read-through Redis cache for
// get-by-id. Writes delegate and invalidate; list and count pass through.
func NewTaskCache(inner repository.TaskRepository, client *redislib.Client, ttl time.Duration) repository.TaskRepository {
	if client == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &taskCache{
		inner:  inner,
		client: client,
		prefix: "task:",
		ttl:    ttl,
	}
}

func (c *taskCache) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if payload, err := c.client.Get(ctx, c.key(id)).Result(); err == nil {
		var task domain.Task
		if err := json.Unmarshal([]byte(payload), &task); err == nil {
			return &task, nil
		}
	}

	task, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(task); err == nil {
		c.client.Set(ctx, c.key(id), payload, c.ttl)
	}
	return task, nil
}

func (c *taskCache) List(ctx context.Context, q storequery.Query) ([]domain.Task, error) {
	return c.inner.List(ctx, q)
}

func (c *taskCache) Count(ctx context.Context, where map[string]interface{}) (int64, error) {
	return c.inner.Count(ctx, where)
}

func (c *taskCache) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	return c.inner.Create(ctx, task)
}

func (c *taskCache) Update(ctx context.Context, task *domain.Task) error {
	if err := c.inner.Update(ctx, task); err != nil {
		return err
	}
	c.client.Del(ctx, c.key(task.ID))
	return nil
}

func (c *taskCache) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.client.Del(ctx, c.key(id))
	return nil
}

func (c *taskCache) ClearByAssignedUser(ctx context.Context, userID string) (int64, error) {
	affected, err := c.inner.ClearByAssignedUser(ctx, userID)
	if err != nil {
		return affected, err
	}
	if affected > 0 {
		// The bulk update does not report which ids changed, so the
		// whole task prefix is dropped.
		c.flushPrefix(ctx)
	}
	return affected, nil
}

func (c *taskCache) flushPrefix(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}

func (c *taskCache) key(id string) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}
