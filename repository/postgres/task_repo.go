package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/storequery"
	"github.com/taskhub/backend/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns the Postgres-backed task collection.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `SELECT doc FROM tasks WHERE id = $1`

	var doc []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, domain.StoreFailure("tasks.get", err)
	}

	var task domain.Task
	if err := json.Unmarshal(doc, &task); err != nil {
		return nil, domain.StoreFailure("tasks.decode", err)
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, q storequery.Query) ([]domain.Task, error) {
	query, args := buildFindSQL("tasks", q)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.StoreFailure("tasks.list", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, domain.StoreFailure("tasks.list", err)
		}
		var task domain.Task
		if err := json.Unmarshal(doc, &task); err != nil {
			return nil, domain.StoreFailure("tasks.decode", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreFailure("tasks.list", err)
	}
	return tasks, nil
}

func (r *taskRepository) Count(ctx context.Context, where map[string]interface{}) (int64, error) {
	query, args := buildCountSQL("tasks", where)

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, domain.StoreFailure("tasks.count", err)
	}
	return count, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	doc, err := json.Marshal(task)
	if err != nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `INSERT INTO tasks (id, doc) VALUES ($1, $2)`
	if _, err := r.pool.Exec(ctx, query, task.ID, doc); err != nil {
		return nil, domain.StoreFailure("tasks.insert", err)
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}

	doc, err := json.Marshal(task)
	if err != nil {
		return domain.ErrInvalidPayload
	}

	const query = `UPDATE tasks SET doc = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, task.ID, doc)
	if err != nil {
		return domain.StoreFailure("tasks.update", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return domain.StoreFailure("tasks.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) ClearByAssignedUser(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, nil
	}

	// Update-many-with-filter: the reverse query matches on the tasks'
	// own assignedUser field rather than trusting any pendingTasks list.
	const query = `UPDATE tasks SET doc = doc || $2 WHERE doc @> $1`

	filter, err := json.Marshal(map[string]string{"assignedUser": userID})
	if err != nil {
		return 0, domain.ErrInvalidPayload
	}
	patch, err := json.Marshal(map[string]string{
		"assignedUser":     "",
		"assignedUserName": domain.AssignedNameNone,
	})
	if err != nil {
		return 0, domain.ErrInvalidPayload
	}

	tag, err := r.pool.Exec(ctx, query, filter, patch)
	if err != nil {
		return 0, domain.StoreFailure("tasks.clear_assigned", err)
	}
	return tag.RowsAffected(), nil
}
