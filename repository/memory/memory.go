// Package memory provides in-memory repository implementations with the same
// query semantics as the Postgres collections. They back the unit tests and
// are handy for local experiments without a database.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/storequery"
	"github.com/taskhub/backend/repository"
)

// matches reports whether the document (any JSON-marshalable entity) contains
// every field of the filter with an equal value, mirroring JSONB containment
// for flat filters.
func matches(entity interface{}, where map[string]interface{}) bool {
	if len(where) == 0 {
		return true
	}
	raw, err := json.Marshal(entity)
	if err != nil {
		return false
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false
	}
	for field, want := range where {
		got, ok := doc[field]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func fieldValue(entity interface{}, field string) string {
	raw, err := json.Marshal(entity)
	if err != nil {
		return ""
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	if v, ok := doc[field]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

func sortSlice[T any](items []T, fields []storequery.SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, sf := range fields {
			a := fieldValue(items[i], sf.Field)
			b := fieldValue(items[j], sf.Field)
			if a == b {
				continue
			}
			if sf.Desc {
				return a > b
			}
			return a < b
		}
		return false
	})
}

func window[T any](items []T, skip, limit int) []T {
	if skip > 0 {
		if skip >= len(items) {
			return nil
		}
		items = items[skip:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// UserRepo is an in-memory repository.UserRepository.
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User

	// Updates counts calls to Update, letting tests assert on write
	// amplification of the sync hooks.
	Updates int

	// Err, when set, is returned by every operation.
	Err error
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]domain.User)}
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := user
	clone.PendingTasks = append([]string(nil), user.PendingTasks...)
	return &clone, nil
}

func (r *UserRepo) List(ctx context.Context, q storequery.Query) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var users []domain.User
	for _, user := range r.users {
		if matches(user, q.Where) {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	sortSlice(users, q.Sort)
	return window(users, q.Skip, q.Limit), nil
}

func (r *UserRepo) Count(ctx context.Context, where map[string]interface{}) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var count int64
	for _, user := range r.users {
		if matches(user, where) {
			count++
		}
	}
	return count, nil
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.PendingTasks == nil {
		user.PendingTasks = []string{}
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.users[user.ID] = *user
	return user, nil
}

func (r *UserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = *user
	r.Updates++
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// TaskRepo is an in-memory repository.TaskRepository.
type TaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task

	Updates int
	Err     error
}

func NewTaskRepo() *TaskRepo {
	return &TaskRepo{tasks: make(map[string]domain.Task)}
}

func (r *TaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := task
	return &clone, nil
}

func (r *TaskRepo) List(ctx context.Context, q storequery.Query) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var tasks []domain.Task
	for _, task := range r.tasks {
		if matches(task, q.Where) {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	sortSlice(tasks, q.Sort)
	return window(tasks, q.Skip, q.Limit), nil
}

func (r *TaskRepo) Count(ctx context.Context, where map[string]interface{}) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var count int64
	for _, task := range r.tasks {
		if matches(task, where) {
			count++
		}
	}
	return count, nil
}

func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	r.tasks[task.ID] = *task
	return task, nil
}

func (r *TaskRepo) Update(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}
	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	r.tasks[task.ID] = *task
	r.Updates++
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *TaskRepo) ClearByAssignedUser(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var affected int64
	for id, task := range r.tasks {
		if task.AssignedUser == userID {
			task.ClearAssignment()
			r.tasks[id] = task
			affected++
		}
	}
	return affected, nil
}

var (
	_ repository.UserRepository = (*UserRepo)(nil)
	_ repository.TaskRepository = (*TaskRepo)(nil)
)
