package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/storequery"
	"github.com/taskhub/backend/repository/memory"
	syncUC "github.com/taskhub/backend/usecase/sync"
	taskUC "github.com/taskhub/backend/usecase/task"
)

type env struct {
	users *memory.UserRepo
	tasks *memory.TaskRepo
	uc    *taskUC.UseCase
}

func newEnv() *env {
	users := memory.NewUserRepo()
	tasks := memory.NewTaskRepo()
	syncer := syncUC.New(users, tasks, zap.NewNop())
	return &env{
		users: users,
		tasks: tasks,
		uc:    taskUC.New(tasks, syncer, zap.NewNop()),
	}
}

func (e *env) addUser(t *testing.T, name, email string) *domain.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), &domain.User{Name: name, Email: email})
	require.NoError(t, err)
	return user
}

func TestCreateTaskDefaults(t *testing.T) {
	e := newEnv()

	created, err := e.uc.CreateTask(context.Background(), &domain.Task{Name: "Fix bug"})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Deadline.IsZero())
	assert.False(t, created.Completed)
	assert.Equal(t, "", created.AssignedUser)
	assert.Equal(t, domain.AssignedNameNone, created.AssignedUserName)
}

func TestCreateTaskRequiresName(t *testing.T) {
	e := newEnv()

	_, err := e.uc.CreateTask(context.Background(), &domain.Task{Description: "nameless"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestCreateTaskAssignedResolvesOwner(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	ann := e.addUser(t, "Ann", "a@x.com")

	created, err := e.uc.CreateTask(ctx, &domain.Task{Name: "Fix bug", AssignedUser: ann.ID})
	require.NoError(t, err)

	// The create response already carries the resolved owner name.
	assert.Equal(t, "Ann", created.AssignedUserName)

	annAfter, err := e.users.GetByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, annAfter.PendingTasks)
}

func TestCreateTaskAssignedToMissingUser(t *testing.T) {
	e := newEnv()

	created, err := e.uc.CreateTask(context.Background(), &domain.Task{
		Name:         "Orphan",
		AssignedUser: uuid.NewString(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AssignedNameUnknown, created.AssignedUserName)
}

func TestCreateTaskKeepsExplicitDeadline(t *testing.T) {
	e := newEnv()
	deadline := time.Date(2027, 1, 2, 15, 0, 0, 0, time.UTC)

	created, err := e.uc.CreateTask(context.Background(), &domain.Task{Name: "Fix bug", Deadline: deadline})
	require.NoError(t, err)
	assert.True(t, created.Deadline.Equal(deadline))
}

func TestUpdateTaskPartial(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	created, err := e.uc.CreateTask(ctx, &domain.Task{Name: "Fix bug", Description: "repro in prod"})
	require.NoError(t, err)

	done := true
	updated, err := e.uc.UpdateTask(ctx, created.ID, taskUC.UpdateParams{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Fix bug", updated.Name)
	assert.Equal(t, "repro in prod", updated.Description)
}

func TestUpdateTaskUnassign(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	ann := e.addUser(t, "Ann", "a@x.com")
	created, err := e.uc.CreateTask(ctx, &domain.Task{Name: "Fix bug", AssignedUser: ann.ID})
	require.NoError(t, err)

	empty := ""
	updated, err := e.uc.UpdateTask(ctx, created.ID, taskUC.UpdateParams{AssignedUser: &empty})
	require.NoError(t, err)
	assert.Equal(t, "", updated.AssignedUser)
	assert.Equal(t, domain.AssignedNameNone, updated.AssignedUserName)

	annAfter, err := e.users.GetByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, annAfter.PendingTasks)
}

func TestUpdateTaskReassign(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	ann := e.addUser(t, "Ann", "a@x.com")
	bob := e.addUser(t, "Bob", "b@x.com")

	created, err := e.uc.CreateTask(ctx, &domain.Task{Name: "Fix bug", AssignedUser: ann.ID})
	require.NoError(t, err)

	updated, err := e.uc.UpdateTask(ctx, created.ID, taskUC.UpdateParams{AssignedUser: &bob.ID})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, updated.AssignedUser)
	assert.Equal(t, "Bob", updated.AssignedUserName)

	annAfter, err := e.users.GetByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, annAfter.PendingTasks)

	bobAfter, err := e.users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, bobAfter.PendingTasks)
}

func TestUpdateTaskInvalidID(t *testing.T) {
	e := newEnv()

	name := "renamed"
	_, err := e.uc.UpdateTask(context.Background(), "42", taskUC.UpdateParams{Name: &name})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestDeleteTaskDetachesFromOwner(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	ann := e.addUser(t, "Ann", "a@x.com")
	created, err := e.uc.CreateTask(ctx, &domain.Task{Name: "Fix bug", AssignedUser: ann.ID})
	require.NoError(t, err)

	require.NoError(t, e.uc.DeleteTask(ctx, created.ID))

	_, err = e.uc.GetTask(ctx, created.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	annAfter, err := e.users.GetByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, annAfter.PendingTasks)
}

func TestDeleteTaskNotFound(t *testing.T) {
	e := newEnv()

	err := e.uc.DeleteTask(context.Background(), uuid.NewString())
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

// recordingTaskRepo captures the query passed to List.
type recordingTaskRepo struct {
	*memory.TaskRepo
	lastQuery storequery.Query
}

func (r *recordingTaskRepo) List(ctx context.Context, q storequery.Query) ([]domain.Task, error) {
	r.lastQuery = q
	return r.TaskRepo.List(ctx, q)
}

func TestListTasksLimitClamp(t *testing.T) {
	rec := &recordingTaskRepo{TaskRepo: memory.NewTaskRepo()}
	uc := taskUC.New(rec, nil, zap.NewNop())
	ctx := context.Background()

	_, err := uc.ListTasks(ctx, storequery.Query{})
	require.NoError(t, err)
	assert.Equal(t, taskUC.DefaultListLimit, rec.lastQuery.Limit)

	_, err = uc.ListTasks(ctx, storequery.Query{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, taskUC.MaxListLimit, rec.lastQuery.Limit)

	_, err = uc.ListTasks(ctx, storequery.Query{Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, 25, rec.lastQuery.Limit)
}

func TestCountTasksWithFilter(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	_, err := e.uc.CreateTask(ctx, &domain.Task{Name: "open one"})
	require.NoError(t, err)
	_, err = e.uc.CreateTask(ctx, &domain.Task{Name: "done one", Completed: true})
	require.NoError(t, err)

	count, err := e.uc.CountTasks(ctx, map[string]interface{}{"completed": true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
