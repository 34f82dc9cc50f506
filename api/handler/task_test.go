package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/repository/memory"
	syncUC "github.com/taskhub/backend/usecase/sync"
	taskUC "github.com/taskhub/backend/usecase/task"
)

func newTaskHandler() (*TaskHandler, *memory.TaskRepo, *memory.UserRepo) {
	users := memory.NewUserRepo()
	tasks := memory.NewTaskRepo()
	syncer := syncUC.New(users, tasks, zap.NewNop())
	uc := taskUC.New(tasks, syncer, zap.NewNop())
	return NewTaskHandler(uc, nil, zap.NewNop()), tasks, users
}

func doRequest(method, uri string, body []byte) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) (string, json.RawMessage) {
	t.Helper()
	var env struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env.Message, env.Data
}

func TestCreateTaskEndpoint(t *testing.T) {
	h, _, users := newTaskHandler()

	ann, err := users.Create(context.Background(), &domain.User{Name: "Ann", Email: "a@x.com"})
	require.NoError(t, err)

	body := []byte(`{"name":"Fix bug","assignedUser":"` + ann.ID + `"}`)
	ctx := doRequest(fasthttp.MethodPost, "/api/tasks", body)
	h.CreateTask(ctx)

	assert.Equal(t, http.StatusCreated, ctx.Response.StatusCode())
	msg, data := decodeEnvelope(t, ctx)
	assert.Equal(t, "OK", msg)

	var task domain.Task
	require.NoError(t, json.Unmarshal(data, &task))
	assert.Equal(t, "Fix bug", task.Name)
	assert.Equal(t, "Ann", task.AssignedUserName)
	assert.False(t, task.Deadline.IsZero())
}

func TestCreateTaskEndpointRejectsBadJSON(t *testing.T) {
	h, _, _ := newTaskHandler()

	ctx := doRequest(fasthttp.MethodPost, "/api/tasks", []byte(`{broken`))
	h.CreateTask(ctx)

	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestCreateTaskEndpointMissingName(t *testing.T) {
	h, _, _ := newTaskHandler()

	ctx := doRequest(fasthttp.MethodPost, "/api/tasks", []byte(`{"description":"nameless"}`))
	h.CreateTask(ctx)

	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestGetTasksCount(t *testing.T) {
	h, tasks, _ := newTaskHandler()

	_, err := tasks.Create(context.Background(), &domain.Task{Name: "open"})
	require.NoError(t, err)
	_, err = tasks.Create(context.Background(), &domain.Task{Name: "done", Completed: true})
	require.NoError(t, err)

	ctx := doRequest(fasthttp.MethodGet, `/api/tasks?count=true&where={"completed":true}`, nil)
	h.GetTasks(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	_, data := decodeEnvelope(t, ctx)
	assert.JSONEq(t, `{"count":1}`, string(data))
}

func TestGetTasksProjection(t *testing.T) {
	h, tasks, _ := newTaskHandler()

	_, err := tasks.Create(context.Background(), &domain.Task{Name: "only name"})
	require.NoError(t, err)

	ctx := doRequest(fasthttp.MethodGet, `/api/tasks?select={"name":1,"id":0}`, nil)
	h.GetTasks(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	_, data := decodeEnvelope(t, ctx)

	var docs []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, map[string]interface{}{"name": "only name"}, docs[0])
}

func TestGetTasksEmptyListIsArray(t *testing.T) {
	h, _, _ := newTaskHandler()

	ctx := doRequest(fasthttp.MethodGet, "/api/tasks", nil)
	h.GetTasks(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	_, data := decodeEnvelope(t, ctx)
	assert.Equal(t, "[]", string(data))
}

func TestGetTaskNotFound(t *testing.T) {
	h, _, _ := newTaskHandler()

	ctx := doRequest(fasthttp.MethodGet, "/api/tasks/whatever", nil)
	ctx.SetUserValue("id", uuid.NewString())
	h.GetTask(ctx)

	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())
}

func TestGetTaskInvalidID(t *testing.T) {
	h, _, _ := newTaskHandler()

	ctx := doRequest(fasthttp.MethodGet, "/api/tasks/42", nil)
	ctx.SetUserValue("id", "42")
	h.GetTask(ctx)

	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestDeleteTaskEndpoint(t *testing.T) {
	h, tasks, _ := newTaskHandler()

	created, err := tasks.Create(context.Background(), &domain.Task{Name: "doomed"})
	require.NoError(t, err)

	ctx := doRequest(fasthttp.MethodDelete, "/api/tasks/"+created.ID, nil)
	ctx.SetUserValue("id", created.ID)
	h.DeleteTask(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	msg, _ := decodeEnvelope(t, ctx)
	assert.Equal(t, "OK", msg)

	_, err = tasks.GetByID(context.Background(), created.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestMapError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, mapError(domain.ErrInvalidID))
	assert.Equal(t, http.StatusBadRequest, mapError(domain.ErrDuplicateEmail))
	assert.Equal(t, http.StatusNotFound, mapError(domain.ErrTaskNotFound))
	assert.Equal(t, http.StatusInternalServerError, mapError(assert.AnError))
}
