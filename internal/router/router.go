package router

import (
	"github.com/fasthttp/router"

	apiHandler "github.com/taskhub/backend/api/handler"
)

type Handlers struct {
	User   *apiHandler.UserHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers) *router.Router {
	r := router.New()

	r.GET("/api/", handlers.Health.Check)

	r.GET("/api/users", handlers.User.GetUsers)
	r.POST("/api/users", handlers.User.CreateUser)
	r.GET("/api/users/{id}", handlers.User.GetUser)
	r.PUT("/api/users/{id}", handlers.User.UpdateUser)
	r.DELETE("/api/users/{id}", handlers.User.DeleteUser)

	r.GET("/api/tasks", handlers.Task.GetTasks)
	r.POST("/api/tasks", handlers.Task.CreateTask)
	r.GET("/api/tasks/{id}", handlers.Task.GetTask)
	r.PUT("/api/tasks/{id}", handlers.Task.UpdateTask)
	r.DELETE("/api/tasks/{id}", handlers.Task.DeleteTask)

	return r
}
