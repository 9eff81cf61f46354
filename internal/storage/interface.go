package storage

import (
	"context"
	"errors"

	"do-todo/internal/models"
)

// ErrTodoNotFound is returned when no row matches the requested id
var ErrTodoNotFound = errors.New("todo not found")

// Store defines the storage operations behind the todo handlers.
// Every method performs at most one logical mutation.
type Store interface {
	CreateTodo(ctx context.Context, req models.TodoRequest) (*models.Todo, error)
	ListTodos(ctx context.Context) ([]models.Todo, error)
	GetTodo(ctx context.Context, id uint) (*models.Todo, error)
	UpdateTodo(ctx context.Context, id uint, req models.TodoRequest) (*models.Todo, error)
	DeleteTodo(ctx context.Context, id uint) error
}
