package storage

import (
	"context"
	"sort"
	"sync"

	"do-todo/internal/models"
)

// Storage is an in-memory Store for local development and tests.
// Ids are assigned from a counter and never reused.
type Storage struct {
	mu     sync.RWMutex
	todos  map[uint]*models.Todo
	nextID uint
}

// NewStorage creates a new in-memory storage instance
func NewStorage() *Storage {
	return &Storage{
		todos:  make(map[uint]*models.Todo),
		nextID: 1,
	}
}

// CreateTodo stores a new todo under the next id
func (s *Storage) CreateTodo(_ context.Context, req models.TodoRequest) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo := req.NewTodo()
	todo.ID = s.nextID
	s.nextID++

	s.todos[todo.ID] = todo
	todoCopy := *todo
	return &todoCopy, nil
}

// ListTodos returns copies of every todo in id order
func (s *Storage) ListTodos(_ context.Context) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Todo, 0, len(s.todos))
	for _, todo := range s.todos {
		result = append(result, *todo)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// GetTodo retrieves a copy of a todo by id
func (s *Storage) GetTodo(_ context.Context, id uint) (*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todo, exists := s.todos[id]
	if !exists {
		return nil, ErrTodoNotFound
	}
	todoCopy := *todo
	return &todoCopy, nil
}

// UpdateTodo overwrites content and is_complete of an existing todo
func (s *Storage) UpdateTodo(_ context.Context, id uint, req models.TodoRequest) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, exists := s.todos[id]
	if !exists {
		return nil, ErrTodoNotFound
	}
	req.Apply(todo)

	todoCopy := *todo
	return &todoCopy, nil
}

// DeleteTodo removes a todo
func (s *Storage) DeleteTodo(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.todos[id]; !exists {
		return ErrTodoNotFound
	}
	delete(s.todos, id)
	return nil
}
