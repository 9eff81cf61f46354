package storage

import (
	"context"
	"errors"

	"do-todo/internal/database"
	"do-todo/internal/models"

	"gorm.io/gorm"
)

// PostgresStorage implements Store with GORM, one session per call
type PostgresStorage struct {
	sessions *database.SessionProvider
}

// NewPostgresStorage creates a SQL-backed store on top of sessions
func NewPostgresStorage(sessions *database.SessionProvider) *PostgresStorage {
	return &PostgresStorage{sessions: sessions}
}

// CreateTodo inserts a new row; the id comes from the database
func (s *PostgresStorage) CreateTodo(ctx context.Context, req models.TodoRequest) (*models.Todo, error) {
	todo := req.NewTodo()
	err := s.sessions.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Create(todo).Error
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// ListTodos returns every todo in id order
func (s *PostgresStorage) ListTodos(ctx context.Context) ([]models.Todo, error) {
	todos := make([]models.Todo, 0)
	err := s.sessions.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Order("id").Find(&todos).Error
	})
	if err != nil {
		return nil, err
	}
	return todos, nil
}

// GetTodo retrieves a todo by id
func (s *PostgresStorage) GetTodo(ctx context.Context, id uint) (*models.Todo, error) {
	var todo models.Todo
	err := s.sessions.WithSession(ctx, func(tx *gorm.DB) error {
		return findTodo(tx, id, &todo)
	})
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

// UpdateTodo overwrites content and is_complete of an existing todo
func (s *PostgresStorage) UpdateTodo(ctx context.Context, id uint, req models.TodoRequest) (*models.Todo, error) {
	var todo models.Todo
	err := s.sessions.WithSession(ctx, func(tx *gorm.DB) error {
		if err := findTodo(tx, id, &todo); err != nil {
			return err
		}
		req.Apply(&todo)
		return tx.Save(&todo).Error
	})
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteTodo removes a todo
func (s *PostgresStorage) DeleteTodo(ctx context.Context, id uint) error {
	return s.sessions.WithSession(ctx, func(tx *gorm.DB) error {
		result := tx.Delete(&models.Todo{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTodoNotFound
		}
		return nil
	})
}

func findTodo(tx *gorm.DB, id uint, todo *models.Todo) error {
	if err := tx.First(todo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTodoNotFound
		}
		return err
	}
	return nil
}
