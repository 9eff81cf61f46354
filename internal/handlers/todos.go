package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"do-todo/internal/models"
	"do-todo/internal/storage"

	"github.com/gin-gonic/gin"
)

const (
	detailNoTask       = "No Task found"
	detailTodoNotFound = "Todo not found"
	detailInternal     = "Internal Server Error"
	messageDeleted     = "Task successfuly deleted"
)

// TodoHandler handles todo operations
type TodoHandler struct {
	storage storage.Store
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(store storage.Store) *TodoHandler {
	return &TodoHandler{storage: store}
}

// CreateTodo handles POST /todos/
func (h *TodoHandler) CreateTodo(c *gin.Context) {
	var req models.TodoRequest
	if !bindTodoRequest(c, &req) {
		return
	}

	todo, err := h.storage.CreateTodo(c.Request.Context(), req)
	if err != nil {
		abortWithStorageError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

// ListTodos handles GET /todos/. An empty collection is reported as 404.
func (h *TodoHandler) ListTodos(c *gin.Context) {
	todos, err := h.storage.ListTodos(c.Request.Context())
	if err != nil {
		abortWithStorageError(c, err)
		return
	}

	if len(todos) == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: detailNoTask})
		return
	}

	c.JSON(http.StatusOK, todos)
}

// GetTodo handles GET /todos/:id
func (h *TodoHandler) GetTodo(c *gin.Context) {
	id, ok := parseTodoID(c, detailNoTask)
	if !ok {
		return
	}

	todo, err := h.storage.GetTodo(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrTodoNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: detailNoTask})
			return
		}
		abortWithStorageError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

// UpdateTodo handles PUT /todos/:id
func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	id, ok := parseTodoID(c, detailTodoNotFound)
	if !ok {
		return
	}

	var req models.TodoRequest
	if !bindTodoRequest(c, &req) {
		return
	}

	todo, err := h.storage.UpdateTodo(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, storage.ErrTodoNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: detailTodoNotFound})
			return
		}
		abortWithStorageError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

// DeleteTodo handles DELETE /todos/:id
func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	id, ok := parseTodoID(c, detailTodoNotFound)
	if !ok {
		return
	}

	if err := h.storage.DeleteTodo(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrTodoNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: detailTodoNotFound})
			return
		}
		abortWithStorageError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: messageDeleted})
}

// parseTodoID reads the :id path parameter. Non-integers are rejected with 422;
// integers that can never name a row (zero, negative) are a plain 404.
func parseTodoID(c *gin.Context, notFoundDetail string) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Detail: "id: must be an integer, got '" + raw + "'",
		})
		return 0, false
	}
	if id < 1 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: notFoundDetail})
		return 0, false
	}
	return uint(id), true
}

func bindTodoRequest(c *gin.Context, req *models.TodoRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Detail: validationDetail(err),
		})
		return false
	}
	return true
}

// abortWithStorageError hides the cause from the client; ErrorSanitizer logs it
func abortWithStorageError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Detail: detailInternal})
}
