package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"do-todo/internal/database"
	"do-todo/internal/models"
	"do-todo/internal/storage"
	"do-todo/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTodoRouter(store storage.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewTodoHandler(store)

	router := gin.New()
	router.GET("/", Root)
	router.POST("/todos/", handler.CreateTodo)
	router.GET("/todos/", handler.ListTodos)
	router.GET("/todos/:id", handler.GetTodo)
	router.PUT("/todos/:id", handler.UpdateTodo)
	router.DELETE("/todos/:id", handler.DeleteTodo)
	return router
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func todoURL(id uint) string {
	return "/todos/" + strconv.FormatUint(uint64(id), 10)
}

func createTodo(t *testing.T, router *gin.Engine, body interface{}) models.Todo {
	t.Helper()
	w := serve(router, testutil.MakeJSONRequest(t, http.MethodPost, "/todos/", body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var todo models.Todo
	testutil.ParseJSONResponse(t, w, &todo)
	return todo
}

// failingStore simulates storage that cannot be reached
type failingStore struct {
	err error
}

func (f failingStore) CreateTodo(context.Context, models.TodoRequest) (*models.Todo, error) {
	return nil, f.err
}

func (f failingStore) ListTodos(context.Context) ([]models.Todo, error) {
	return nil, f.err
}

func (f failingStore) GetTodo(context.Context, uint) (*models.Todo, error) {
	return nil, f.err
}

func (f failingStore) UpdateTodo(context.Context, uint, models.TodoRequest) (*models.Todo, error) {
	return nil, f.err
}

func (f failingStore) DeleteTodo(context.Context, uint) error {
	return f.err
}

func TestRoot(t *testing.T) {
	router := setupTodoRouter(storage.NewStorage())

	w := serve(router, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message": "Hello World"}`, w.Body.String())
}

func TestCreateTodo(t *testing.T) {
	t.Run("assigns id and defaults is_complete", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())

		todo := createTodo(t, router, map[string]interface{}{"content": "Buy milk"})

		assert.Positive(t, todo.ID)
		assert.Equal(t, "Buy milk", todo.Content)
		assert.False(t, todo.IsComplete)
	})

	t.Run("ignores a client supplied id", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())

		todo := createTodo(t, router, map[string]interface{}{"id": 999, "content": "Pick id", "is_complete": true})

		assert.Equal(t, uint(1), todo.ID)
		assert.True(t, todo.IsComplete)
	})

	t.Run("rejects empty content before storage", func(t *testing.T) {
		store := storage.NewStorage()
		router := setupTodoRouter(store)

		w := serve(router, testutil.MakeJSONRequest(t, http.MethodPost, "/todos/", map[string]interface{}{"content": ""}))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp models.ErrorResponse
		testutil.ParseJSONResponse(t, w, &resp)
		assert.Equal(t, "content: field required", resp.Detail)

		todos, err := store.ListTodos(context.Background())
		require.NoError(t, err)
		assert.Empty(t, todos, "Invalid payload must never reach storage")
	})

	t.Run("rejects content longer than 255 characters", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())

		w := serve(router, testutil.MakeJSONRequest(t, http.MethodPost, "/todos/",
			map[string]interface{}{"content": strings.Repeat("x", 256)}))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "at most 255 characters")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())

		w := serve(router, testutil.MakeJSONRequest(t, http.MethodPost, "/todos/", `{"content": `))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "detail")
	})

	t.Run("rejects wrong field types", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())

		w := serve(router, testutil.MakeJSONRequest(t, http.MethodPost, "/todos/", `{"content": "x", "is_complete": "yes"}`))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "is_complete")
	})

	t.Run("rejects missing body", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())

		w := serve(router, testutil.MakeJSONRequest(t, http.MethodPost, "/todos/", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.JSONEq(t, `{"detail": "request body is required"}`, w.Body.String())
	})
}

func TestListTodos(t *testing.T) {
	t.Run("empty collection is 404", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())

		w := serve(router, httptest.NewRequest(http.MethodGet, "/todos/", http.NoBody))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail": "No Task found"}`, w.Body.String())
	})

	t.Run("one item, then 404 after delete", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())
		created := createTodo(t, router, map[string]interface{}{"content": "Only one"})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/todos/", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		var todos []models.Todo
		testutil.ParseJSONResponse(t, w, &todos)
		assert.Equal(t, []models.Todo{created}, todos)

		w = serve(router, httptest.NewRequest(http.MethodDelete, todoURL(created.ID), http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)

		w = serve(router, httptest.NewRequest(http.MethodGet, "/todos/", http.NoBody))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns items in insertion order", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())
		first := createTodo(t, router, map[string]interface{}{"content": "first"})
		second := createTodo(t, router, map[string]interface{}{"content": "second"})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/todos/", http.NoBody))

		var todos []models.Todo
		testutil.ParseJSONResponse(t, w, &todos)
		assert.Equal(t, []models.Todo{first, second}, todos)
	})
}

func TestGetTodo(t *testing.T) {
	t.Run("round-trips a created item", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())
		created := createTodo(t, router, map[string]interface{}{"content": "Round trip", "is_complete": true})

		w := serve(router, httptest.NewRequest(http.MethodGet, todoURL(created.ID), http.NoBody))

		assert.Equal(t, http.StatusOK, w.Code)
		var fetched models.Todo
		testutil.ParseJSONResponse(t, w, &fetched)
		assert.Equal(t, created, fetched)
	})

	t.Run("missing id is 404 regardless of other items", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())
		for i := 0; i < 3; i++ {
			createTodo(t, router, map[string]interface{}{"content": "filler"})
		}

		for _, path := range []string{"/todos/999", "/todos/0", "/todos/-1"} {
			w := serve(router, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			assert.Equal(t, http.StatusNotFound, w.Code, path)
			assert.JSONEq(t, `{"detail": "No Task found"}`, w.Body.String(), path)
		}
	})

	t.Run("non-integer id is 422", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())

		w := serve(router, httptest.NewRequest(http.MethodGet, "/todos/abc", http.NoBody))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "must be an integer")
	})
}

func TestUpdateTodo(t *testing.T) {
	t.Run("changes fields but not id", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())
		created := createTodo(t, router, map[string]interface{}{"content": "draft"})

		w := serve(router, testutil.MakeJSONRequest(t, http.MethodPut, todoURL(created.ID),
			map[string]interface{}{"id": created.ID + 100, "content": "final", "is_complete": true}))

		require.Equal(t, http.StatusOK, w.Code)
		var updated models.Todo
		testutil.ParseJSONResponse(t, w, &updated)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "final", updated.Content)
		assert.True(t, updated.IsComplete)

		w = serve(router, httptest.NewRequest(http.MethodGet, todoURL(created.ID), http.NoBody))
		var fetched models.Todo
		testutil.ParseJSONResponse(t, w, &fetched)
		assert.Equal(t, updated, fetched)
	})

	t.Run("missing id is 404", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())

		w := serve(router, testutil.MakeJSONRequest(t, http.MethodPut, "/todos/7",
			map[string]interface{}{"content": "ghost", "is_complete": false}))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail": "Todo not found"}`, w.Body.String())
	})

	t.Run("invalid payload is 422", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())
		created := createTodo(t, router, map[string]interface{}{"content": "keep me"})

		w := serve(router, testutil.MakeJSONRequest(t, http.MethodPut, todoURL(created.ID),
			map[string]interface{}{"content": ""}))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		w = serve(router, httptest.NewRequest(http.MethodGet, todoURL(created.ID), http.NoBody))
		var fetched models.Todo
		testutil.ParseJSONResponse(t, w, &fetched)
		assert.Equal(t, "keep me", fetched.Content)
	})
}

func TestDeleteTodo(t *testing.T) {
	t.Run("second delete is 404", func(t *testing.T) {
		router := setupTodoRouter(storage.NewStorage())
		created := createTodo(t, router, map[string]interface{}{"content": "once"})

		w := serve(router, httptest.NewRequest(http.MethodDelete, todoURL(created.ID), http.NoBody))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message": "Task successfuly deleted"}`, w.Body.String())

		w = serve(router, httptest.NewRequest(http.MethodDelete, todoURL(created.ID), http.NoBody))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail": "Todo not found"}`, w.Body.String())
	})
}

func TestTodoHandlersStorageUnavailable(t *testing.T) {
	router := setupTodoRouter(failingStore{err: errors.New("dial tcp: connection refused")})

	requests := []*http.Request{
		testutil.MakeJSONRequest(t, http.MethodPost, "/todos/", map[string]interface{}{"content": "x"}),
		httptest.NewRequest(http.MethodGet, "/todos/", http.NoBody),
		httptest.NewRequest(http.MethodGet, "/todos/1", http.NoBody),
		testutil.MakeJSONRequest(t, http.MethodPut, "/todos/1", map[string]interface{}{"content": "x"}),
		httptest.NewRequest(http.MethodDelete, "/todos/1", http.NoBody),
	}

	for _, req := range requests {
		t.Run(req.Method+" "+req.URL.Path, func(t *testing.T) {
			w := serve(router, req)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"detail": "Internal Server Error"}`, w.Body.String())
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

// The same flows against SQL storage, one session per request
func TestTodoHandlersWithSQLStorage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sessions := database.NewSessionProvider(db)
	router := setupTodoRouter(storage.NewPostgresStorage(sessions))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/todos/", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)

	created := createTodo(t, router, map[string]interface{}{"content": "Buy milk"})
	assert.Positive(t, created.ID)
	assert.False(t, created.IsComplete)

	w = serve(router, httptest.NewRequest(http.MethodGet, todoURL(created.ID), http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.Todo
	testutil.ParseJSONResponse(t, w, &fetched)
	assert.Equal(t, created, fetched)

	w = serve(router, testutil.MakeJSONRequest(t, http.MethodPut, todoURL(created.ID),
		map[string]interface{}{"content": "Buy oat milk", "is_complete": true}))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodDelete, todoURL(created.ID), http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(router, httptest.NewRequest(http.MethodDelete, todoURL(created.ID), http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, int64(0), sessions.Open(), "Every session must be released")
}
