package models

// Todo is the single persisted entity, one row in the "todo" table
type Todo struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Content    string `gorm:"not null;size:255;index" json:"content"`
	IsComplete bool   `gorm:"not null;default:false" json:"is_complete"`
}

// TableName pins the table name; GORM would otherwise pluralise it
func (Todo) TableName() string {
	return "todo"
}

// TodoRequest is the body of create and update requests.
// Any id in the body is ignored; storage assigns ids and never rewrites them.
type TodoRequest struct {
	Content    string `json:"content" binding:"required,min=1,max=255"`
	IsComplete bool   `json:"is_complete"`
}

// Apply copies the client-mutable fields onto todo
func (r TodoRequest) Apply(todo *Todo) {
	todo.Content = r.Content
	todo.IsComplete = r.IsComplete
}

// NewTodo builds an unsaved Todo from the request
func (r TodoRequest) NewTodo() *Todo {
	todo := &Todo{}
	r.Apply(todo)
	return todo
}

// MessageResponse is returned by endpoints that only acknowledge
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every user-visible failure
type ErrorResponse struct {
	Detail string `json:"detail"`
}
