package todo

import "time"

// Todo is a single item on a user's list.
type Todo struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Image       string
	Done        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput is the payload of a new todo.
type CreateInput struct {
	Name        string `json:"todo_name"`
	Description string `json:"todo_desc"`
	Image       string `json:"todo_image"`
	Done        bool   `json:"todo_status"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string `json:"todo_name"`
	Description *string `json:"todo_desc"`
	Image       *string `json:"todo_image"`
	Done        *bool   `json:"todo_status"`
}
