package client

import "time"

// User is an account document as returned by the user endpoints.
type User struct {
	ID          string    `json:"_id"`
	PersonalID  string    `json:"personal_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Address     string    `json:"address,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        string    `json:"role"`
	IsVerified  bool      `json:"isVerified"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SignUpRequest is the registration form.
type SignUpRequest struct {
	PersonalID      string `json:"personal_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Address         string `json:"address,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
}

// NewUserRequest is the admin add-user form.
type NewUserRequest struct {
	PersonalID  string `json:"personal_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Address     string `json:"address,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Role        string `json:"role,omitempty"`
}

// UserPatch is a partial admin update; nil fields are not sent.
type UserPatch struct {
	PersonalID      *string `json:"personal_id,omitempty"`
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	Address         *string `json:"address,omitempty"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	Role            *string `json:"role,omitempty"`
	Password        *string `json:"password,omitempty"`
	ConfirmPassword *string `json:"confirmPassword,omitempty"`
}

// Todo is one item of the caller's list.
type Todo struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"todo_name"`
	Description string    `json:"todo_desc"`
	Image       string    `json:"todo_image"`
	Done        bool      `json:"todo_status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TodoRequest creates a todo.
type TodoRequest struct {
	Name        string `json:"todo_name"`
	Description string `json:"todo_desc,omitempty"`
	Image       string `json:"todo_image,omitempty"`
	Done        bool   `json:"todo_status,omitempty"`
}

// TodoPatch is a partial todo update; nil fields are not sent.
type TodoPatch struct {
	Name        *string `json:"todo_name,omitempty"`
	Description *string `json:"todo_desc,omitempty"`
	Image       *string `json:"todo_image,omitempty"`
	Done        *bool   `json:"todo_status,omitempty"`
}
