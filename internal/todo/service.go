package todo

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/todo-team/todolist/internal/apperr"
)

const msgNameRequired = "Please enter a todo name"

// Service is a thin layer over the repository that stamps ids and times.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a todo service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns the caller's todos.
func (s *Service) List(ctx context.Context, userID string) ([]Todo, error) {
	todos, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []Todo{}
	}
	return todos, nil
}

// Create adds a todo for userID.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Todo, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Validate(in.Name, validation.Required.Error(msgNameRequired)); err != nil {
		return Todo{}, apperr.Validation(err.Error())
	}

	now := s.now().UTC()
	todo := Todo{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
		Done:        in.Done,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		return Todo{}, err
	}
	return todo, nil
}

// Update patches a todo owned by userID.
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (Todo, error) {
	todo, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Todo{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Todo{}, apperr.Validation(msgNameRequired)
		}
		todo.Name = name
	}
	if in.Description != nil {
		todo.Description = *in.Description
	}
	if in.Image != nil {
		todo.Image = *in.Image
	}
	if in.Done != nil {
		todo.Done = *in.Done
	}
	todo.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, todo); err != nil {
		return Todo{}, err
	}
	return todo, nil
}

// Delete removes a todo owned by userID.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
