package todo

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	todos map[string]Todo
}

// NewMemoryRepository builds an in-memory todo store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{todos: make(map[string]Todo)}
}

func (r *memoryRepository) Create(_ context.Context, todo Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.todos[todo.ID] = todo
	return nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var todos []Todo
	for _, t := range r.todos {
		if t.UserID == userID {
			todos = append(todos, t)
		}
	}
	sort.Slice(todos, func(i, j int) bool {
		return todos[i].CreatedAt.Before(todos[j].CreatedAt)
	})
	return todos, nil
}

func (r *memoryRepository) Get(_ context.Context, userID, id string) (Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.todos[id]
	if !ok || t.UserID != userID {
		return Todo{}, errNotFound
	}
	return t, nil
}

func (r *memoryRepository) Update(_ context.Context, todo Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.todos[todo.ID]
	if !ok || current.UserID != todo.UserID {
		return errNotFound
	}
	todo.CreatedAt = current.CreatedAt
	r.todos[todo.ID] = todo
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.UserID != userID {
		return errNotFound
	}
	delete(r.todos, id)
	return nil
}
