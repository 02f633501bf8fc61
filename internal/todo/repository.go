package todo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/todo-team/todolist/internal/apperr"
)

var errNotFound = apperr.New(apperr.KindNotFound, "Todo not found")

// Repository persists todos. Every lookup is scoped to the owning user.
type Repository interface {
	Create(ctx context.Context, todo Todo) error
	ListByUser(ctx context.Context, userID string) ([]Todo, error)
	Get(ctx context.Context, userID, id string) (Todo, error)
	Update(ctx context.Context, todo Todo) error
	Delete(ctx context.Context, userID, id string) error
}

const todoColumns = `id, user_id, name, description, image, done, created_at, updated_at`

// PostgresRepository stores todos in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a todo record.
func (r *PostgresRepository) Create(ctx context.Context, todo Todo) error {
	todoID, ownerID, err := parseIDs(todo.ID, todo.UserID)
	if err != nil {
		return apperr.Internal(err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO todos (`+todoColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		todoID, ownerID, todo.Name, todo.Description, todo.Image, todo.Done, todo.CreatedAt.UTC(), todo.UpdatedAt.UTC())
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ListByUser returns the todos of a user, oldest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Todo, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+todoColumns+` FROM todos WHERE user_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var todos []Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return todos, nil
}

// Get fetches one todo of a user.
func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (Todo, error) {
	todoID, ownerID, err := parseIDs(id, userID)
	if err != nil {
		return Todo{}, errNotFound
	}
	return scanTodo(r.db.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1 AND user_id = $2`, todoID, ownerID))
}

// Update overwrites the editable fields of a todo.
func (r *PostgresRepository) Update(ctx context.Context, todo Todo) error {
	todoID, ownerID, err := parseIDs(todo.ID, todo.UserID)
	if err != nil {
		return errNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE todos SET name = $1, description = $2, image = $3, done = $4, updated_at = $5
        WHERE id = $6 AND user_id = $7`,
		todo.Name, todo.Description, todo.Image, todo.Done, todo.UpdatedAt.UTC(), todoID, ownerID)
	if err != nil {
		return apperr.Internal(err)
	}
	return affected(cmd)
}

// Delete removes a todo of a user.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	todoID, ownerID, err := parseIDs(id, userID)
	if err != nil {
		return errNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, todoID, ownerID)
	if err != nil {
		return apperr.Internal(err)
	}
	return affected(cmd)
}

func scanTodo(row pgx.Row) (Todo, error) {
	var (
		id, ownerID uuid.UUID
		t           Todo
	)
	err := row.Scan(&id, &ownerID, &t.Name, &t.Description, &t.Image, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Todo{}, errNotFound
	}
	if err != nil {
		return Todo{}, apperr.Internal(err)
	}
	t.ID = id.String()
	t.UserID = ownerID.String()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func parseIDs(id, userID string) (uuid.UUID, uuid.UUID, error) {
	todoID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return todoID, ownerID, nil
}

func affected(cmd pgconn.CommandTag) error {
	if cmd.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}
