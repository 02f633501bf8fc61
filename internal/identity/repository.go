package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/todo-team/todolist/internal/apperr"
)

// Repository persists users. Emails are unique; lookups that miss return an
// error matching apperr.ErrNotFound and conflicting writes one matching
// apperr.ErrDuplicateEmail.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user User) error
	SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

const uniqueViolation = "23505"

const userColumns = `id, personal_id, name, email, address, phone_number, role, password_hash,
        is_verified, otp, otp_expires_at, created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		userID, user.PersonalID, user.Name, user.Email, user.Address, user.PhoneNumber, string(user.Role),
		user.PasswordHash, user.IsVerified, nullString(user.OTP), nullTime(user.OTPExpiresAt),
		user.CreatedAt.UTC(), user.UpdatedAt.UTC())
	return mapWriteErr(err)
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, errStoreNotFound
	}
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// List returns every user, oldest first.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// Update overwrites the mutable profile fields of a user.
func (r *PostgresRepository) Update(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return errStoreNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET personal_id = $1, name = $2, email = $3, address = $4,
        phone_number = $5, role = $6, password_hash = $7, updated_at = $8 WHERE id = $9`,
		user.PersonalID, user.Name, user.Email, user.Address, user.PhoneNumber, string(user.Role),
		user.PasswordHash, user.UpdatedAt.UTC(), userID)
	if err != nil {
		return mapWriteErr(err)
	}
	return affected(cmd)
}

// SetOTP replaces the pending code of a user.
func (r *PostgresRepository) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	return r.exec(ctx, id, `UPDATE users SET otp = $1, otp_expires_at = $2, updated_at = now() WHERE id = $3`,
		code, expiresAt.UTC())
}

// MarkVerified flags the user verified and clears the pending code.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	return r.exec(ctx, id, `UPDATE users SET is_verified = TRUE, otp = NULL, otp_expires_at = NULL,
        updated_at = now() WHERE id = $1`)
}

// Delete removes a user.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, id, `DELETE FROM users WHERE id = $1`)
}

// exec runs a statement whose final placeholder is the user id.
func (r *PostgresRepository) exec(ctx context.Context, id, sql string, args ...any) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return errStoreNotFound
	}
	cmd, err := r.db.Exec(ctx, sql, append(args, userID)...)
	if err != nil {
		return apperr.Internal(err)
	}
	return affected(cmd)
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id         uuid.UUID
		role       string
		otpCode    *string
		otpExpires *time.Time
		user       User
	)
	err := row.Scan(&id, &user.PersonalID, &user.Name, &user.Email, &user.Address, &user.PhoneNumber, &role,
		&user.PasswordHash, &user.IsVerified, &otpCode, &otpExpires, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, errStoreNotFound
	}
	if err != nil {
		return User{}, apperr.Internal(err)
	}
	user.ID = id.String()
	user.Role = NormalizeRole(role)
	if otpCode != nil {
		user.OTP = *otpCode
	}
	if otpExpires != nil {
		user.OTPExpiresAt = otpExpires.UTC()
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

func affected(cmd pgconn.CommandTag) error {
	if cmd.RowsAffected() == 0 {
		return errStoreNotFound
	}
	return nil
}

func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errStoreDuplicate
	}
	return apperr.Internal(err)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}
