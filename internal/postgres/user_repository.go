package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
)

const uniqueViolationCode = "23505"

// UserRepo is the account store. The chat core reads it through the
// IdentityResolver port; only the account handlers write to it.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, user_name, full_name, email, profile_image, password_hash, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.UserName, &u.FullName, &u.Email, &u.ProfileImage, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE user_name = $1`
	return scanUser(r.pool.QueryRow(ctx, q, username))
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		var u domain.User
		err := row.Scan(&u.ID, &u.UserName, &u.FullName, &u.Email, &u.ProfileImage, &u.PasswordHash, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, nil
}

func (r *UserRepo) Create(ctx context.Context, user domain.User) error {
	const q = `
		INSERT INTO users (id, user_name, full_name, email, profile_image, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, q,
		user.ID, user.UserName, user.FullName, user.Email, user.ProfileImage, user.PasswordHash, user.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return domain.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}
