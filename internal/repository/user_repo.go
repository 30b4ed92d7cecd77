package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-blog-api/internal/model"
)

const userColumns = `id, name, email, password_hash, role, refresh_token, refresh_token_expires_at,
	 password_reset_token, password_reset_expires_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByRefreshToken(ctx context.Context, token string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE refresh_token = $1`, token)
}

func (r *UserRepository) FindByPasswordResetToken(ctx context.Context, token string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE password_reset_token = $1`, token)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
			&u.RefreshToken, &u.RefreshTokenExpiry,
			&u.PasswordResetToken, &u.PasswordResetExpiry,
			&u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// Save upserts the user. A zero ID inserts and returns the record with
// the generated ID; otherwise every mutable column is overwritten.
func (r *UserRepository) Save(ctx context.Context, u model.User) (model.User, error) {
	now := time.Now().UTC()
	u.UpdatedAt = now

	if u.ID == 0 {
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		err := r.pool.QueryRow(ctx,
			`INSERT INTO users (name, email, password_hash, role, refresh_token, refresh_token_expires_at,
			                    password_reset_token, password_reset_expires_at, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING id`,
			u.Name, u.Email, u.PasswordHash, u.Role, u.RefreshToken, u.RefreshTokenExpiry,
			u.PasswordResetToken, u.PasswordResetExpiry, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
		if err != nil {
			return model.User{}, fmt.Errorf("insert user: %w", err)
		}
		return u, nil
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET name = $2, email = $3, password_hash = $4, role = $5,
		        refresh_token = $6, refresh_token_expires_at = $7,
		        password_reset_token = $8, password_reset_expires_at = $9, updated_at = $10
		 WHERE id = $1`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.RefreshToken, u.RefreshTokenExpiry,
		u.PasswordResetToken, u.PasswordResetExpiry, u.UpdatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}
