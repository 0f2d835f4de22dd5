package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/pethub/internal/domain/user"
	"github.com/geocoder89/pethub/internal/retry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewUsersRepo(pool *pgxpool.Pool, obs DBObserver) *UsersRepo {
	return &UsersRepo{pool: pool, obs: obs}
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return retry.Read(ctx, transient, func(ctx context.Context) (user.User, error) {
		var u user.User

		err := observe(r.obs, "users.get_by_email", func() error {
			return r.pool.QueryRow(
				ctx,
				`SELECT id, first_name, last_name, phone_number, email, password_hash, created_at
				 FROM users
				 WHERE email = $1`,
				email,
			).Scan(
				&u.ID,
				&u.FirstName,
				&u.LastName,
				&u.PhoneNumber,
				&u.Email,
				&u.PasswordHash,
				&u.CreatedAt,
			)
		})

		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return user.User{}, user.ErrNotFound
			}

			return user.User{}, err
		}
		return u, nil
	})
}

// Create inserts the user. The unique constraint on email is the only guard
// against two concurrent signups; its violation comes back as ErrEmailTaken.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := observe(r.obs, "users.create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO users (first_name, last_name, phone_number, email, password_hash)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			u.FirstName,
			u.LastName,
			u.PhoneNumber,
			u.Email,
			u.PasswordHash,
		).Scan(&u.ID, &u.CreatedAt)
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}
