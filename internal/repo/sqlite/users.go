package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/pethub/internal/domain/user"
)

func (s *Storage) GetByEmail(ctx context.Context, email string) (user.User, error) {
	query := `
		SELECT id, first_name, last_name, phone_number, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`

	var u user.User

	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.PhoneNumber,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *Storage) Create(ctx context.Context, u user.User) (user.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (first_name, last_name, phone_number, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		u.FirstName,
		u.LastName,
		u.PhoneNumber,
		u.Email,
		u.PasswordHash,
		u.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	u.ID, err = res.LastInsertId()
	if err != nil {
		return user.User{}, fmt.Errorf("failed to read user id: %w", err)
	}

	return u, nil
}
