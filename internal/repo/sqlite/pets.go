package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/pethub/internal/domain/pet"
)

const petColumns = `id, name, age, breed, description, status, image_url, created_at, updated_at`

// Pets returns the pet table adapter on the same connection.
func (s *Storage) Pets() *PetsRepo {
	return &PetsRepo{db: s.db}
}

type PetsRepo struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pet.Pet, error) {
	var p pet.Pet
	var status string
	var imageURL sql.NullString

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Age,
		&p.Breed,
		&p.Description,
		&status,
		&imageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		return pet.Pet{}, err
	}

	p.Status = pet.Status(status)
	if imageURL.Valid {
		v := imageURL.String
		p.ImageURL = &v
	}

	return p, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func (r *PetsRepo) Create(ctx context.Context, p pet.Pet) (pet.Pet, error) {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (name, age, breed, description, status, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.Name,
		p.Age,
		p.Breed,
		p.Description,
		string(p.Status),
		nullString(p.ImageURL),
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		return pet.Pet{}, fmt.Errorf("failed to insert pet: %w", err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return pet.Pet{}, fmt.Errorf("failed to read pet id: %w", err)
	}

	return p, nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id int64) (pet.Pet, error) {
	p, err := scanPet(r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = ?`, id))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pet.Pet{}, pet.ErrNotFound
		}
		return pet.Pet{}, fmt.Errorf("failed to get pet: %w", err)
	}

	return p, nil
}

func (r *PetsRepo) Update(ctx context.Context, p pet.Pet) (pet.Pet, error) {
	p.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET name = ?,
			age = ?,
			breed = ?,
			description = ?,
			status = ?,
			image_url = ?,
			updated_at = ?
		WHERE id = ?
	`,
		p.Name,
		p.Age,
		p.Breed,
		p.Description,
		string(p.Status),
		nullString(p.ImageURL),
		p.UpdatedAt,
		p.ID,
	)

	if err != nil {
		return pet.Pet{}, fmt.Errorf("failed to update pet: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return pet.Pet{}, fmt.Errorf("failed to update pet: %w", err)
	}

	if n == 0 {
		return pet.Pet{}, pet.ErrNotFound
	}

	return r.GetByID(ctx, p.ID)
}

func (r *PetsRepo) ListByStatus(ctx context.Context, status pet.Status) ([]pet.Pet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+petColumns+` FROM pets WHERE status = ? ORDER BY id ASC`, string(status))

	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}

	defer rows.Close()

	out := make([]pet.Pet, 0)

	for rows.Next() {
		p, err := scanPet(rows)

		if err != nil {
			return nil, fmt.Errorf("failed to scan pet: %w", err)
		}

		out = append(out, p)
	}

	return out, rows.Err()
}
