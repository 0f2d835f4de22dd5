package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/pethub/internal/domain/pet"
	"github.com/geocoder89/pethub/internal/retry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const petColumns = `id, name, age, breed, description, status, image_url, created_at, updated_at`

type PetsRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewPetsRepo(pool *pgxpool.Pool, obs DBObserver) *PetsRepo {
	return &PetsRepo{pool: pool, obs: obs}
}

func scanPet(row pgx.Row) (pet.Pet, error) {
	var p pet.Pet

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Age,
		&p.Breed,
		&p.Description,
		&p.Status,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (r *PetsRepo) Create(ctx context.Context, p pet.Pet) (pet.Pet, error) {
	var created pet.Pet

	err := observe(r.obs, "pets.create", func() error {
		var err error
		created, err = scanPet(r.pool.QueryRow(
			ctx,
			`INSERT INTO pets (name, age, breed, description, status, image_url, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING `+petColumns,
			p.Name,
			p.Age,
			p.Breed,
			p.Description,
			p.Status,
			p.ImageURL,
			p.CreatedAt,
			p.UpdatedAt,
		))
		return err
	})

	if err != nil {
		return pet.Pet{}, fmt.Errorf("insert pet: %w", err)
	}

	return created, nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id int64) (pet.Pet, error) {
	return retry.Read(ctx, transient, func(ctx context.Context) (pet.Pet, error) {
		var p pet.Pet

		err := observe(r.obs, "pets.get_by_id", func() error {
			var err error
			p, err = scanPet(r.pool.QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id))
			return err
		})

		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return pet.Pet{}, pet.ErrNotFound
			}
			return pet.Pet{}, err
		}

		return p, nil
	})
}

// Update is a full replace of every column except id and created_at.
func (r *PetsRepo) Update(ctx context.Context, p pet.Pet) (pet.Pet, error) {
	var updated pet.Pet

	err := observe(r.obs, "pets.update", func() error {
		var err error
		updated, err = scanPet(r.pool.QueryRow(
			ctx,
			`UPDATE pets
				SET name = $2,
						age = $3,
						breed = $4,
						description = $5,
						status = $6,
						image_url = $7,
						updated_at = NOW()
			WHERE id = $1
			RETURNING `+petColumns,
			p.ID,
			p.Name,
			p.Age,
			p.Breed,
			p.Description,
			p.Status,
			p.ImageURL,
		))
		return err
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return pet.Pet{}, pet.ErrNotFound
		}
		return pet.Pet{}, fmt.Errorf("update pet %d: %w", p.ID, err)
	}

	return updated, nil
}

// ListByStatus binds the status as a parameter; it is never spliced into the SQL.
func (r *PetsRepo) ListByStatus(ctx context.Context, status pet.Status) ([]pet.Pet, error) {
	return retry.Read(ctx, transient, func(ctx context.Context) ([]pet.Pet, error) {
		output := make([]pet.Pet, 0)

		err := observe(r.obs, "pets.list_by_status", func() error {
			rows, err := r.pool.Query(ctx, `SELECT `+petColumns+` FROM pets WHERE status = $1 ORDER BY id ASC`, string(status))

			if err != nil {
				return err
			}

			defer rows.Close()

			for rows.Next() {
				p, err := scanPet(rows)

				if err != nil {
					return err
				}

				output = append(output, p)
			}

			return rows.Err()
		})

		if err != nil {
			return nil, err
		}

		return output, nil
	})
}
