package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/geocoder89/pethub/internal/domain/pet"
	"github.com/geocoder89/pethub/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()

	storage, err := New(context.Background(), ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
	}

	return storage, cleanup
}

func strPtr(s string) *string { return &s }

func newUser(email string) user.User {
	return user.User{
		FirstName:    "Sam",
		LastName:     "Doe",
		PhoneNumber:  "555-0100",
		Email:        email,
		PasswordHash: "$2a$10$hash",
	}
}

func TestUserStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	created, err := s.Create(ctx, newUser("sam@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := s.GetByEmail(ctx, "sam@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Sam", got.FirstName)
	assert.Equal(t, "555-0100", got.PhoneNumber)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUserStorage_GetMissing(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserStorage_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.Create(ctx, newUser("dup@example.com"))
	require.NoError(t, err)

	_, err = s.Create(ctx, newUser("dup@example.com"))
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestUserStorage_ConcurrentSignupsKeepOneRow(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Create(ctx, newUser("race@example.com"))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, user.ErrEmailTaken)
	}
	assert.Equal(t, 1, ok)

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, "race@example.com").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPetStorage_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	repo := s.Pets()

	created, err := repo.Create(ctx, pet.Pet{
		Name:        "Milo",
		Age:         3,
		Breed:       "beagle",
		Description: "friendly",
		Status:      pet.StatusActive,
		ImageURL:    strPtr("http://img/1.jpg"),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Milo", got.Name)
	assert.Equal(t, 3, got.Age)
	assert.Equal(t, pet.StatusActive, got.Status)
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, "http://img/1.jpg", *got.ImageURL)

	got.Name = "Milo II"
	got.Status = pet.StatusAdopted
	got.Description = ""

	updated, err := repo.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Milo II", updated.Name)
	assert.Equal(t, pet.StatusAdopted, updated.Status)
	assert.Equal(t, "", updated.Description)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, "http://img/1.jpg", *updated.ImageURL)
}

func TestPetStorage_NullImage(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	created, err := s.Pets().Create(ctx, pet.Pet{Name: "NoPic", Status: pet.StatusPending})
	require.NoError(t, err)

	got, err := s.Pets().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ImageURL)
}

func TestPetStorage_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.Pets().Update(ctx, pet.Pet{ID: 999, Name: "ghost", Status: pet.StatusActive})
	assert.ErrorIs(t, err, pet.ErrNotFound)

	_, err = s.Pets().GetByID(ctx, 999)
	assert.ErrorIs(t, err, pet.ErrNotFound)
}

func TestPetStorage_ListByStatusOnlyActive(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	repo := s.Pets()

	for i := 0; i < 20; i++ {
		status := pet.StatusInactive
		if i%2 == 0 {
			status = pet.StatusAdopted
		}
		_, err := repo.Create(ctx, pet.Pet{Name: fmt.Sprintf("inactive-%d", i), Status: status})
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, pet.Pet{Name: fmt.Sprintf("active-%d", i), Status: pet.StatusActive})
		require.NoError(t, err)
	}

	// a value that would break an interpolated query must simply match nothing
	_, err := repo.Create(ctx, pet.Pet{Name: "quote", Status: pet.Status("Active' OR '1'='1")})
	require.NoError(t, err)

	got, err := repo.ListByStatus(ctx, pet.StatusActive)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for _, p := range got {
		assert.Equal(t, pet.StatusActive, p.Status)
	}

	none, err := repo.ListByStatus(ctx, pet.Status("Active' OR '1'='1' --"))
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}
