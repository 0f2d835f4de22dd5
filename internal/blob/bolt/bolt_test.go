package bolt

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/geocoder89/pethub/internal/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "blobs.db"), "http://localhost:3010/")
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_PutOpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	payload := []byte("\x89PNG fake image bytes")
	key := blob.NewObjectKey("pets", "dog.png")

	url, err := s.Put(ctx, key, "image/png", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3010/uploads/"+key, url)

	obj, err := s.Open(ctx, key)
	require.NoError(t, err)
	defer obj.Body.Close()

	got, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(len(payload)), obj.Size)
}

func TestStore_OldObjectSurvivesNewUpload(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	first := blob.NewObjectKey("pets", "photo.jpg")
	second := blob.NewObjectKey("pets", "photo.jpg")

	_, err := s.Put(ctx, first, "image/jpeg", bytes.NewReader([]byte("one")))
	require.NoError(t, err)
	_, err = s.Put(ctx, second, "image/jpeg", bytes.NewReader([]byte("two")))
	require.NoError(t, err)

	obj, err := s.Open(ctx, first)
	require.NoError(t, err)
	got, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "one", string(got))
}

func TestStore_DefaultContentType(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.Put(ctx, "pets/a", "", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	obj, err := s.Open(ctx, "pets/a")
	require.NoError(t, err)
	assert.Equal(t, blob.DefaultContentType, obj.ContentType)
}

func TestStore_OpenMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Open(context.Background(), "pets/nope.jpg")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestStore_RejectsBadKeys(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Put(context.Background(), "../escape", "text/plain", bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestStore_CanceledContext(t *testing.T) {
	s := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, "pets/a.jpg", "image/jpeg", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, context.Canceled)
}
