// Package gcs stores images in a Google Cloud Storage (Firebase Storage) bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/geocoder89/pethub/internal/blob"
	"google.golang.org/api/option"
)

const publicHost = "https://storage.googleapis.com"

type Config struct {
	Bucket          string
	CredentialsFile string // empty uses application default credentials
}

type Store struct {
	client *storage.Client
	bucket string
}

// New builds the client once; it is shared by every request.
// STORAGE_EMULATOR_HOST is honored by the client library for local runs.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs: bucket name is required")
	}

	var opts []option.ClientOption

	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)

	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if !blob.ValidKey(key) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	if contentType == "" {
		contentType = blob.DefaultContentType
	}

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	// keys are unique per upload, so the object never changes
	w.CacheControl = "public, max-age=31536000, immutable"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	// the object only exists once Close succeeds
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", key, err)
	}

	return PublicURL(s.bucket, key), nil
}

// PublicURL is the stable public path of an object. Reading it requires the
// bucket (or object) to grant allUsers read access.
func PublicURL(bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}

	return publicHost + "/" + bucket + "/" + strings.Join(parts, "/")
}
