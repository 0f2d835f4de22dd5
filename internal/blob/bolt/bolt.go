// Package bolt is an embedded blob backend for local runs and tests. Objects
// live in a single bbolt file and are served back by the API under /uploads.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/pethub/internal/blob"
	bolt "go.etcd.io/bbolt"
)

var (
	objectsBucket = []byte("objects")
	typesBucket   = []byte("content_types")
)

type Store struct {
	db      *bolt.DB
	baseURL string
}

// New opens (or creates) the bbolt file. baseURL is the public root of the
// API, e.g. "http://localhost:3010"; object URLs are baseURL + "/uploads/" + key.
func New(path, baseURL string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})

	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{objectsBucket, typesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Store{db: db, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if !blob.ValidKey(key) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	if contentType == "" {
		contentType = blob.DefaultContentType
	}

	data, err := io.ReadAll(r)

	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	// bbolt has no cancellation; check once before taking the write lock.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(objectsBucket).Put([]byte(key), data); err != nil {
			return err
		}
		return tx.Bucket(typesBucket).Put([]byte(key), []byte(contentType))
	})

	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	return s.URL(key), nil
}

func (s *Store) Open(ctx context.Context, key string) (blob.Object, error) {
	if err := ctx.Err(); err != nil {
		return blob.Object{}, err
	}

	var data []byte
	var contentType string

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(objectsBucket).Get([]byte(key))
		if v == nil {
			return blob.ErrNotFound
		}

		// values are only valid inside the transaction
		data = append([]byte(nil), v...)
		contentType = string(tx.Bucket(typesBucket).Get([]byte(key)))
		return nil
	})

	if err != nil {
		return blob.Object{}, err
	}

	if contentType == "" {
		contentType = blob.DefaultContentType
	}

	return blob.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (s *Store) URL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}

	return s.baseURL + "/uploads/" + strings.Join(parts, "/")
}
