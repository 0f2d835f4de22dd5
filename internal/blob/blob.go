// Package blob stores uploaded images and hands back URLs that resolve to them.
package blob

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

const DefaultContentType = "application/octet-stream"

// Store writes an object and returns a URL a client can fetch it from.
// Implementations must be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (url string, err error)
}

// Object is what a readable backend hands back for serving.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type Opener interface {
	Open(ctx context.Context, key string) (Object, error)
}

// NewObjectKey builds "<prefix>/<uuid><ext>". The client filename only
// contributes its extension, so two uploads of "photo.jpg" never collide.
func NewObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))

	if len(ext) > 10 || strings.ContainsAny(ext, "/?#% ") {
		ext = ""
	}

	key := uuid.NewString() + ext

	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}

	return prefix + "/" + key
}

// ValidKey rejects keys that could escape the namespace when used in a path.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}

	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}

	return true
}

type observedStore struct {
	next    Store
	observe func(op string, fn func() error) error
}

// Observed wraps a store so every Put goes through observe (metrics).
func Observed(next Store, observe func(op string, fn func() error) error) Store {
	if observe == nil {
		return next
	}
	return &observedStore{next: next, observe: observe}
}

func (o *observedStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	var url string

	err := o.observe("put", func() error {
		var err error
		url, err = o.next.Put(ctx, key, contentType, r)
		return err
	})

	return url, err
}
