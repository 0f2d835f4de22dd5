package retry

import (
	"context"
	"errors"
	"testing"
)

var errFlaky = errors.New("connection reset")

func isFlaky(err error) bool { return errors.Is(err, errFlaky) }

func TestRead_RetriesTransient(t *testing.T) {
	calls := 0

	got, err := Read(context.Background(), isFlaky, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errFlaky
		}
		return 7, nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 || calls != 3 {
		t.Fatalf("got value=%d calls=%d, want 7 and 3", got, calls)
	}
}

func TestRead_StopsOnPermanent(t *testing.T) {
	notFound := errors.New("not found")
	calls := 0

	_, err := Read(context.Background(), isFlaky, func(ctx context.Context) (string, error) {
		calls++
		return "", notFound
	})

	if !errors.Is(err, notFound) {
		t.Fatalf("got %v, want not found", err)
	}
	if calls != 1 {
		t.Fatalf("got %d calls, want 1", calls)
	}
}

func TestRead_GivesUpAfterMaxTries(t *testing.T) {
	calls := 0

	_, err := Read(context.Background(), isFlaky, func(ctx context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})

	if !errors.Is(err, errFlaky) {
		t.Fatalf("got %v, want the last transient error", err)
	}
	if calls != maxTries {
		t.Fatalf("got %d calls, want %d", calls, maxTries)
	}
}

func TestRead_NilClassifierNeverRetries(t *testing.T) {
	calls := 0

	_, _ = Read(context.Background(), nil, func(ctx context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})

	if calls != 1 {
		t.Fatalf("got %d calls, want 1", calls)
	}
}
