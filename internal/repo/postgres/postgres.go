package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// DBObserver times logical DB operations; *observability.Prom satisfies it.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

func observe(obs DBObserver, op string, fn func() error) error {
	if obs == nil {
		return fn()
	}
	return obs.ObserveDB(op, fn)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// transient reports errors that happened before the server saw the query,
// which is the only case where re-running a read is known to be safe.
func transient(err error) bool {
	return pgconn.SafeToRetry(err)
}
