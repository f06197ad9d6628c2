package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate is returned when an insert hits a unique constraint. The
// attendance store relies on this to make the append atomic: either a new
// record is created or the caller learns a matching one already exists.
var ErrDuplicate = errors.New("duplicate row")

// HandleNotFound processes a database query result, converting sql.ErrNoRows
// to a nil result without error. This is a common pattern for Find* operations
// where a missing row is not an error condition.
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
