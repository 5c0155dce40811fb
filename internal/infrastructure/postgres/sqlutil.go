package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// SQLSTATE codes the repositories translate into domain errors.
const (
	numericOutOfRange   pq.ErrorCode = "22003"
	foreignKeyViolation pq.ErrorCode = "23503"
	uniqueViolation     pq.ErrorCode = "23505"
	checkViolation      pq.ErrorCode = "23514"
)

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

type scanner interface {
	Scan(dest ...any) error
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
