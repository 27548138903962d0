// Package repository provides database access for cards, users and card
// block requests. Storage-specific failure modes (missing rows, unique
// violations) are translated into the apperrors sentinels so the service
// layer never sees driver errors.
package repository

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for a unique constraint breach
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
