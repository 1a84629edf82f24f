package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Partial unique indexes guarding the one-open-offer invariants.
const (
	constraintPendingLoad   = "ux_assignments_pending_load"
	constraintPendingDriver = "ux_assignments_pending_driver"
)

// IsDuplicate - signals that the error is a duplicate key violation.
func IsDuplicate(err error) bool {
	var pgerr *pgconn.PgError
	return errors.As(err, &pgerr) && pgerr.Code == "23505"
}

// violatedConstraint returns the constraint name of a unique violation, if any.
func violatedConstraint(err error) string {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return pgerr.ConstraintName
	}
	return ""
}

// IsNotFound - signals that the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
