package repository

import (
	"errors"

	"artastic/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes that mean the row itself was rejected.
var constraintCodes = map[string]bool{
	"23502": true, // not_null_violation
	"23505": true, // unique_violation
	"23514": true, // check_violation
	"22P02": true, // invalid_text_representation
}

func fetchErr(entity string, err error) error {
	return &apperr.FetchError{Entity: entity, Err: err}
}

func writeErr(entity, op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && constraintCodes[pgErr.Code] {
		err = apperr.Invalid(pgErr.ColumnName, pgErr.Message)
	}
	return &apperr.WriteError{Entity: entity, Op: op, Err: err}
}

func lookupErr(entity, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperr.NotFoundError{Entity: entity, ID: id}
	}
	return fetchErr(entity, err)
}

func missingRow(entity, op string) error {
	return &apperr.WriteError{Entity: entity, Op: op, Err: apperr.ErrNoRows}
}
