// Package repository implements the PostgreSQL persistence layer: one
// repository per entity, batched page writes via COPY inside a transaction,
// and the loyalty-points aggregation query.
package repository

import (
	"errors"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes that surface as a client-correctable conflict.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateSaveError maps duplicate-key and foreign-key violations onto the
// API's data-integrity error; anything else passes through untouched.
func translateSaveError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation:
			msg := pgErr.Detail
			if msg == "" {
				msg = pgErr.Message
			}
			return apperror.DataIntegrity(msg)
		}
	}
	return err
}
