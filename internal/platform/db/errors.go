package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"perfcycle/internal/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	// ids are uuid columns; a malformed id cannot name an existing row
	pgInvalidText = "22P02"
)

// MapError classifies errors from inserts, updates and lookups.
func MapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound(entity)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.Conflict(entity, entity+" already exists")
		case pgForeignKeyViolation:
			return apperror.Validation(entity + " references a record that does not exist")
		case pgInvalidText:
			return apperror.NotFound(entity)
		}
	}
	return err
}

// MapDeleteError classifies errors from deletes, where a foreign key
// violation means other records still depend on the row.
func MapDeleteError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return apperror.Conflict(entity, entity+" is still referenced by other records")
	}
	return MapError(err, entity)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
