package apperr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// FromDB converts a storage error into a domain error. what names the
// entity for messages ("applicant", "course").
func FromDB(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("%s not found", what)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Wrap(KindConflict, what+" already exists", err)
	}

	// pgx
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		if k, msg, ok := fromSQLState(pgxErr.Code, what); ok {
			return Wrap(k, msg, err)
		}
	}
	// lib/pq
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if k, msg, ok := fromSQLState(string(pqErr.Code), what); ok {
			return Wrap(k, msg, err)
		}
	}

	// drivers that only expose text (sqlite)
	low := strings.ToLower(err.Error())
	if strings.Contains(low, "unique constraint") || strings.Contains(low, "duplicate key") {
		return Wrap(KindConflict, what+" already exists", err)
	}

	return Wrap(KindInternal, what+" storage failure", err)
}

func fromSQLState(code, what string) (Kind, string, bool) {
	switch code {
	case "23505":
		return KindConflict, what + " already exists", true
	case "23503":
		return KindValidation, what + " references a missing record", true
	case "23514":
		return KindValidation, what + " violates a check constraint", true
	}
	return "", "", false
}
