package aggregates

import (
	"context"
	"errors"
	"strings"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// MapError folds store and driver failures into the catalog error taxonomy.
// Errors that already carry a catalog code pass through (gaining subject if absent).
func MapError(op, subject string, err error) error {
	if err == nil {
		return nil
	}
	if types.CodeOf(err) != "" {
		return types.Wrap(types.CodePersistence, op, subject, err)
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return types.Wrap(types.CodeNotFound, op, subject, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.Wrap(types.CodePersistence, op, subject, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return types.NewError(types.CodePersistence, op, subject, "unique violation on "+pgErr.ConstraintName, err)
		case "23503":
			return types.NewError(types.CodePersistence, op, subject, "foreign key violation on "+pgErr.ConstraintName, err)
		}
	}
	return types.Wrap(types.CodePersistence, op, subject, err)
}

// IsUniqueViolation reports duplicate-key failures from either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}
