package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"docmgmt/internal/model"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// constraintFields maps schema constraint names to the payload field they guard.
var constraintFields = map[string]string{
	"fk_categories_department": "department_id",
	"fk_documents_department":  "department_id",
	"fk_documents_category":    "category_id",
	"fk_documents_type":        "type_id",
	"ck_documents_movement":    "sent_at",
	"ck_documents_file_size":   "file.size_bytes",
	"ck_documents_status":      "status",
}

// MapError translates database errors to domain errors.
// sql.ErrNoRows becomes *model.NotFoundError, a unique violation *model.ConflictError carrying
// the constraint name, and foreign key or check violations a *model.ValidationError on the
// guarded field. Other errors are returned unchanged.
func MapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &model.NotFoundError{Entity: entity, ID: id}
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return &model.ConflictError{
			Entity:     entity,
			Constraint: pgErr.ConstraintName,
			Message:    "already exists",
		}
	case pgForeignKeyViolation:
		field := constraintFields[pgErr.ConstraintName]
		if field == "" {
			field = pgErr.ConstraintName
		}
		return model.NewValidationError(field, "exists", "referenced record does not exist")
	case pgCheckViolation:
		field := constraintFields[pgErr.ConstraintName]
		if field == "" {
			field = pgErr.ConstraintName
		}
		return model.NewValidationError(field, "check", "violates "+pgErr.ConstraintName)
	}

	return err
}
