package postgres

import (
	"context"
	"database/sql"

	"docmgmt/internal/model"
	"docmgmt/internal/repository"
)

// TypePostgres is a PostgreSQL implementation of repository.TypeRepository.
type TypePostgres struct {
	db *sql.DB
}

// NewTypePostgres creates a new TypePostgres repository.
func NewTypePostgres(db *sql.DB) *TypePostgres {
	return &TypePostgres{db: db}
}

var _ repository.TypeRepository = (*TypePostgres)(nil)

const typeColumns = `id, name, code, description, color, icon, active, created_at, updated_at`

func scanType(s scanner) (*model.DocumentType, error) {
	var (
		t                 model.DocumentType
		desc, color, icon sql.NullString
	)
	if err := s.Scan(&t.ID, &t.Name, &t.Code, &desc, &color, &icon, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Description = stringPtr(desc)
	t.Color = stringPtr(color)
	t.Icon = stringPtr(icon)
	return &t, nil
}

// Create inserts a document type. uq_document_types_code makes duplicates fail with *model.ConflictError.
func (r *TypePostgres) Create(ctx context.Context, t *model.DocumentType) (*model.DocumentType, error) {
	const q = `
		INSERT INTO document_types (id, name, code, description, color, icon, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + typeColumns
	out, err := scanType(r.db.QueryRowContext(ctx, q,
		t.ID,
		t.Name,
		t.Code,
		nullString(t.Description),
		nullString(t.Color),
		nullString(t.Icon),
		t.Active,
	))
	if err != nil {
		return nil, repository.MapError(err, model.EntityType, t.ID)
	}
	return out, nil
}

// FindByID fetches a single document type by its ID.
func (r *TypePostgres) FindByID(ctx context.Context, id string) (*model.DocumentType, error) {
	const q = `SELECT ` + typeColumns + ` FROM document_types WHERE id = $1`
	out, err := scanType(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, repository.MapError(err, model.EntityType, id)
	}
	return out, nil
}

// FindByName matches the name case-insensitively.
func (r *TypePostgres) FindByName(ctx context.Context, name string) (*model.DocumentType, error) {
	const q = `
		SELECT ` + typeColumns + `
		FROM document_types
		WHERE lower(name) = lower($1)
		ORDER BY active DESC, created_at, id
		LIMIT 1
	`
	out, err := scanType(r.db.QueryRowContext(ctx, q, name))
	if err != nil {
		return nil, repository.MapError(err, model.EntityType, name)
	}
	return out, nil
}

// FindByCode fetches the type holding code.
func (r *TypePostgres) FindByCode(ctx context.Context, code string) (*model.DocumentType, error) {
	const q = `SELECT ` + typeColumns + ` FROM document_types WHERE code = $1`
	out, err := scanType(r.db.QueryRowContext(ctx, q, code))
	if err != nil {
		return nil, repository.MapError(err, model.EntityType, code)
	}
	return out, nil
}

// List returns every type, or with departmentID only the types already used by documents
// filed under that department. The department scope is a query filter, not a stored relation.
func (r *TypePostgres) List(ctx context.Context, departmentID string, activeOnly bool) ([]model.DocumentType, error) {
	const q = `
		SELECT ` + typeColumns + `
		FROM document_types t
		WHERE ($1 = '' OR EXISTS (
			SELECT 1 FROM documents d
			JOIN categories c ON c.id = d.category_id
			WHERE d.type_id = t.id AND c.department_id::text = $1
		))
		  AND ($2 = FALSE OR t.active)
		ORDER BY t.name, t.id
	`
	rows, err := r.db.QueryContext(ctx, q, departmentID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentType, 0)
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetActive toggles the soft lifecycle flag.
func (r *TypePostgres) SetActive(ctx context.Context, id string, active bool) (*model.DocumentType, error) {
	const q = `
		UPDATE document_types SET active = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + typeColumns
	out, err := scanType(r.db.QueryRowContext(ctx, q, id, active))
	if err != nil {
		return nil, repository.MapError(err, model.EntityType, id)
	}
	return out, nil
}
