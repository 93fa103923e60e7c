package postgres

import (
	"context"
	"database/sql"

	"docmgmt/internal/model"
	"docmgmt/internal/repository"
)

// CategoryPostgres is a PostgreSQL implementation of repository.CategoryRepository.
type CategoryPostgres struct {
	db *sql.DB
}

// NewCategoryPostgres creates a new CategoryPostgres repository.
func NewCategoryPostgres(db *sql.DB) *CategoryPostgres {
	return &CategoryPostgres{db: db}
}

var _ repository.CategoryRepository = (*CategoryPostgres)(nil)

const categoryColumns = `id, name, code, description, department_id, color, icon, active, created_at, updated_at`

func scanCategory(s scanner) (*model.Category, error) {
	var (
		c                 model.Category
		desc, color, icon sql.NullString
	)
	if err := s.Scan(
		&c.ID,
		&c.Name,
		&c.Code,
		&desc,
		&c.DepartmentID,
		&color,
		&icon,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Description = stringPtr(desc)
	c.Color = stringPtr(color)
	c.Icon = stringPtr(icon)
	return &c, nil
}

// Create inserts a category. The uq_categories_code_department constraint turns a
// concurrent or repeated insert into *model.ConflictError.
func (r *CategoryPostgres) Create(ctx context.Context, c *model.Category) (*model.Category, error) {
	const q = `
		INSERT INTO categories (id, name, code, description, department_id, color, icon, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + categoryColumns
	out, err := scanCategory(r.db.QueryRowContext(ctx, q,
		c.ID,
		c.Name,
		c.Code,
		nullString(c.Description),
		c.DepartmentID,
		nullString(c.Color),
		nullString(c.Icon),
		c.Active,
	))
	if err != nil {
		return nil, repository.MapError(err, model.EntityCategory, c.ID)
	}
	return out, nil
}

// FindByID fetches a single category by its ID.
func (r *CategoryPostgres) FindByID(ctx context.Context, id string) (*model.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	out, err := scanCategory(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, repository.MapError(err, model.EntityCategory, id)
	}
	return out, nil
}

// FindByName matches the name case-insensitively within a department.
func (r *CategoryPostgres) FindByName(ctx context.Context, departmentID, name string) (*model.Category, error) {
	const q = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE department_id = $1 AND lower(name) = lower($2)
		ORDER BY active DESC, created_at, id
		LIMIT 1
	`
	out, err := scanCategory(r.db.QueryRowContext(ctx, q, departmentID, name))
	if err != nil {
		return nil, repository.MapError(err, model.EntityCategory, name)
	}
	return out, nil
}

// FindByCode fetches the category holding code within a department.
func (r *CategoryPostgres) FindByCode(ctx context.Context, departmentID, code string) (*model.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories WHERE department_id = $1 AND code = $2`
	out, err := scanCategory(r.db.QueryRowContext(ctx, q, departmentID, code))
	if err != nil {
		return nil, repository.MapError(err, model.EntityCategory, code)
	}
	return out, nil
}

// List returns the categories of a department, or of every department when departmentID is empty.
func (r *CategoryPostgres) List(ctx context.Context, departmentID string, activeOnly bool) ([]model.Category, error) {
	const q = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE ($1 = '' OR department_id::text = $1)
		  AND ($2 = FALSE OR active)
		ORDER BY name, id
	`
	rows, err := r.db.QueryContext(ctx, q, departmentID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetActive toggles the soft lifecycle flag.
func (r *CategoryPostgres) SetActive(ctx context.Context, id string, active bool) (*model.Category, error) {
	const q = `
		UPDATE categories SET active = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + categoryColumns
	out, err := scanCategory(r.db.QueryRowContext(ctx, q, id, active))
	if err != nil {
		return nil, repository.MapError(err, model.EntityCategory, id)
	}
	return out, nil
}
