package postgres

import (
	"context"
	"database/sql"

	"docmgmt/internal/model"
	"docmgmt/internal/repository"
)

// DepartmentPostgres is a PostgreSQL implementation of repository.DepartmentRepository.
type DepartmentPostgres struct {
	db *sql.DB
}

// NewDepartmentPostgres creates a new DepartmentPostgres repository.
func NewDepartmentPostgres(db *sql.DB) *DepartmentPostgres {
	return &DepartmentPostgres{db: db}
}

var _ repository.DepartmentRepository = (*DepartmentPostgres)(nil)

const departmentColumns = `id, name, code, description, active, created_at, updated_at`

func scanDepartment(s scanner) (*model.Department, error) {
	var (
		d    model.Department
		desc sql.NullString
	)
	if err := s.Scan(&d.ID, &d.Name, &d.Code, &desc, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Description = stringPtr(desc)
	return &d, nil
}

// Create inserts a department. A duplicate code yields *model.ConflictError.
func (r *DepartmentPostgres) Create(ctx context.Context, d *model.Department) (*model.Department, error) {
	const q = `
		INSERT INTO departments (id, name, code, description, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + departmentColumns
	out, err := scanDepartment(r.db.QueryRowContext(ctx, q, d.ID, d.Name, d.Code, nullString(d.Description), d.Active))
	if err != nil {
		return nil, repository.MapError(err, model.EntityDepartment, d.ID)
	}
	return out, nil
}

// FindByID fetches a single department by its ID.
func (r *DepartmentPostgres) FindByID(ctx context.Context, id string) (*model.Department, error) {
	const q = `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`
	out, err := scanDepartment(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, repository.MapError(err, model.EntityDepartment, id)
	}
	return out, nil
}

// List returns departments ordered by name.
func (r *DepartmentPostgres) List(ctx context.Context, activeOnly bool) ([]model.Department, error) {
	const q = `
		SELECT ` + departmentColumns + `
		FROM departments
		WHERE ($1 = FALSE OR active)
		ORDER BY name, id
	`
	rows, err := r.db.QueryContext(ctx, q, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetActive toggles the soft lifecycle flag.
func (r *DepartmentPostgres) SetActive(ctx context.Context, id string, active bool) (*model.Department, error) {
	const q = `
		UPDATE departments SET active = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + departmentColumns
	out, err := scanDepartment(r.db.QueryRowContext(ctx, q, id, active))
	if err != nil {
		return nil, repository.MapError(err, model.EntityDepartment, id)
	}
	return out, nil
}
