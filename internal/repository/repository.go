package repository

import (
	"context"
	"time"

	"docmgmt/internal/model"
)

// DepartmentRepository persists departments. There is no delete; departments are deactivated.
type DepartmentRepository interface {
	Create(ctx context.Context, d *model.Department) (*model.Department, error)
	FindByID(ctx context.Context, id string) (*model.Department, error)
	List(ctx context.Context, activeOnly bool) ([]model.Department, error)
	SetActive(ctx context.Context, id string, active bool) (*model.Department, error)
}

// CategoryRepository persists categories. (code, department_id) uniqueness is enforced by
// the database; a duplicate insert fails with *model.ConflictError.
type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) (*model.Category, error)
	FindByID(ctx context.Context, id string) (*model.Category, error)
	// FindByName matches name case-insensitively within the department.
	FindByName(ctx context.Context, departmentID, name string) (*model.Category, error)
	FindByCode(ctx context.Context, departmentID, code string) (*model.Category, error)
	List(ctx context.Context, departmentID string, activeOnly bool) ([]model.Category, error)
	SetActive(ctx context.Context, id string, active bool) (*model.Category, error)
}

// TypeRepository persists document types. Code uniqueness is global.
type TypeRepository interface {
	Create(ctx context.Context, t *model.DocumentType) (*model.DocumentType, error)
	FindByID(ctx context.Context, id string) (*model.DocumentType, error)
	FindByName(ctx context.Context, name string) (*model.DocumentType, error)
	FindByCode(ctx context.Context, code string) (*model.DocumentType, error)
	// List filters by department at query time only: types used by documents of that department.
	List(ctx context.Context, departmentID string, activeOnly bool) ([]model.DocumentType, error)
	SetActive(ctx context.Context, id string, active bool) (*model.DocumentType, error)
}

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// Update writes doc only if the stored version still equals expectedVersion, bumping
	// the version by one. A lost race yields *model.ConflictError, a missing row *model.NotFoundError.
	Update(ctx context.Context, doc *model.Document, expectedVersion int) (*model.Document, error)

	// Search returns a page of documents matching the filter and the total count.
	Search(ctx context.Context, f DocumentFilter, pq PageQuery) (*PageResult[model.Document], error)

	// Delete removes a document by ID. Missing rows yield *model.NotFoundError.
	Delete(ctx context.Context, id string) error
}

// DocumentFilter holds the structured and free-text search criteria. Zero values are ignored.
type DocumentFilter struct {
	DepartmentID   string
	CategoryID     string
	TypeID         string
	Status         model.Status
	Movement       model.Movement
	Tag            string
	ProtocolNumber string
	StorageID      string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Query          string
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
