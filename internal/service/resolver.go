package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"docmgmt/internal/metrics"
	"docmgmt/internal/model"
	"docmgmt/internal/repository"
)

// UploadInput is the name-based creation payload: category and type are given by name
// and created on demand.
type UploadInput struct {
	CreateDocumentInput
	CategoryName string `json:"category_name"`
	TypeName     string `json:"type_name"`
}

// FileUpload is a binary waiting to be stored.
type FileUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// Resolver turns human-readable category and type names into registry records,
// creating them when missing, and files documents against them.
type Resolver interface {
	// ResolveCategory returns the category named name (case-insensitive) in departmentID,
	// creating it with a derived code when absent.
	ResolveCategory(ctx context.Context, name, departmentID string) (*model.Category, error)
	// ResolveType is ResolveCategory for the global type registry.
	ResolveType(ctx context.Context, name string) (*model.DocumentType, error)
	// UploadDocument resolves the names, then creates the document. Invalid input is
	// rejected before anything is written.
	UploadDocument(ctx context.Context, actor string, in UploadInput) (*model.Document, error)
	// Ingest stores the file, then runs UploadDocument, removing the file again if that fails.
	Ingest(ctx context.Context, actor string, file FileUpload, in UploadInput) (*model.Document, error)
}

type resolver struct {
	categories repository.CategoryRepository
	types      repository.TypeRepository
	documents  DocumentService
	validator  *Validator
	attempts   int
	metrics    *metrics.Domain
	now        func() time.Time
}

// NewResolver constructs a Resolver. attempts bounds how many times a lost creation race
// is retried; values below one mean one.
func NewResolver(
	categories repository.CategoryRepository,
	types repository.TypeRepository,
	documents DocumentService,
	v *Validator,
	attempts int,
	m *metrics.Domain,
) Resolver {
	if attempts < 1 {
		attempts = 1
	}
	return &resolver{
		categories: categories,
		types:      types,
		documents:  documents,
		validator:  v,
		attempts:   attempts,
		metrics:    m,
		now:        time.Now,
	}
}

func (r *resolver) ResolveCategory(ctx context.Context, name, departmentID string) (_ *model.Category, err error) {
	ctx, span := tracer.Start(ctx, "Resolver.ResolveCategory")
	defer func() { endSpan(span, err) }()

	name = strings.TrimSpace(name)
	ve := &model.ValidationError{}
	code := checkName(ve, "category_name", name)
	if uuid.Validate(departmentID) != nil {
		ve.Add("department_id", "uuid", "must be a valid UUID")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("category.code", code), attribute.String("department.id", departmentID))

	c, outcome, err := resolve(ctx, r.attempts,
		func(ctx context.Context) (*model.Category, error) { return r.categories.FindByName(ctx, departmentID, name) },
		func(ctx context.Context) (*model.Category, error) { return r.categories.FindByCode(ctx, departmentID, code) },
		func(ctx context.Context) (*model.Category, error) {
			return r.categories.Create(ctx, &model.Category{
				ID:           uuid.New().String(),
				Name:         name,
				Code:         code,
				DepartmentID: departmentID,
				Active:       true,
			})
		},
	)
	r.metrics.Resolved(model.EntityCategory, outcome)
	span.SetAttributes(attribute.String("resolve.outcome", outcome))
	return c, err
}

func (r *resolver) ResolveType(ctx context.Context, name string) (_ *model.DocumentType, err error) {
	ctx, span := tracer.Start(ctx, "Resolver.ResolveType")
	defer func() { endSpan(span, err) }()

	name = strings.TrimSpace(name)
	ve := &model.ValidationError{}
	code := checkName(ve, "type_name", name)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("type.code", code))

	t, outcome, err := resolve(ctx, r.attempts,
		func(ctx context.Context) (*model.DocumentType, error) { return r.types.FindByName(ctx, name) },
		func(ctx context.Context) (*model.DocumentType, error) { return r.types.FindByCode(ctx, code) },
		func(ctx context.Context) (*model.DocumentType, error) {
			return r.types.Create(ctx, &model.DocumentType{
				ID:     uuid.New().String(),
				Name:   name,
				Code:   code,
				Active: true,
			})
		},
	)
	r.metrics.Resolved(model.EntityType, outcome)
	span.SetAttributes(attribute.String("resolve.outcome", outcome))
	return t, err
}

// checkName records why name cannot be resolved and returns its derived code.
func checkName(ve *model.ValidationError, field, name string) string {
	if name == "" {
		ve.Add(field, "required", "is required")
		return ""
	}
	code := DeriveCode(name)
	if code == "" {
		ve.Add(field, "code", "must contain at least one letter or digit")
	}
	return code
}

// resolve is a get-or-create bounded by attempts. Uniqueness lives in the database, so a
// concurrent creator makes create fail with a conflict; the row that won is then looked up
// by name and by code. When every attempt loses, the last conflict is returned.
func resolve[T any](
	ctx context.Context,
	attempts int,
	byName, byCode, create func(context.Context) (*T, error),
) (*T, string, error) {
	var conflict error
	for attempt := 0; attempt < attempts; attempt++ {
		lookups := []func(context.Context) (*T, error){byName}
		if conflict != nil {
			lookups = append(lookups, byCode)
		}
		for _, find := range lookups {
			found, err := find(ctx)
			if err == nil {
				if conflict != nil {
					return found, metrics.OutcomeRaced, nil
				}
				return found, metrics.OutcomeFound, nil
			}
			if !errors.Is(err, model.ErrNotFound) {
				return nil, metrics.OutcomeFailed, err
			}
		}

		created, err := create(ctx)
		if err == nil {
			return created, metrics.OutcomeCreated, nil
		}
		if !errors.Is(err, model.ErrConflict) {
			return nil, metrics.OutcomeFailed, err
		}
		conflict = err
	}
	return nil, metrics.OutcomeFailed, conflict
}

// precheck collects every input problem that would make the upload fail, so that no
// registry row or file is written for a doomed request. except names document fields
// that are not known yet.
func (r *resolver) precheck(actor string, in UploadInput, except ...string) error {
	ve := r.validator.document(in.document(), r.now().UTC(), true, except...)
	checkName(ve, "category_name", strings.TrimSpace(in.CategoryName))
	checkName(ve, "type_name", strings.TrimSpace(in.TypeName))
	if actor == "" {
		ve.Add("created_by", "required", "acting user is required")
	}
	return ve.OrNil()
}

func (r *resolver) UploadDocument(ctx context.Context, actor string, in UploadInput) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "Resolver.UploadDocument")
	defer func() { endSpan(span, err) }()

	if err := r.precheck(actor, in, "CategoryID", "TypeID"); err != nil {
		return nil, err
	}

	category, err := r.ResolveCategory(ctx, in.CategoryName, in.DepartmentID)
	if err != nil {
		return nil, err
	}
	docType, err := r.ResolveType(ctx, in.TypeName)
	if err != nil {
		return nil, err
	}

	create := in.CreateDocumentInput
	create.CategoryID = category.ID
	create.TypeID = docType.ID
	return r.documents.Create(ctx, actor, create)
}

func (r *resolver) Ingest(ctx context.Context, actor string, file FileUpload, in UploadInput) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "Resolver.Ingest")
	defer func() { endSpan(span, err) }()

	if err := r.precheck(actor, in, "CategoryID", "TypeID", "File"); err != nil {
		return nil, err
	}

	fd, err := r.documents.StoreFile(ctx, file.Reader, file.Filename, file.ContentType, file.Size)
	if err != nil {
		return nil, err
	}
	in.File = *fd

	doc, err := r.UploadDocument(ctx, actor, in)
	if err != nil {
		// Rollback: the stored object is not referenced by any document.
		// It must run even when the request was cancelled.
		if delErr := r.documents.DiscardFile(context.WithoutCancel(ctx), fd.StorageID); delErr != nil {
			return nil, fmt.Errorf("%w; rollback delete failed: %v", err, delErr)
		}
		return nil, err
	}
	return doc, nil
}
