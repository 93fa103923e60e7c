package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"docmgmt/internal/model"
	"docmgmt/internal/repository"
)

// DepartmentInput is the payload of CreateDepartment.
type DepartmentInput struct {
	Name        string  `json:"name" validate:"required"`
	Code        string  `json:"code" validate:"required"`
	Description *string `json:"description,omitempty"`
}

// CategoryInput is the payload of CreateCategory. A blank Code is derived from Name.
type CategoryInput struct {
	Name         string  `json:"name" validate:"required"`
	Code         string  `json:"code" validate:"required"`
	DepartmentID string  `json:"department_id" validate:"required,uuid"`
	Description  *string `json:"description,omitempty"`
	Color        *string `json:"color,omitempty"`
	Icon         *string `json:"icon,omitempty"`
}

// TypeInput is the payload of CreateType. A blank Code is derived from Name.
type TypeInput struct {
	Name        string  `json:"name" validate:"required"`
	Code        string  `json:"code" validate:"required"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	Icon        *string `json:"icon,omitempty"`
}

// RegistryService manages the controlled vocabularies documents are classified by.
// Nothing here is ever physically deleted; records are deactivated instead.
type RegistryService interface {
	CreateDepartment(ctx context.Context, in DepartmentInput) (*model.Department, error)
	GetDepartment(ctx context.Context, id string) (*model.Department, error)
	ListDepartments(ctx context.Context, activeOnly bool) ([]model.Department, error)
	SetDepartmentActive(ctx context.Context, id string, active bool) (*model.Department, error)

	// CreateCategory fails with *model.ConflictError when the code already exists in the department.
	CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error)
	ListCategories(ctx context.Context, departmentID string, activeOnly bool) ([]model.Category, error)
	SetCategoryActive(ctx context.Context, id string, active bool) (*model.Category, error)

	// CreateType fails with *model.ConflictError when the code already exists anywhere.
	CreateType(ctx context.Context, in TypeInput) (*model.DocumentType, error)
	// ListTypes narrows to types used within departmentID when it is set.
	ListTypes(ctx context.Context, departmentID string, activeOnly bool) ([]model.DocumentType, error)
	SetTypeActive(ctx context.Context, id string, active bool) (*model.DocumentType, error)
}

type registryService struct {
	departments repository.DepartmentRepository
	categories  repository.CategoryRepository
	types       repository.TypeRepository
	validator   *Validator
}

// NewRegistryService constructs a RegistryService.
func NewRegistryService(
	departments repository.DepartmentRepository,
	categories repository.CategoryRepository,
	types repository.TypeRepository,
	v *Validator,
) RegistryService {
	return &registryService{departments: departments, categories: categories, types: types, validator: v}
}

func (s *registryService) CreateDepartment(ctx context.Context, in DepartmentInput) (_ *model.Department, err error) {
	ctx, span := tracer.Start(ctx, "RegistryService.CreateDepartment")
	defer func() { endSpan(span, err) }()

	in.Name = strings.TrimSpace(in.Name)
	in.Code = NormalizeCode(in.Code)
	if err := s.validator.Struct(in).OrNil(); err != nil {
		return nil, err
	}

	return s.departments.Create(ctx, &model.Department{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		Active:      true,
	})
}

func (s *registryService) GetDepartment(ctx context.Context, id string) (*model.Department, error) {
	if err := checkID(model.EntityDepartment, id); err != nil {
		return nil, err
	}
	return s.departments.FindByID(ctx, id)
}

func (s *registryService) ListDepartments(ctx context.Context, activeOnly bool) ([]model.Department, error) {
	return s.departments.List(ctx, activeOnly)
}

func (s *registryService) SetDepartmentActive(ctx context.Context, id string, active bool) (*model.Department, error) {
	if err := checkID(model.EntityDepartment, id); err != nil {
		return nil, err
	}
	return s.departments.SetActive(ctx, id, active)
}

func (s *registryService) CreateCategory(ctx context.Context, in CategoryInput) (_ *model.Category, err error) {
	ctx, span := tracer.Start(ctx, "RegistryService.CreateCategory")
	defer func() { endSpan(span, err) }()

	in.Name = strings.TrimSpace(in.Name)
	in.Code = codeOrDerived(in.Code, in.Name)
	if err := s.validator.Struct(in).OrNil(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("category.code", in.Code), attribute.String("department.id", in.DepartmentID))

	return s.categories.Create(ctx, &model.Category{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Code:         in.Code,
		Description:  in.Description,
		DepartmentID: in.DepartmentID,
		Color:        in.Color,
		Icon:         in.Icon,
		Active:       true,
	})
}

func (s *registryService) ListCategories(ctx context.Context, departmentID string, activeOnly bool) ([]model.Category, error) {
	return s.categories.List(ctx, departmentID, activeOnly)
}

func (s *registryService) SetCategoryActive(ctx context.Context, id string, active bool) (*model.Category, error) {
	if err := checkID(model.EntityCategory, id); err != nil {
		return nil, err
	}
	return s.categories.SetActive(ctx, id, active)
}

func (s *registryService) CreateType(ctx context.Context, in TypeInput) (_ *model.DocumentType, err error) {
	ctx, span := tracer.Start(ctx, "RegistryService.CreateType")
	defer func() { endSpan(span, err) }()

	in.Name = strings.TrimSpace(in.Name)
	in.Code = codeOrDerived(in.Code, in.Name)
	if err := s.validator.Struct(in).OrNil(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("type.code", in.Code))

	return s.types.Create(ctx, &model.DocumentType{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
		Active:      true,
	})
}

func (s *registryService) ListTypes(ctx context.Context, departmentID string, activeOnly bool) ([]model.DocumentType, error) {
	return s.types.List(ctx, departmentID, activeOnly)
}

func (s *registryService) SetTypeActive(ctx context.Context, id string, active bool) (*model.DocumentType, error) {
	if err := checkID(model.EntityType, id); err != nil {
		return nil, err
	}
	return s.types.SetActive(ctx, id, active)
}

func codeOrDerived(code, name string) string {
	if code = NormalizeCode(code); code != "" {
		return code
	}
	return DeriveCode(name)
}
