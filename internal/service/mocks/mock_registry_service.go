package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docmgmt/internal/model"
	"docmgmt/internal/service"
)

type MockRegistryService struct {
	mock.Mock
}

var _ service.RegistryService = (*MockRegistryService)(nil)

func (m *MockRegistryService) CreateDepartment(ctx context.Context, in service.DepartmentInput) (*model.Department, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockRegistryService) GetDepartment(ctx context.Context, id string) (*model.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockRegistryService) ListDepartments(ctx context.Context, activeOnly bool) ([]model.Department, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Department), args.Error(1)
}

func (m *MockRegistryService) SetDepartmentActive(ctx context.Context, id string, active bool) (*model.Department, error) {
	args := m.Called(ctx, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *MockRegistryService) CreateCategory(ctx context.Context, in service.CategoryInput) (*model.Category, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockRegistryService) ListCategories(ctx context.Context, departmentID string, activeOnly bool) ([]model.Category, error) {
	args := m.Called(ctx, departmentID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockRegistryService) SetCategoryActive(ctx context.Context, id string, active bool) (*model.Category, error) {
	args := m.Called(ctx, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockRegistryService) CreateType(ctx context.Context, in service.TypeInput) (*model.DocumentType, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentType), args.Error(1)
}

func (m *MockRegistryService) ListTypes(ctx context.Context, departmentID string, activeOnly bool) ([]model.DocumentType, error) {
	args := m.Called(ctx, departmentID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentType), args.Error(1)
}

func (m *MockRegistryService) SetTypeActive(ctx context.Context, id string, active bool) (*model.DocumentType, error) {
	args := m.Called(ctx, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentType), args.Error(1)
}
