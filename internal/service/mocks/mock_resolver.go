package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docmgmt/internal/model"
	"docmgmt/internal/service"
)

type MockResolver struct {
	mock.Mock
}

var _ service.Resolver = (*MockResolver)(nil)

func (m *MockResolver) ResolveCategory(ctx context.Context, name, departmentID string) (*model.Category, error) {
	args := m.Called(ctx, name, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockResolver) ResolveType(ctx context.Context, name string) (*model.DocumentType, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentType), args.Error(1)
}

func (m *MockResolver) UploadDocument(ctx context.Context, actor string, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockResolver) Ingest(ctx context.Context, actor string, file service.FileUpload, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, actor, file, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}
