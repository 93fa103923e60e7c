package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"docmgmt/internal/model"
	"docmgmt/internal/repository"
)

// memCategories enforces (code, department_id) uniqueness like the database does.
type memCategories struct {
	mu       sync.Mutex
	rows     []model.Category
	onCreate func()
}

func (m *memCategories) Create(_ context.Context, c *model.Category) (*model.Category, error) {
	if m.onCreate != nil {
		m.onCreate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Code == c.Code && r.DepartmentID == c.DepartmentID {
			return nil, &model.ConflictError{Entity: model.EntityCategory, Constraint: "uq_categories_code_department"}
		}
	}
	m.rows = append(m.rows, *c)
	out := *c
	return &out, nil
}

func (m *memCategories) FindByID(_ context.Context, id string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			out := r
			return &out, nil
		}
	}
	return nil, &model.NotFoundError{Entity: model.EntityCategory, ID: id}
}

func (m *memCategories) FindByName(_ context.Context, departmentID, name string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.DepartmentID == departmentID && strings.EqualFold(r.Name, name) {
			out := r
			return &out, nil
		}
	}
	return nil, &model.NotFoundError{Entity: model.EntityCategory, ID: name}
}

func (m *memCategories) FindByCode(_ context.Context, departmentID, code string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.DepartmentID == departmentID && r.Code == code {
			out := r
			return &out, nil
		}
	}
	return nil, &model.NotFoundError{Entity: model.EntityCategory, ID: code}
}

func (m *memCategories) List(_ context.Context, departmentID string, activeOnly bool) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Category{}
	for _, r := range m.rows {
		if (departmentID == "" || r.DepartmentID == departmentID) && (!activeOnly || r.Active) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memCategories) SetActive(ctx context.Context, id string, active bool) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Active = active
			out := m.rows[i]
			return &out, nil
		}
	}
	return nil, &model.NotFoundError{Entity: model.EntityCategory, ID: id}
}

func (m *memCategories) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memDocuments implements the version compare-and-swap of the real repository.
type memDocuments struct {
	mu   sync.Mutex
	rows map[string]*model.Document
}

func newMemDocuments() *memDocuments {
	return &memDocuments{rows: map[string]*model.Document{}}
}

func (m *memDocuments) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[doc.ID] = doc.Clone()
	return doc.Clone(), nil
}

func (m *memDocuments) FindByID(_ context.Context, id string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return nil, &model.NotFoundError{Entity: model.EntityDocument, ID: id}
	}
	return d.Clone(), nil
}

func (m *memDocuments) Update(_ context.Context, doc *model.Document, expectedVersion int) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[doc.ID]
	if !ok {
		return nil, &model.NotFoundError{Entity: model.EntityDocument, ID: doc.ID}
	}
	if cur.Version != expectedVersion {
		return nil, &model.ConflictError{
			Entity:     model.EntityDocument,
			Constraint: "version",
			Message:    fmt.Sprintf("expected version %d, stored version is %d", expectedVersion, cur.Version),
		}
	}
	next := doc.Clone()
	next.Version = cur.Version + 1
	m.rows[doc.ID] = next
	return next.Clone(), nil
}

func (m *memDocuments) Search(context.Context, repository.DocumentFilter, repository.PageQuery) (*repository.PageResult[model.Document], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.Document, 0, len(m.rows))
	for _, d := range m.rows {
		items = append(items, *d.Clone())
	}
	return &repository.PageResult[model.Document]{Items: items, Total: len(items)}, nil
}

func (m *memDocuments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return &model.NotFoundError{Entity: model.EntityDocument, ID: id}
	}
	delete(m.rows, id)
	return nil
}
