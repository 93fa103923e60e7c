package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docmgmt/internal/model"
)

var (
	departmentColumnNames = []string{"id", "name", "code", "description", "active", "created_at", "updated_at"}
	categoryColumnNames   = []string{"id", "name", "code", "description", "department_id", "color", "icon", "active", "created_at", "updated_at"}
	typeColumnNames       = []string{"id", "name", "code", "description", "color", "icon", "active", "created_at", "updated_at"}
)

func TestDepartmentPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDepartmentPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("create", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO departments").
			WithArgs("dep-1", "Jurídico", "JURIDICO", nil, true).
			WillReturnRows(sqlmock.NewRows(departmentColumnNames).
				AddRow("dep-1", "Jurídico", "JURIDICO", nil, true, now, now))

		got, err := repo.Create(ctx, &model.Department{ID: "dep-1", Name: "Jurídico", Code: "JURIDICO", Active: true})

		require.NoError(t, err)
		assert.Equal(t, "JURIDICO", got.Code)
		assert.Nil(t, got.Description)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate code", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO departments").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_departments_code"})

		_, err := repo.Create(ctx, &model.Department{ID: "dep-2", Name: "Jurídico", Code: "JURIDICO", Active: true})

		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("list active only", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM departments").
			WithArgs(true).
			WillReturnRows(sqlmock.NewRows(departmentColumnNames).
				AddRow("dep-1", "Jurídico", "JURIDICO", "assuntos legais", true, now, now))

		items, err := repo.List(ctx, true)

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "assuntos legais", *items[0].Description)
	})

	t.Run("deactivate missing", func(t *testing.T) {
		mock.ExpectQuery("UPDATE departments SET active").
			WithArgs("nope", false).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.SetActive(ctx, "nope", false)

		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestCategoryPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCategoryPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("same code in another department is a separate row", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO categories").
			WithArgs("cat-2", "Contratos", "CONTRATOS", nil, "dep-2", nil, nil, true).
			WillReturnRows(sqlmock.NewRows(categoryColumnNames).
				AddRow("cat-2", "Contratos", "CONTRATOS", nil, "dep-2", nil, nil, true, now, now))

		got, err := repo.Create(ctx, &model.Category{ID: "cat-2", Name: "Contratos", Code: "CONTRATOS", DepartmentID: "dep-2", Active: true})

		require.NoError(t, err)
		assert.Equal(t, "dep-2", got.DepartmentID)
	})

	t.Run("duplicate code within department", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO categories").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_categories_code_department"})

		_, err := repo.Create(ctx, &model.Category{ID: "cat-3", Name: "Contratos", Code: "CONTRATOS", DepartmentID: "dep-2", Active: true})

		var ce *model.ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "uq_categories_code_department", ce.Constraint)
	})

	t.Run("unknown department", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO categories").
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "fk_categories_department"})

		_, err := repo.Create(ctx, &model.Category{ID: "cat-4", Name: "X", Code: "X", DepartmentID: "ghost", Active: true})

		var ve *model.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.True(t, ve.Has("department_id"))
	})

	t.Run("find by name ignores case", func(t *testing.T) {
		mock.ExpectQuery(`WHERE department_id = \$1 AND lower\(name\) = lower\(\$2\)`).
			WithArgs("dep-2", "contratos").
			WillReturnRows(sqlmock.NewRows(categoryColumnNames).
				AddRow("cat-2", "Contratos", "CONTRATOS", nil, "dep-2", "#00f", nil, true, now, now))

		got, err := repo.FindByName(ctx, "dep-2", "contratos")

		require.NoError(t, err)
		assert.Equal(t, "cat-2", got.ID)
		assert.Equal(t, "#00f", *got.Color)
	})

	t.Run("find by code missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM categories WHERE department_id = (.+) AND code = ").
			WithArgs("dep-2", "NADA").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByCode(ctx, "dep-2", "NADA")

		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("list by department", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM categories").
			WithArgs("dep-2", false).
			WillReturnRows(sqlmock.NewRows(categoryColumnNames).
				AddRow("cat-2", "Contratos", "CONTRATOS", nil, "dep-2", nil, nil, true, now, now).
				AddRow("cat-5", "Pareceres", "PARECERES", nil, "dep-2", nil, nil, false, now, now))

		items, err := repo.List(ctx, "dep-2", false)

		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.False(t, items[1].Active)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTypePostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTypePostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("global code conflict", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO document_types").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_document_types_code"})

		_, err := repo.Create(ctx, &model.DocumentType{ID: "t-1", Name: "Ofício", Code: "OFICIO", Active: true})

		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("find by code", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_types WHERE code = ").
			WithArgs("OFICIO").
			WillReturnRows(sqlmock.NewRows(typeColumnNames).
				AddRow("t-1", "Ofício", "OFICIO", nil, nil, "mail", true, now, now))

		got, err := repo.FindByCode(ctx, "OFICIO")

		require.NoError(t, err)
		assert.Equal(t, "mail", *got.Icon)
	})

	t.Run("list scoped to department through documents", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_types t WHERE (.+) EXISTS").
			WithArgs("dep-1", true).
			WillReturnRows(sqlmock.NewRows(typeColumnNames).
				AddRow("t-1", "Ofício", "OFICIO", nil, nil, nil, true, now, now))

		items, err := repo.List(ctx, "dep-1", true)

		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("reactivate", func(t *testing.T) {
		mock.ExpectQuery("UPDATE document_types SET active").
			WithArgs("t-1", true).
			WillReturnRows(sqlmock.NewRows(typeColumnNames).
				AddRow("t-1", "Ofício", "OFICIO", nil, nil, nil, true, now, now))

		got, err := repo.SetActive(ctx, "t-1", true)

		require.NoError(t, err)
		assert.True(t, got.Active)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
