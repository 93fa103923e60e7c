package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

// Constraint names are part of the contract with repository.MapError, which turns
// violations of them into field-level validation or conflict errors.
var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_departments",
		SQL: `CREATE TABLE IF NOT EXISTS departments (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name        TEXT        NOT NULL,
  code        TEXT        NOT NULL,
  description TEXT,
  active      BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT uq_departments_code UNIQUE (code),
  CONSTRAINT ck_departments_code_upper CHECK (code = upper(code))
);`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            TEXT        PRIMARY KEY,
  name          TEXT        NOT NULL,
  email         TEXT        NOT NULL,
  department_id UUID        REFERENCES departments (id),
  active        BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT uq_users_email UNIQUE (email)
);`,
	},
	{
		Name: "create_table_categories",
		SQL: `CREATE TABLE IF NOT EXISTS categories (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name          TEXT        NOT NULL,
  code          TEXT        NOT NULL,
  description   TEXT,
  department_id UUID        NOT NULL CONSTRAINT fk_categories_department REFERENCES departments (id),
  color         TEXT,
  icon          TEXT,
  active        BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT uq_categories_code_department UNIQUE (code, department_id),
  CONSTRAINT ck_categories_code_upper CHECK (code = upper(code))
);`,
	},
	{
		Name: "create_index_categories_department_lower_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_categories_department_lower_name ON categories (department_id, lower(name));`,
	},
	{
		Name: "create_table_document_types",
		SQL: `CREATE TABLE IF NOT EXISTS document_types (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name        TEXT        NOT NULL,
  code        TEXT        NOT NULL,
  description TEXT,
  color       TEXT,
  icon        TEXT,
  active      BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT uq_document_types_code UNIQUE (code),
  CONSTRAINT ck_document_types_code_upper CHECK (code = upper(code))
);`,
	},
	{
		Name: "create_index_document_types_lower_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_types_lower_name ON document_types (lower(name));`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                 UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title              TEXT        NOT NULL,
  description        TEXT,
  department_id      UUID        NOT NULL CONSTRAINT fk_documents_department REFERENCES departments (id),
  category_id        UUID        NOT NULL CONSTRAINT fk_documents_category REFERENCES categories (id),
  type_id            UUID        NOT NULL CONSTRAINT fk_documents_type REFERENCES document_types (id),
  status             TEXT        NOT NULL DEFAULT 'rascunho',
  file_storage_id    TEXT        NOT NULL,
  file_url           TEXT        NOT NULL,
  file_secure_url    TEXT        NOT NULL,
  file_original_name TEXT        NOT NULL,
  file_format        TEXT        NOT NULL,
  file_size_bytes    BIGINT      NOT NULL,
  file_uploaded_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  received_at        TIMESTAMPTZ,
  sent_at            TIMESTAMPTZ,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
  due_at             TIMESTAMPTZ,
  protocol_number    TEXT,
  reference_number   TEXT,
  subject            TEXT,
  sender             TEXT,
  recipient          TEXT,
  tags               JSONB       NOT NULL DEFAULT '[]'::jsonb,
  created_by         TEXT        NOT NULL,
  updated_by         TEXT,
  version            INTEGER     NOT NULL DEFAULT 1,
  search_vector      TSVECTOR    NOT NULL DEFAULT ''::tsvector,
  system_created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  system_updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT ck_documents_status CHECK (status IN ('rascunho', 'pendente', 'aprovado', 'rejeitado', 'arquivado')),
  CONSTRAINT ck_documents_movement CHECK (NOT (received_at IS NOT NULL AND sent_at IS NOT NULL)),
  CONSTRAINT ck_documents_file_size CHECK (file_size_bytes > 0),
  CONSTRAINT ck_documents_version CHECK (version >= 1)
);`,
	},
	{
		Name: "create_index_documents_protocol_number",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS uq_documents_protocol_number ON documents (protocol_number) WHERE protocol_number IS NOT NULL;`,
	},
	{
		Name: "create_index_documents_department",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_department ON documents (department_id);`,
	},
	{
		Name: "create_index_documents_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_type ON documents (type_id);`,
	},
	{
		Name: "create_index_documents_category",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_category ON documents (category_id);`,
	},
	{
		Name: "create_index_documents_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status);`,
	},
	{
		Name: "create_index_documents_received_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_received_at ON documents (received_at DESC);`,
	},
	{
		Name: "create_index_documents_sent_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_sent_at ON documents (sent_at DESC);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at DESC);`,
	},
	{
		Name: "create_index_documents_tags",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_tags ON documents USING GIN (tags jsonb_path_ops);`,
	},
	{
		Name: "create_index_documents_file_storage_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_file_storage_id ON documents (file_storage_id);`,
	},
	{
		Name: "create_index_documents_department_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_department_status ON documents (department_id, status);`,
	},
	{
		Name: "create_index_documents_search_vector",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_search_vector ON documents USING GIN (search_vector);`,
	},
}

// Steps returns the names of the migration steps in execution order.
func Steps() []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With("component", "database", "db_host", dbHost)

	log.Info("db_migration_check", "status", "starting")

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			"status", "success",
			"reason", "schema already exists, skipping migration",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.Info("db_migration_start", "status", "in_progress", "steps", len(steps))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Info("db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}
