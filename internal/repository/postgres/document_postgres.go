package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docmgmt/internal/model"
	"docmgmt/internal/repository"
)

// searchConfig is the PostgreSQL text search configuration used for the full-text index.
const searchConfig = "portuguese"

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, title, description, department_id, category_id, type_id, status,
	file_storage_id, file_url, file_secure_url, file_original_name, file_format, file_size_bytes, file_uploaded_at,
	received_at, sent_at, created_at, due_at,
	protocol_number, reference_number, subject, sender, recipient,
	tags, created_by, updated_by, version, system_created_at, system_updated_at`

func scanDocument(s scanner) (*model.Document, error) {
	var (
		d                                         model.Document
		description, protocol, reference, subject sql.NullString
		sender, recipient, updatedBy              sql.NullString
		receivedAt, sentAt, dueAt                 sql.NullTime
		tags                                      []byte
	)
	if err := s.Scan(
		&d.ID,
		&d.Title,
		&description,
		&d.DepartmentID,
		&d.CategoryID,
		&d.TypeID,
		&d.Status,
		&d.File.StorageID,
		&d.File.URL,
		&d.File.SecureURL,
		&d.File.OriginalName,
		&d.File.Format,
		&d.File.SizeBytes,
		&d.File.UploadedAt,
		&receivedAt,
		&sentAt,
		&d.CreatedAt,
		&dueAt,
		&protocol,
		&reference,
		&subject,
		&sender,
		&recipient,
		&tags,
		&d.CreatedBy,
		&updatedBy,
		&d.Version,
		&d.SystemCreatedAt,
		&d.SystemUpdatedAt,
	); err != nil {
		return nil, err
	}

	d.Description = stringPtr(description)
	d.ReceivedAt = timePtr(receivedAt)
	d.SentAt = timePtr(sentAt)
	d.DueAt = timePtr(dueAt)
	d.ProtocolNumber = stringPtr(protocol)
	d.ReferenceNumber = stringPtr(reference)
	d.Subject = stringPtr(subject)
	d.Sender = stringPtr(sender)
	d.Recipient = stringPtr(recipient)
	d.UpdatedBy = stringPtr(updatedBy)

	d.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &d, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (
			id, title, description, department_id, category_id, type_id, status,
			file_storage_id, file_url, file_secure_url, file_original_name, file_format, file_size_bytes, file_uploaded_at,
			received_at, sent_at, created_at, due_at,
			protocol_number, reference_number, subject, sender, recipient,
			tags, created_by, version, search_vector
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24::jsonb, $25, $26, to_tsvector('` + searchConfig + `', $27))
		RETURNING ` + documentColumns

	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return nil, err
	}

	out, err := scanDocument(r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		nullString(doc.Description),
		doc.DepartmentID,
		doc.CategoryID,
		doc.TypeID,
		string(doc.Status),
		doc.File.StorageID,
		doc.File.URL,
		doc.File.SecureURL,
		doc.File.OriginalName,
		doc.File.Format,
		doc.File.SizeBytes,
		doc.File.UploadedAt,
		nullTime(doc.ReceivedAt),
		nullTime(doc.SentAt),
		doc.CreatedAt,
		nullTime(doc.DueAt),
		nullString(doc.ProtocolNumber),
		nullString(doc.ReferenceNumber),
		nullString(doc.Subject),
		nullString(doc.Sender),
		nullString(doc.Recipient),
		tags,
		doc.CreatedBy,
		doc.Version,
		doc.SearchText(),
	))
	if err != nil {
		return nil, repository.MapError(err, model.EntityDocument, doc.ID)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	out, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, repository.MapError(err, model.EntityDocument, id)
	}
	return out, nil
}

// Update writes the editable fields with version as the compare-and-swap key. The database
// increments version, so two writers that read the same version cannot both succeed.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document, expectedVersion int) (*model.Document, error) {
	const q = `
		UPDATE documents SET
			title = $3,
			description = $4,
			department_id = $5,
			category_id = $6,
			type_id = $7,
			status = $8,
			received_at = $9,
			sent_at = $10,
			due_at = $11,
			protocol_number = $12,
			reference_number = $13,
			subject = $14,
			sender = $15,
			recipient = $16,
			tags = $17::jsonb,
			updated_by = $18,
			search_vector = to_tsvector('` + searchConfig + `', $19),
			version = version + 1,
			system_updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING ` + documentColumns

	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return nil, err
	}

	out, err := scanDocument(r.db.QueryRowContext(ctx, q,
		doc.ID,
		expectedVersion,
		doc.Title,
		nullString(doc.Description),
		doc.DepartmentID,
		doc.CategoryID,
		doc.TypeID,
		string(doc.Status),
		nullTime(doc.ReceivedAt),
		nullTime(doc.SentAt),
		nullTime(doc.DueAt),
		nullString(doc.ProtocolNumber),
		nullString(doc.ReferenceNumber),
		nullString(doc.Subject),
		nullString(doc.Sender),
		nullString(doc.Recipient),
		tags,
		nullString(doc.UpdatedBy),
		doc.SearchText(),
	))
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, repository.MapError(err, model.EntityDocument, doc.ID)
	}

	// Nothing matched: either the row is gone or another writer got there first.
	var current int
	if err := r.db.QueryRowContext(ctx, `SELECT version FROM documents WHERE id = $1`, doc.ID).Scan(&current); err != nil {
		return nil, repository.MapError(err, model.EntityDocument, doc.ID)
	}
	return nil, &model.ConflictError{
		Entity:     model.EntityDocument,
		Constraint: "version",
		Message:    fmt.Sprintf("expected version %d, stored version is %d", expectedVersion, current),
	}
}

// buildFilter renders the WHERE clause for f, returning the clause and its positional args.
func buildFilter(f repository.DocumentFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.DepartmentID != "" {
		conds = append(conds, "department_id = "+arg(f.DepartmentID))
	}
	if f.CategoryID != "" {
		conds = append(conds, "category_id = "+arg(f.CategoryID))
	}
	if f.TypeID != "" {
		conds = append(conds, "type_id = "+arg(f.TypeID))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(string(f.Status)))
	}
	switch f.Movement {
	case model.MovementReceived:
		conds = append(conds, "received_at IS NOT NULL")
	case model.MovementSent:
		conds = append(conds, "sent_at IS NOT NULL")
	case model.MovementInternal:
		conds = append(conds, "received_at IS NULL AND sent_at IS NULL")
	}
	if f.Tag != "" {
		conds = append(conds, "tags @> jsonb_build_array("+arg(strings.ToLower(f.Tag))+"::text)")
	}
	if f.ProtocolNumber != "" {
		conds = append(conds, "protocol_number = "+arg(f.ProtocolNumber))
	}
	if f.StorageID != "" {
		conds = append(conds, "file_storage_id = "+arg(f.StorageID))
	}
	if f.CreatedFrom != nil {
		conds = append(conds, "created_at >= "+arg(*f.CreatedFrom))
	}
	if f.CreatedTo != nil {
		conds = append(conds, "created_at < "+arg(*f.CreatedTo))
	}
	if f.Query != "" {
		conds = append(conds, "search_vector @@ websearch_to_tsquery('"+searchConfig+"', "+arg(f.Query)+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Search returns documents using LIMIT/OFFSET pagination and a total count. Free-text
// matches are ordered by ts_rank; everything else by created_at descending.
func (r *DocumentPostgres) Search(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	where, args := buildFilter(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	order := " ORDER BY created_at DESC, id DESC"
	if f.Query != "" {
		// the query text is always the last filter argument
		order = fmt.Sprintf(" ORDER BY ts_rank(search_vector, websearch_to_tsquery('%s', $%d)) DESC, created_at DESC, id DESC", searchConfig, len(args))
	}

	listArgs := append(append([]any{}, args...), pq.Limit, pq.Offset)
	q := `SELECT ` + documentColumns + ` FROM documents` + where + order +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, q, listArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a document by ID.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &model.NotFoundError{Entity: model.EntityDocument, ID: id}
	}
	return nil
}
