package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"docmgmt/internal/logging"
	"docmgmt/internal/metrics"
	"docmgmt/internal/model"
	"docmgmt/internal/repository"
	"docmgmt/internal/storage"
)

var ErrReaderNil = errors.New("reader is nil")

const (
	defaultLimit = 10
	maxLimit     = 100
)

// CreateDocumentInput is the id-based creation payload.
type CreateDocumentInput struct {
	Title           string               `json:"title"`
	Description     *string              `json:"description,omitempty"`
	DepartmentID    string               `json:"department_id"`
	CategoryID      string               `json:"category_id"`
	TypeID          string               `json:"type_id"`
	Status          model.Status         `json:"status,omitempty"`
	File            model.FileDescriptor `json:"file"`
	ReceivedAt      *time.Time           `json:"received_at,omitempty"`
	SentAt          *time.Time           `json:"sent_at,omitempty"`
	CreatedAt       *time.Time           `json:"created_at,omitempty"`
	DueAt           *time.Time           `json:"due_at,omitempty"`
	ProtocolNumber  *string              `json:"protocol_number,omitempty"`
	ReferenceNumber *string              `json:"reference_number,omitempty"`
	Subject         *string              `json:"subject,omitempty"`
	Sender          *string              `json:"sender,omitempty"`
	Recipient       *string              `json:"recipient,omitempty"`
	Tags            []string             `json:"tags,omitempty"`
}

// document builds the unsaved record with input normalization applied.
func (in CreateDocumentInput) document() *model.Document {
	d := &model.Document{
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		DepartmentID:    in.DepartmentID,
		CategoryID:      in.CategoryID,
		TypeID:          in.TypeID,
		Status:          in.Status,
		File:            in.File,
		ReceivedAt:      in.ReceivedAt,
		SentAt:          in.SentAt,
		DueAt:           in.DueAt,
		ProtocolNumber:  in.ProtocolNumber,
		ReferenceNumber: in.ReferenceNumber,
		Subject:         in.Subject,
		Sender:          in.Sender,
		Recipient:       in.Recipient,
		Tags:            model.NormalizeTags(in.Tags),
	}
	if d.Status == "" {
		d.Status = model.StatusDraft
	}
	if in.CreatedAt != nil {
		d.CreatedAt = *in.CreatedAt
	}
	return d
}

// DocumentSearch holds the search criteria. Zero values are ignored.
type DocumentSearch struct {
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
	Limit          int
	Offset         int
}

// DocumentListResult is the service-level DTO for paginated documents.
// Limit and Offset are the values actually applied after clamping.
type DocumentListResult struct {
	Items  []model.Document `json:"data"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Create validates every invariant, reporting all violations at once, and stores version 1.
	Create(ctx context.Context, actor string, in CreateDocumentInput) (*model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Search filters documents and returns a page plus the total count.
	Search(ctx context.Context, q DocumentSearch) (*DocumentListResult, error)

	// Update merges patch onto the stored document and revalidates the result. A patch that
	// changes nothing returns the stored document untouched; otherwise version is bumped by one.
	Update(ctx context.Context, actor, id string, patch model.DocumentPatch) (*model.Document, error)

	// Delete removes the document row, then its stored file.
	Delete(ctx context.Context, id string) error

	// StoreFile uploads the binary to object storage and describes it.
	// originalFilename is used only for the extension; the object key is a UUID.
	StoreFile(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64) (*model.FileDescriptor, error)

	// DiscardFile removes a stored binary that no document ended up referencing.
	DiscardFile(ctx context.Context, storageID string) error
}

// DocumentOption customizes a DocumentService.
type DocumentOption func(*documentService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) DocumentOption {
	return func(s *documentService) { s.now = now }
}

// WithLogger sets the logger used for best-effort cleanups.
func WithLogger(l *slog.Logger) DocumentOption {
	return func(s *documentService) { s.logger = l }
}

// WithMetrics sets the domain counters.
func WithMetrics(m *metrics.Domain) DocumentOption {
	return func(s *documentService) { s.metrics = m }
}

// WithPresignExpiry sets how long SecureURL stays valid.
func WithPresignExpiry(d time.Duration) DocumentOption {
	return func(s *documentService) { s.presignExpiry = d }
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store         storage.Storage
	repo          repository.DocumentRepository
	validator     *Validator
	now           func() time.Time
	logger        *slog.Logger
	metrics       *metrics.Domain
	presignExpiry time.Duration
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, v *Validator, opts ...DocumentOption) DocumentService {
	s := &documentService{
		store:         store,
		repo:          repo,
		validator:     v,
		now:           time.Now,
		logger:        logging.Discard(),
		presignExpiry: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) Create(ctx context.Context, actor string, in CreateDocumentInput) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Create")
	defer func() { endSpan(span, err) }()

	now := s.now().UTC()
	doc := in.document()
	doc.ID = uuid.New().String()
	doc.Version = 1
	doc.CreatedBy = actor
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.File.UploadedAt.IsZero() {
		doc.File.UploadedAt = now
	}

	ve := s.validator.document(doc, now, true)
	if actor == "" {
		ve.Add("created_by", "required", "acting user is required")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, doc)
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if err := checkID(model.EntityDocument, id); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Search returns paginated documents without exposing repository types.
func (s *documentService) Search(ctx context.Context, q DocumentSearch) (_ *DocumentListResult, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Search")
	defer func() { endSpan(span, err) }()

	ve := &model.ValidationError{}
	for _, f := range []struct{ field, id string }{
		{"department_id", q.DepartmentID},
		{"category_id", q.CategoryID},
		{"type_id", q.TypeID},
	} {
		if f.id != "" && uuid.Validate(f.id) != nil {
			ve.Add(f.field, "uuid", "must be a valid UUID")
		}
	}
	if q.Status != "" && !q.Status.Valid() {
		ve.Add("status", "oneof", fmt.Sprintf("must be one of %v", model.Statuses))
	}
	switch q.Movement {
	case "", model.MovementReceived, model.MovementSent, model.MovementInternal:
	default:
		ve.Add("movement", "oneof", "must be one of received, sent, internal")
	}
	if q.CreatedFrom != nil && q.CreatedTo != nil && !q.CreatedFrom.Before(*q.CreatedTo) {
		ve.Add("created_to", "after", "must be after created_from")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	span.SetAttributes(
		attribute.String("search.query", q.Query),
		attribute.Int("search.limit", q.Limit),
		attribute.Int("search.offset", q.Offset),
	)

	res, err := s.repo.Search(ctx, repository.DocumentFilter{
		DepartmentID:   q.DepartmentID,
		CategoryID:     q.CategoryID,
		TypeID:         q.TypeID,
		Status:         q.Status,
		Movement:       q.Movement,
		Tag:            strings.TrimSpace(q.Tag),
		ProtocolNumber: q.ProtocolNumber,
		StorageID:      q.StorageID,
		CreatedFrom:    q.CreatedFrom,
		CreatedTo:      q.CreatedTo,
		Query:          strings.TrimSpace(q.Query),
	}, repository.PageQuery{Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total, Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *documentService) Update(ctx context.Context, actor, id string, patch model.DocumentPatch) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Update")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("document.id", id))

	if err := checkID(model.EntityDocument, id); err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, model.NewValidationError("updated_by", "required", "acting user is required")
	}

	before, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != before.Version {
		return nil, &model.ConflictError{
			Entity:     model.EntityDocument,
			Constraint: "version",
			Message:    fmt.Sprintf("expected version %d, stored version is %d", *patch.ExpectedVersion, before.Version),
		}
	}

	after := patch.Apply(before)
	after.Title = strings.TrimSpace(after.Title)

	// A due date is only required to be in the future at the moment it is set.
	dueChanged := after.DueAt != nil && (before.DueAt == nil || !before.DueAt.Equal(*after.DueAt))
	if err := s.validator.Document(after, s.now().UTC(), dueChanged); err != nil {
		return nil, err
	}

	changes := model.Changes(before, after)
	if len(changes) == 0 {
		return before, nil
	}
	span.SetAttributes(attribute.StringSlice("document.changes", changes))

	after.UpdatedBy = &actor
	updated, err := s.repo.Update(ctx, after, before.Version)
	if err != nil {
		return nil, err
	}
	s.metrics.VersionBumped()
	return updated, nil
}

// Delete removes the record first; a file left behind by a failed cleanup is only logged.
func (s *documentService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete")
	defer func() { endSpan(span, err) }()

	if err := checkID(model.EntityDocument, id); err != nil {
		return err
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if doc.File.StorageID == "" {
		return nil
	}
	if err := s.store.Delete(context.WithoutCancel(ctx), doc.File.StorageID); err != nil {
		s.logger.WarnContext(ctx, "storage_cleanup_failed",
			slog.String("document_id", id),
			slog.String("storage_id", doc.File.StorageID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (s *documentService) StoreFile(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64) (_ *model.FileDescriptor, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.StoreFile")
	defer func() { endSpan(span, err) }()

	if r == nil {
		return nil, ErrReaderNil
	}
	ext := strings.ToLower(filepath.Ext(originalFilename))
	key := path.Join("documents", uuid.New().String()+ext)

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	secureURL, err := s.store.PresignGet(ctx, objInfo.Key, s.presignExpiry)
	if err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), objInfo.Key); delErr != nil {
			return nil, fmt.Errorf("presign url: %w; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("presign url: %w", err)
	}

	return &model.FileDescriptor{
		StorageID:    objInfo.Key,
		URL:          s.store.ObjectURL(objInfo.Key),
		SecureURL:    secureURL,
		OriginalName: originalFilename,
		Format:       fileFormat(ext, contentType),
		SizeBytes:    objInfo.Size,
		UploadedAt:   s.now().UTC(),
	}, nil
}

func (s *documentService) DiscardFile(ctx context.Context, storageID string) error {
	return s.store.Delete(ctx, storageID)
}

// fileFormat prefers the extension and falls back to the MIME subtype.
func fileFormat(ext, contentType string) string {
	if f := strings.TrimPrefix(ext, "."); f != "" {
		return f
	}
	if i := strings.IndexByte(contentType, '/'); i >= 0 {
		sub := contentType[i+1:]
		if j := strings.IndexByte(sub, ';'); j >= 0 {
			sub = sub[:j]
		}
		if sub = strings.TrimSpace(sub); sub != "" {
			return sub
		}
	}
	return "bin"
}
