package model

import (
	"strings"
	"time"
)

// Status is the workflow status of a document. Any status may move to any other status.
type Status string

const (
	StatusDraft    Status = "rascunho"
	StatusPending  Status = "pendente"
	StatusApproved Status = "aprovado"
	StatusRejected Status = "rejeitado"
	StatusArchived Status = "arquivado"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusArchived}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Movement is derived from the movement dates and is never stored.
type Movement string

const (
	MovementReceived Movement = "received"
	MovementSent     Movement = "sent"
	MovementInternal Movement = "internal"
)

// NearDueWindow is how far ahead a due date counts as near.
const NearDueWindow = 7 * 24 * time.Hour

// FileDescriptor is what the object storage returned for the uploaded binary.
type FileDescriptor struct {
	StorageID    string    `json:"storage_id" validate:"required"`
	URL          string    `json:"url" validate:"required"`
	SecureURL    string    `json:"secure_url" validate:"required"`
	OriginalName string    `json:"original_name" validate:"required"`
	Format       string    `json:"format" validate:"required"`
	SizeBytes    int64     `json:"size_bytes" validate:"gt=0"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Document is the central record. SystemCreatedAt/SystemUpdatedAt are bookkeeping
// timestamps, distinct from the business CreatedAt.
type Document struct {
	ID              string         `json:"id"`
	Title           string         `json:"title" validate:"required"`
	Description     *string        `json:"description,omitempty"`
	DepartmentID    string         `json:"department_id" validate:"required,uuid"`
	CategoryID      string         `json:"category_id" validate:"required,uuid"`
	TypeID          string         `json:"type_id" validate:"required,uuid"`
	Status          Status         `json:"status"`
	File            FileDescriptor `json:"file"`
	ReceivedAt      *time.Time     `json:"received_at,omitempty"`
	SentAt          *time.Time     `json:"sent_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	DueAt           *time.Time     `json:"due_at,omitempty"`
	ProtocolNumber  *string        `json:"protocol_number,omitempty"`
	ReferenceNumber *string        `json:"reference_number,omitempty"`
	Subject         *string        `json:"subject,omitempty"`
	Sender          *string        `json:"sender,omitempty"`
	Recipient       *string        `json:"recipient,omitempty"`
	Tags            []string       `json:"tags"`
	CreatedBy       string         `json:"created_by"`
	UpdatedBy       *string        `json:"updated_by,omitempty"`
	Version         int            `json:"version"`
	SystemCreatedAt time.Time      `json:"system_created_at"`
	SystemUpdatedAt time.Time      `json:"system_updated_at"`
}

// Movement derives the movement kind from ReceivedAt and SentAt.
func (d *Document) Movement() Movement {
	switch {
	case d.ReceivedAt != nil:
		return MovementReceived
	case d.SentAt != nil:
		return MovementSent
	default:
		return MovementInternal
	}
}

// IsNearDue reports a due date within NearDueWindow ahead of now.
func (d *Document) IsNearDue(now time.Time) bool {
	if d.DueAt == nil || !d.DueAt.After(now) {
		return false
	}
	return !d.DueAt.After(now.Add(NearDueWindow))
}

// IsOverdue reports a due date strictly before now.
func (d *Document) IsOverdue(now time.Time) bool {
	return d.DueAt != nil && d.DueAt.Before(now)
}

// SearchText is the combined text indexed for full-text search.
func (d *Document) SearchText() string {
	parts := []string{d.Title}
	for _, p := range []*string{d.Description, d.Subject} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	parts = append(parts, d.Tags...)
	return strings.Join(parts, " ")
}

// Clone returns a deep copy so a merged candidate never aliases the stored record.
func (d *Document) Clone() *Document {
	c := *d
	c.Description = cloneString(d.Description)
	c.ReceivedAt = cloneTime(d.ReceivedAt)
	c.SentAt = cloneTime(d.SentAt)
	c.DueAt = cloneTime(d.DueAt)
	c.ProtocolNumber = cloneString(d.ProtocolNumber)
	c.ReferenceNumber = cloneString(d.ReferenceNumber)
	c.Subject = cloneString(d.Subject)
	c.Sender = cloneString(d.Sender)
	c.Recipient = cloneString(d.Recipient)
	c.UpdatedBy = cloneString(d.UpdatedBy)
	if d.Tags != nil {
		c.Tags = append([]string(nil), d.Tags...)
	}
	return &c
}

// DocumentView is the read shape: stored fields plus state derived at read time.
type DocumentView struct {
	*Document
	Movement  Movement `json:"movement"`
	IsNearDue bool     `json:"is_near_due"`
	IsOverdue bool     `json:"is_overdue"`
}

// View computes the derived state against now. Callers must build a fresh view on every read.
func (d *Document) View(now time.Time) DocumentView {
	return DocumentView{
		Document:  d,
		Movement:  d.Movement(),
		IsNearDue: d.IsNearDue(now),
		IsOverdue: d.IsOverdue(now),
	}
}

// NormalizeTags trims and lowercases tags, dropping empties and repeats while keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
