package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Nullable tells apart an absent JSON field, an explicit null, and a value.
// Set is false when the field was absent; Value is nil when it was null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Some builds a Nullable carrying v.
func Some[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

// Null builds a Nullable that clears the field.
func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// DocumentPatch is a partial update. Required fields are plain pointers (nil = untouched);
// optional fields use Nullable so they can be cleared.
type DocumentPatch struct {
	Title        *string  `json:"title,omitempty"`
	DepartmentID *string  `json:"department_id,omitempty"`
	CategoryID   *string  `json:"category_id,omitempty"`
	TypeID       *string  `json:"type_id,omitempty"`
	Status       *Status  `json:"status,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	TagsSet      bool     `json:"-"`

	Description     Nullable[string]    `json:"description"`
	ReceivedAt      Nullable[time.Time] `json:"received_at"`
	SentAt          Nullable[time.Time] `json:"sent_at"`
	DueAt           Nullable[time.Time] `json:"due_at"`
	ProtocolNumber  Nullable[string]    `json:"protocol_number"`
	ReferenceNumber Nullable[string]    `json:"reference_number"`
	Subject         Nullable[string]    `json:"subject"`
	Sender          Nullable[string]    `json:"sender"`
	Recipient       Nullable[string]    `json:"recipient"`

	// ExpectedVersion, when set, must match the stored version or the update is rejected.
	ExpectedVersion *int `json:"expected_version,omitempty"`
}

func (p *DocumentPatch) UnmarshalJSON(data []byte) error {
	type alias DocumentPatch
	var raw struct {
		alias
		Tags *[]string `json:"tags"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = DocumentPatch(raw.alias)
	if raw.Tags != nil {
		p.Tags = *raw.Tags
		p.TagsSet = true
	}
	return nil
}

// Apply merges the patch onto a copy of d and returns the candidate.
func (p *DocumentPatch) Apply(d *Document) *Document {
	c := d.Clone()
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.DepartmentID != nil {
		c.DepartmentID = *p.DepartmentID
	}
	if p.CategoryID != nil {
		c.CategoryID = *p.CategoryID
	}
	if p.TypeID != nil {
		c.TypeID = *p.TypeID
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.TagsSet {
		c.Tags = NormalizeTags(p.Tags)
	}
	applyNullable(&c.Description, p.Description)
	applyNullable(&c.ReceivedAt, p.ReceivedAt)
	applyNullable(&c.SentAt, p.SentAt)
	applyNullable(&c.DueAt, p.DueAt)
	applyNullable(&c.ProtocolNumber, p.ProtocolNumber)
	applyNullable(&c.ReferenceNumber, p.ReferenceNumber)
	applyNullable(&c.Subject, p.Subject)
	applyNullable(&c.Sender, p.Sender)
	applyNullable(&c.Recipient, p.Recipient)
	return c
}

func applyNullable[T any](dst **T, n Nullable[T]) {
	if !n.Set {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}

// Changes lists the editable fields that differ between before and after.
// An empty result means the save would be a no-op.
func Changes(before, after *Document) []string {
	var out []string
	add := func(field string, changed bool) {
		if changed {
			out = append(out, field)
		}
	}
	add("title", before.Title != after.Title)
	add("department_id", before.DepartmentID != after.DepartmentID)
	add("category_id", before.CategoryID != after.CategoryID)
	add("type_id", before.TypeID != after.TypeID)
	add("status", before.Status != after.Status)
	add("tags", !equalStrings(before.Tags, after.Tags))
	add("description", !equalPtr(before.Description, after.Description))
	add("received_at", !equalTime(before.ReceivedAt, after.ReceivedAt))
	add("sent_at", !equalTime(before.SentAt, after.SentAt))
	add("due_at", !equalTime(before.DueAt, after.DueAt))
	add("protocol_number", !equalPtr(before.ProtocolNumber, after.ProtocolNumber))
	add("reference_number", !equalPtr(before.ReferenceNumber, after.ReferenceNumber))
	add("subject", !equalPtr(before.Subject, after.Subject))
	add("sender", !equalPtr(before.Sender, after.Sender))
	add("recipient", !equalPtr(before.Recipient, after.Recipient))
	return out
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
