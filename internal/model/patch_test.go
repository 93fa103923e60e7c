package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentPatch_Unmarshal(t *testing.T) {
	var p DocumentPatch
	err := json.Unmarshal([]byte(`{
		"title": "Novo título",
		"received_at": null,
		"sent_at": "2026-01-02T10:00:00Z",
		"tags": [],
		"expected_version": 3
	}`), &p)
	require.NoError(t, err)

	require.NotNil(t, p.Title)
	assert.Equal(t, "Novo título", *p.Title)

	assert.True(t, p.ReceivedAt.Set)
	assert.Nil(t, p.ReceivedAt.Value)

	assert.True(t, p.SentAt.Set)
	require.NotNil(t, p.SentAt.Value)
	assert.True(t, p.SentAt.Value.Equal(time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)))

	assert.False(t, p.DueAt.Set)
	assert.True(t, p.TagsSet)
	assert.Empty(t, p.Tags)
	require.NotNil(t, p.ExpectedVersion)
	assert.Equal(t, 3, *p.ExpectedVersion)
}

func TestDocumentPatch_UnmarshalWithoutTags(t *testing.T) {
	var p DocumentPatch
	require.NoError(t, json.Unmarshal([]byte(`{"subject":"x"}`), &p))
	assert.False(t, p.TagsSet)
	assert.True(t, p.Subject.Set)
}

func TestDocumentPatch_Apply(t *testing.T) {
	received := time.Now().Add(-time.Hour)
	subject := "assunto"
	doc := &Document{
		Title:      "Original",
		ReceivedAt: &received,
		Subject:    &subject,
		Tags:       []string{"a"},
	}

	title := "Atualizado"
	p := DocumentPatch{
		Title:      &title,
		ReceivedAt: Null[time.Time](),
		Sender:     Some("Prefeitura"),
		Tags:       []string{"B", "b", "c"},
		TagsSet:    true,
	}

	got := p.Apply(doc)

	assert.Equal(t, "Atualizado", got.Title)
	assert.Nil(t, got.ReceivedAt)
	require.NotNil(t, got.Sender)
	assert.Equal(t, "Prefeitura", *got.Sender)
	assert.Equal(t, "assunto", *got.Subject)
	assert.Equal(t, []string{"b", "c"}, got.Tags)

	// the stored record stays untouched
	assert.Equal(t, "Original", doc.Title)
	assert.NotNil(t, doc.ReceivedAt)
}

func TestChanges(t *testing.T) {
	now := time.Now()
	same := now.In(time.FixedZone("BRT", -3*3600))
	subject := "a"
	base := &Document{Title: "t", ReceivedAt: &now, Subject: &subject, Tags: []string{"x"}}

	t.Run("identical", func(t *testing.T) {
		assert.Empty(t, Changes(base, base.Clone()))
	})

	t.Run("same instant in another zone", func(t *testing.T) {
		c := base.Clone()
		c.ReceivedAt = &same
		assert.Empty(t, Changes(base, c))
	})

	t.Run("several fields", func(t *testing.T) {
		c := base.Clone()
		c.Title = "u"
		c.Subject = nil
		c.Tags = []string{"x", "y"}
		assert.Equal(t, []string{"title", "tags", "subject"}, Changes(base, c))
	})
}
