package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/and161185/guidecode/internal/mentor"
	"github.com/and161185/guidecode/internal/model"
)

var ts = time.Date(2025, 5, 4, 9, 30, 0, 0, time.UTC)

func TestMessage_MentorSections(t *testing.T) {
	p := New()
	out := p.Message(model.Message{
		ID:        "m1",
		Role:      model.RoleAssistant,
		Content:   "### 1. UNDERSTANDING\nWe need **pairs**\n### 2. APPROACH\n- Step one",
		Timestamp: ts,
	})

	assert.Contains(t, out, "MENTOR RESPONSE")
	assert.Contains(t, out, "📖")
	assert.Contains(t, out, "UNDERSTANDING")
	assert.Contains(t, out, "pairs")
	assert.Contains(t, out, "💡")
	assert.Contains(t, out, "• Step one")
	assert.NotContains(t, out, "###")
	assert.NotContains(t, out, "**")
}

func TestMessage_UserVerbatim(t *testing.T) {
	out := New().Message(model.Message{Role: model.RoleUser, Content: "### 1. not parsed", Timestamp: ts})
	assert.Contains(t, out, "USER QUERY")
	assert.Contains(t, out, "### 1. not parsed")
}

func TestBlocks_Raw(t *testing.T) {
	out := New().Blocks(mentor.Parse("just text\n  indented"))
	assert.Equal(t, "just text\n  indented", out)
}

func TestSessionList(t *testing.T) {
	p := New()
	assert.Contains(t, p.SessionList(nil, ""), "No discussions yet")

	out := p.SessionList([]model.Session{
		{ID: "0123456789", Title: "Graphs", Messages: make([]model.Message, 3), UpdatedAt: ts},
		{ID: "abc", Title: "Trees", Messages: make([]model.Message, 1), UpdatedAt: ts},
	}, "abc")
	assert.Contains(t, out, "01234567  Graphs")
	assert.Contains(t, out, "(3 messages,")
	assert.Contains(t, out, "▸")
	assert.Contains(t, out, "Trees")
}

func TestReviewAndStats(t *testing.T) {
	p := New()
	out := p.Review(model.Review{LogicalIssues: "L", EfficiencyConcerns: "E", ImprovementSuggestions: "I"})
	assert.Contains(t, out, "Logical Issues")
	assert.Contains(t, out, "Efficiency Concerns")
	assert.Contains(t, out, "Improvement Suggestions")

	out = p.Stats(model.User{Name: "ada", Email: "ada@example.com", AvatarColor: "rose"}, model.Stats{Sessions: 2, Messages: 7, StorageBytes: 2048})
	assert.Contains(t, out, "Total Sessions  2")
	assert.Contains(t, out, "Total Messages  7")
	assert.Contains(t, out, "2.00 KB")
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "<ada@example.com>")
}

func TestKB(t *testing.T) {
	assert.Equal(t, "0.00 KB", KB(0))
	assert.Equal(t, "1.50 KB", KB(1536))
}
