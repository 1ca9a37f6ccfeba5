package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/and161185/guidecode/internal/errs"
	"github.com/and161185/guidecode/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeModels struct {
	model    string
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig

	reply string
	err   error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.cfg = model, contents, cfg
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(f.reply, genai.RoleModel),
		}},
	}, nil
}

func history() []model.Message {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.Message{
		{ID: "1", Role: model.RoleAssistant, Content: "Hello!", Timestamp: ts},
		{ID: "2", Role: model.RoleUser, Content: "Two sum please", Timestamp: ts},
	}
}

func TestGuide_RequestShape(t *testing.T) {
	f := &fakeModels{reply: "```json\n### 1. UNDERSTANDING\nx\n```  "}
	g := newGemini(f, "", zaptest.NewLogger(t))

	out, err := g.Guide(context.Background(), history())
	require.NoError(t, err)
	assert.Equal(t, "### 1. UNDERSTANDING\nx", out)

	assert.Equal(t, DefaultModel, f.model)
	require.Len(t, f.contents, 2)
	assert.EqualValues(t, genai.RoleModel, f.contents[0].Role)
	assert.EqualValues(t, genai.RoleUser, f.contents[1].Role)
	assert.Equal(t, "Two sum please", f.contents[1].Parts[0].Text)

	require.NotNil(t, f.cfg.Temperature)
	assert.InDelta(t, 0.5, *f.cfg.Temperature, 1e-6)
	require.NotNil(t, f.cfg.SystemInstruction)
	assert.Contains(t, f.cfg.SystemInstruction.Parts[0].Text, "GuideCode AI Coding Mentor")
}

func TestGuide_EmptyReplyFallsBack(t *testing.T) {
	g := newGemini(&fakeModels{reply: ""}, "m", nil)
	out, err := g.Guide(context.Background(), history())
	require.NoError(t, err)
	assert.Equal(t, Fallback, out)
}

func TestGuide_TransportError(t *testing.T) {
	g := newGemini(&fakeModels{err: errors.New("quota exceeded")}, "m", zaptest.NewLogger(t))
	_, err := g.Guide(context.Background(), history())
	require.ErrorIs(t, err, errs.ErrGenerationFailure)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestReview(t *testing.T) {
	f := &fakeModels{reply: `{"logicalIssues":"off by one","efficiencyConcerns":"O(n^2)","improvementSuggestions":"use a set"}`}
	g := newGemini(f, "m", nil)

	rv, err := g.Review(context.Background(), "for i in x: pass", "Python")
	require.NoError(t, err)
	assert.Equal(t, model.Review{
		LogicalIssues:          "off by one",
		EfficiencyConcerns:     "O(n^2)",
		ImprovementSuggestions: "use a set",
	}, rv)

	assert.Equal(t, "application/json", f.cfg.ResponseMIMEType)
	require.NotNil(t, f.cfg.ResponseSchema)
	assert.ElementsMatch(t, []string{"logicalIssues", "efficiencyConcerns", "improvementSuggestions"}, f.cfg.ResponseSchema.Required)
	require.Len(t, f.contents, 1)
	assert.Contains(t, f.contents[0].Parts[0].Text, "Review this Python code attempt")
}

func TestReview_BadJSON(t *testing.T) {
	g := newGemini(&fakeModels{reply: "not json"}, "m", nil)
	_, err := g.Review(context.Background(), "x", "Go")
	require.ErrorIs(t, err, errs.ErrGenerationFailure)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "", nil)
	require.Error(t, err)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "a b", Clean("  ```a``` b```json\n"))
}

func TestMock(t *testing.T) {
	m := NewMock()
	out, err := m.Guide(context.Background(), history())
	require.NoError(t, err)
	assert.Contains(t, out, "**Two sum please**")
	assert.Contains(t, out, "### 1. PROBLEM UNDERSTANDING")

	out, err = m.Guide(context.Background(), history()[:1])
	require.NoError(t, err)
	assert.Equal(t, Fallback, out)

	rv, err := m.Review(context.Background(), "a\nb\n", "Go")
	require.NoError(t, err)
	assert.Contains(t, rv.LogicalIssues, "2 line(s) of Go")
}
