package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/guidecode/internal/model"
)

// Mock is an offline Mentor that answers with a fixed outline. It is used when
// no API key is configured and in tests.
type Mock struct{}

// NewMock returns an offline mentor.
func NewMock() *Mock { return &Mock{} }

// Guide implements Mentor.
func (m *Mock) Guide(ctx context.Context, history []model.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var last string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == model.RoleUser {
			last = strings.TrimSpace(history[i].Content)
			break
		}
	}
	if last == "" {
		return Fallback, nil
	}
	return fmt.Sprintf(`### 1. PROBLEM UNDERSTANDING
You asked: **%s**

### 2. APPROACH
- Restate the inputs and the expected output in your own words.

### 3. HINTS
1. Work through a tiny example by hand.
2. Notice which step you repeat.

### 4. EDGE CASES
- Empty input

### 5. COMPLEXITY
Think about how the work grows with the input size.`, last), nil
}

// Review implements Mentor.
func (m *Mock) Review(ctx context.Context, code, language string) (model.Review, error) {
	if err := ctx.Err(); err != nil {
		return model.Review{}, err
	}
	lines := strings.Count(strings.TrimRight(code, "\n"), "\n") + 1
	return model.Review{
		LogicalIssues:          fmt.Sprintf("Offline review of %d line(s) of %s: trace the code with a small input.", lines, language),
		EfficiencyConcerns:     "Look for loops nested inside loops.",
		ImprovementSuggestions: "Name each step in plain English before changing the code.",
	}, nil
}
