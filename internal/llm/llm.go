// Package llm is the boundary to the text generation service that produces
// mentor replies and code reviews.
package llm

import (
	"context"
	"strings"

	"github.com/and161185/guidecode/internal/model"
)

// Mentor generates guidance. Every call is attempted once; failures wrap
// errs.ErrGenerationFailure.
type Mentor interface {
	// Guide answers the last user turn given the whole conversation.
	Guide(ctx context.Context, history []model.Message) (string, error)
	// Review critiques a code attempt without correcting it.
	Review(ctx context.Context, code, language string) (model.Review, error)
}

// Fallback is returned when the service answers with empty text.
const Fallback = "I'm reflecting on that. Can you tell me more about where you're stuck?"

var fences = strings.NewReplacer("```json", "", "```", "")

// Clean removes code fence markers and surrounding whitespace.
func Clean(text string) string {
	return strings.TrimSpace(fences.Replace(text))
}
