package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/and161185/guidecode/internal/errs"
	"github.com/and161185/guidecode/internal/model"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-3-pro-preview"

// temperature keeps the section structure of replies stable.
const temperature = 0.5

// generator is the subset of *genai.Models the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Mentor over the Gemini API.
type Gemini struct {
	models generator
	model  string
	log    *zap.Logger
}

// NewGemini creates a Gemini API client authenticated with apiKey.
func NewGemini(ctx context.Context, apiKey, modelName string, log *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return newGemini(client.Models, modelName, log), nil
}

func newGemini(models generator, modelName string, log *zap.Logger) *Gemini {
	if modelName == "" {
		modelName = DefaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gemini{models: models, model: modelName, log: log}
}

// Guide implements Mentor.
func (g *Gemini) Guide(ctx context.Context, history []model.Message) (string, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role != model.RoleUser {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	temp := float32(temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       &temp,
	}

	res, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		g.log.Error("guide request failed", zap.String("model", g.model), zap.Error(err))
		return "", fmt.Errorf("%w: %w", errs.ErrGenerationFailure, err)
	}

	text := res.Text()
	if text == "" {
		text = Fallback
	}
	return Clean(text), nil
}

var reviewSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"logicalIssues":          {Type: genai.TypeString},
		"efficiencyConcerns":     {Type: genai.TypeString},
		"improvementSuggestions": {Type: genai.TypeString},
	},
	Required: []string{"logicalIssues", "efficiencyConcerns", "improvementSuggestions"},
}

// Review implements Mentor.
func (g *Gemini) Review(ctx context.Context, code, language string) (model.Review, error) {
	contents := []*genai.Content{genai.NewContentFromText(reviewPrompt(code, language), genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    reviewSchema,
	}

	res, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		g.log.Error("review request failed", zap.String("model", g.model), zap.Error(err))
		return model.Review{}, fmt.Errorf("%w: %w", errs.ErrGenerationFailure, err)
	}

	var rv model.Review
	if err := json.Unmarshal([]byte(Clean(res.Text())), &rv); err != nil {
		return model.Review{}, fmt.Errorf("%w: decode review: %w", errs.ErrGenerationFailure, err)
	}
	return rv, nil
}
