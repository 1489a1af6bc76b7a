package generator

import (
	"career_advisor_backend/internal/config"
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiGenerator Google Gemini 后端
type GeminiGenerator struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func NewGemini(ctx context.Context, cfg config.AIConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model, maxTokens: int32(cfg.MaxTokens)}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) GenerateJSON(ctx context.Context, prompt string) (map[string]any, error) {
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType:  "application/json",
			SystemInstruction: genai.NewContentFromText(jsonOnlyInstruction, genai.RoleUser),
			MaxOutputTokens:   g.maxTokens,
		},
	)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("gemini generate failed: %w", err))
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}
	return decodeObject(text)
}

func (g *GeminiGenerator) Chat(ctx context.Context, system string, history []Message, message string) (string, error) {
	turns := chatTurns(history, 0)
	contents := make([]*genai.Content, 0, len(turns)+1)
	for _, m := range turns {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", classify(ctx, fmt.Errorf("gemini chat failed: %w", err))
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
