package generator

import (
	"bytes"
	"career_advisor_backend/internal/config"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const jsonOnlyInstruction = "You are a precise assistant for a career education platform. Respond ONLY with a single valid JSON object and no surrounding text."

// OpenAIGenerator 兼容 OpenAI /chat/completions 协议的后端
type OpenAIGenerator struct {
	config config.AIConfig
	client *http.Client
}

func NewOpenAI(cfg config.AIConfig) *OpenAIGenerator {
	return &OpenAIGenerator{config: cfg, client: &http.Client{}}
}

type chatCompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) GenerateJSON(ctx context.Context, prompt string) (map[string]any, error) {
	text, err := g.complete(ctx, []Message{
		{Role: "system", Content: jsonOnlyInstruction},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}
	return decodeObject(text)
}

func (g *OpenAIGenerator) Chat(ctx context.Context, system string, history []Message, message string) (string, error) {
	messages := []Message{{Role: "system", Content: system}}
	messages = append(messages, chatTurns(history, 0)...)
	messages = append(messages, Message{Role: "user", Content: message})
	return g.complete(ctx, messages)
}

func (g *OpenAIGenerator) complete(ctx context.Context, messages []Message) (string, error) {
	reqBody := chatCompletionRequest{
		Model:     g.config.Model,
		Messages:  messages,
		MaxTokens: g.config.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(g.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", classify(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(ctx, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{Backend: g.Name(), Status: resp.StatusCode, Body: truncate(string(body), 300)}
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &MalformedOutputError{Reason: "invalid completion envelope: " + err.Error(), Raw: truncate(string(body), 600)}
	}
	if result.Error != nil {
		return "", fmt.Errorf("openai error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return result.Choices[0].Message.Content, nil
}
