package generator

import (
	"bytes"
	"career_advisor_backend/internal/config"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// Ollama 的 generate 接口没有多轮对话，历史记录拼接进 prompt
const ollamaHistoryTurns = 10

// OllamaGenerator 本地 Ollama 后端 (/api/generate)
type OllamaGenerator struct {
	config config.AIConfig
	client *http.Client
}

func NewOllama(cfg config.AIConfig) *OllamaGenerator {
	return &OllamaGenerator{config: cfg, client: &http.Client{}}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (g *OllamaGenerator) Name() string { return "ollama" }

func (g *OllamaGenerator) GenerateJSON(ctx context.Context, prompt string) (map[string]any, error) {
	text, err := g.generate(ctx, prompt, "json")
	if err != nil {
		return nil, err
	}
	return decodeObject(text)
}

func (g *OllamaGenerator) Chat(ctx context.Context, system string, history []Message, message string) (string, error) {
	var b strings.Builder
	b.WriteString(system)

	turns := chatTurns(history, ollamaHistoryTurns)
	if len(turns) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		for i, m := range turns {
			if i > 0 {
				b.WriteString("\n")
			}
			speaker := "Assistant"
			if m.Role == "user" {
				speaker = "User"
			}
			b.WriteString(speaker + ": " + m.Content)
		}
	}
	b.WriteString("\nUser: " + message)
	b.WriteString("\nAssistant:")

	return g.generate(ctx, b.String(), "")
}

func (g *OllamaGenerator) generate(ctx context.Context, prompt, format string) (string, error) {
	jsonData, err := json.Marshal(ollamaRequest{
		Model:  g.config.Model,
		Prompt: prompt,
		Stream: false,
		Format: format,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(g.config.BaseURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

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

	var result ollamaResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &MalformedOutputError{Reason: "invalid ollama envelope: " + err.Error(), Raw: truncate(string(body), 600)}
	}
	if strings.TrimSpace(result.Response) == "" {
		return "", ErrEmptyResponse
	}
	return result.Response, nil
}
