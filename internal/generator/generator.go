package generator

import (
	"career_advisor_backend/internal/config"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContentGenerator 外部 AI 内容生成能力，每个后端一个实现
type ContentGenerator interface {
	Name() string
	// GenerateJSON 返回宽松类型的 JSON 对象，调用方必须自行校验结构
	GenerateJSON(ctx context.Context, prompt string) (map[string]any, error)
	Chat(ctx context.Context, system string, history []Message, message string) (string, error)
}

// New 按配置选择后端
func New(cfg config.AIConfig) (ContentGenerator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		return NewOllama(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	case "gemini":
		g, err := NewGemini(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}

var fencePattern = regexp.MustCompile("(?i)```(?:json)?")

// ExtractJSON 去掉 markdown 代码块与前后说明文字，截取第一个 { 到最后一个 }
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", &MalformedOutputError{Reason: "no JSON object found", Raw: truncate(raw, 600)}
	}

	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", &MalformedOutputError{Reason: "extracted JSON is invalid", Raw: truncate(candidate, 600)}
	}
	return candidate, nil
}

func decodeObject(raw string) (map[string]any, error) {
	cleaned, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &MalformedOutputError{Reason: err.Error(), Raw: truncate(cleaned, 600)}
	}
	return out, nil
}

// chatTurns 过滤 system 消息并保留最近 limit 条
func chatTurns(history []Message, limit int) []Message {
	turns := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role == "system" || strings.TrimSpace(m.Content) == "" {
			continue
		}
		turns = append(turns, m)
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}

// truncate 按字节截断，但不会切开多字节字符
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
