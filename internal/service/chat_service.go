package service

import (
	"career_advisor_backend/internal/config"
	"career_advisor_backend/internal/generator"
	"career_advisor_backend/internal/model"
	"career_advisor_backend/internal/repository"
	"career_advisor_backend/internal/util"
	"career_advisor_backend/pkg/logger"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	maxChatHistory   = 20
	chatTitleLength  = 80
	chatSessionLimit = 50
)

type ChatInput struct {
	UserID        string
	SessionID     string
	CareerContext string
	Message       string
	History       []generator.Message
}

type ChatReply struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatService AI 导师对话，指定 user_id 时保存会话
type ChatService struct {
	generator generator.ContentGenerator
	repo      *repository.ChatRepository
	now       func() time.Time
	timeout   atomic.Int64
}

func NewChatService(gen generator.ContentGenerator, repo *repository.ChatRepository, cfg *config.Config) *ChatService {
	s := &ChatService{generator: gen, repo: repo, now: time.Now}
	s.SetTimeout(cfg.AI.Timeout())
	return s
}

func (s *ChatService) SetTimeout(d time.Duration) {
	s.timeout.Store(int64(d))
}

func (s *ChatService) Chat(ctx context.Context, in ChatInput) (*ChatReply, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: new_message is required", util.ErrInvalidInput)
	}

	history := make([]generator.Message, 0, len(in.History))
	for _, m := range in.History {
		if m.Role == string(model.RoleSystem) {
			continue
		}
		history = append(history, m)
	}
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}

	genCtx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout.Load()))
	defer cancel()

	reply, err := s.generator.Chat(genCtx, generator.MentorSystemPrompt(in.CareerContext), history, message)
	if err != nil {
		return nil, err
	}

	out := &ChatReply{Reply: reply, SessionID: in.SessionID}
	if in.UserID == "" {
		return out, nil
	}

	sessionID, err := s.persist(ctx, in, history, message, reply)
	if err != nil {
		return nil, err
	}
	out.SessionID = sessionID
	return out, nil
}

func (s *ChatService) persist(ctx context.Context, in ChatInput, history []generator.Message, message, reply string) (string, error) {
	now := s.now()
	turn := []model.ChatMessage{
		{Role: model.RoleUser, Content: message, Timestamp: &now},
		{Role: model.RoleAssistant, Content: reply, Timestamp: &now},
	}

	if in.SessionID == "" {
		messages := make([]model.ChatMessage, 0, len(history)+2)
		for _, m := range history {
			messages = append(messages, model.ChatMessage{Role: model.MessageRole(m.Role), Content: m.Content})
		}
		messages = append(messages, turn...)

		title := truncateRunes(message, chatTitleLength)
		session := &model.ChatSession{
			UserID:   in.UserID,
			Title:    &title,
			Messages: messages,
		}
		if c := strings.TrimSpace(in.CareerContext); c != "" {
			session.CareerContext = &c
		}
		if err := s.repo.CreateSession(ctx, session); err != nil {
			return "", util.NewStoreError("create chat session", err)
		}
		return session.ID, nil
	}

	session, err := s.repo.FindSession(ctx, in.SessionID, in.UserID)
	if err != nil {
		return "", util.NewStoreError("find chat session", err)
	}
	if session == nil {
		return "", util.ErrSessionNotFound
	}
	session.Messages = append(session.Messages, turn...)
	if err := s.repo.SaveMessages(ctx, session); err != nil {
		return "", util.NewStoreError("save chat session", err)
	}
	logger.Log.Debug("Chat session updated", zap.String("session_id", session.ID), zap.Int("messages", len(session.Messages)))
	return session.ID, nil
}

func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error) {
	sessions, err := s.repo.ListForUser(ctx, userID, chatSessionLimit)
	if err != nil {
		return nil, util.NewStoreError("list chat sessions", err)
	}
	if sessions == nil {
		sessions = []model.ChatSession{}
	}
	return sessions, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
