package repository

import (
	"career_advisor_backend/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type ChatRepository struct {
	DB *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{DB: db}
}

func (r *ChatRepository) CreateSession(ctx context.Context, session *model.ChatSession) error {
	return r.DB.WithContext(ctx).Create(session).Error
}

// FindSession 会话必须属于该用户，不存在时返回 nil, nil
func (r *ChatRepository) FindSession(ctx context.Context, id, userID string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ChatRepository) SaveMessages(ctx context.Context, session *model.ChatSession) error {
	return r.DB.WithContext(ctx).Model(session).Update("messages", session.Messages).Error
}

func (r *ChatRepository) ListForUser(ctx context.Context, userID string, limit int) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&sessions).Error
	return sessions, err
}
