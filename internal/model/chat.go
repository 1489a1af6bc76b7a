package model

import (
	"time"

	"gorm.io/datatypes"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

type ChatMessage struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
}

// swagger:model ChatSession
type ChatSession struct {
	UUIDBase
	UserID        string                           `gorm:"size:36;index;not null" json:"user_id"`
	Title         *string                          `gorm:"size:100" json:"title"`
	CareerContext *string                          `gorm:"size:191" json:"career_context"`
	Messages      datatypes.JSONSlice[ChatMessage] `json:"messages"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
