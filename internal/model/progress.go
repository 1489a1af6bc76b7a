package model

import (
	"time"

	"gorm.io/datatypes"
)

// UserProgress 每个 (user, roadmap) 一条记录，首次完成主题时创建，此后原地更新
// swagger:model UserProgress
type UserProgress struct {
	UUIDBase
	UserID                 string                      `gorm:"size:36;not null;uniqueIndex:idx_progress_user_roadmap" json:"user_id"`
	RoadmapID              string                      `gorm:"size:36;not null;uniqueIndex:idx_progress_user_roadmap" json:"roadmap_id"`
	Career                 string                      `gorm:"size:191" json:"career"`
	CompletedTopicIDs      datatypes.JSONSlice[string] `json:"completed_topic_ids"`
	CurrentSection         string                      `gorm:"size:255" json:"current_section"`
	OverallProgressPercent int                         `gorm:"default:0" json:"overall_progress_percent"`
	LastActivityAt         time.Time                   `json:"last_activity_at"`
	Version                int                         `gorm:"not null;default:1" json:"-"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// HasTopic 已完成集合中是否包含该主题
func (p *UserProgress) HasTopic(topicID string) bool {
	for _, id := range p.CompletedTopicIDs {
		if id == topicID {
			return true
		}
	}
	return false
}

// ProgressSummary 仪表盘上每条路线图的进度概览
type ProgressSummary struct {
	RoadmapID               string    `json:"roadmap_id"`
	Career                  string    `json:"career"`
	TotalTopics             int       `json:"total_topics"`
	CompletedTopics         int       `json:"completed_topics"`
	OverallProgressPercent  int       `json:"overall_progress_percent"`
	CurrentSection          string    `json:"current_section"`
	EstimatedWeeksRemaining int       `json:"estimated_weeks_remaining"`
	LastActivityAt          time.Time `json:"last_activity_at"`
}
