package model

import (
	"strings"

	"gorm.io/datatypes"
)

type Stage string

const (
	StageBeginner     Stage = "Beginner"
	StageIntermediate Stage = "Intermediate"
	StageAdvanced     Stage = "Advanced"
)

// ParseStage 宽松解析阶段标签，无法识别时返回 false
func ParseStage(s string) (Stage, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner", "basic", "foundation", "foundations":
		return StageBeginner, true
	case "intermediate":
		return StageIntermediate, true
	case "advanced", "expert":
		return StageAdvanced, true
	}
	return "", false
}

// swagger:model RoadmapTopic
type RoadmapTopic struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	EstimatedHours float64  `json:"estimated_hours"`
	Difficulty     string   `json:"difficulty,omitempty"`
	IsOptional     bool     `json:"is_optional,omitempty"`
	Prerequisites  []string `json:"prerequisites,omitempty"`
}

// swagger:model RoadmapSection
type RoadmapSection struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Stage          Stage          `json:"stage"`
	EstimatedWeeks int            `json:"estimated_weeks"`
	Topics         []RoadmapTopic `json:"topics"`
}

// Roadmap 以 (career, domain) 小写组合作为缓存键，生成后不再修改
// swagger:model Roadmap
type Roadmap struct {
	UUIDBase
	Career              string                              `gorm:"size:191;not null;uniqueIndex:idx_roadmap_key" json:"career"`
	Domain              string                              `gorm:"size:191;not null;uniqueIndex:idx_roadmap_key;index" json:"domain"`
	Overview            string                              `gorm:"type:text" json:"overview"`
	TotalEstimatedWeeks int                                 `gorm:"default:0" json:"total_estimated_weeks"`
	Sections            datatypes.JSONSlice[RoadmapSection] `json:"sections"`
}

func (Roadmap) TableName() string {
	return "roadmaps"
}

// NormalizeKey 缓存键：去空格并转小写
func NormalizeKey(career, domain string) (string, string) {
	return strings.ToLower(strings.TrimSpace(career)), strings.ToLower(strings.TrimSpace(domain))
}

// TopicIDs 按路线图顺序展开全部主题 ID
func (r *Roadmap) TopicIDs() []string {
	ids := make([]string, 0, r.TopicCount())
	for _, s := range r.Sections {
		for _, t := range s.Topics {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func (r *Roadmap) TopicCount() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Topics)
	}
	return n
}

func (r *Roadmap) HasTopic(id string) bool {
	for _, s := range r.Sections {
		for _, t := range s.Topics {
			if t.ID == id {
				return true
			}
		}
	}
	return false
}
