// Package gamification 根据路线图与已完成主题集合推导进度展示指标。
// 这里的函数都是纯函数，不访问存储。
package gamification

import (
	"career_advisor_backend/internal/model"
	"math"
)

const (
	NotStarted   = "Not Started"
	NoNextTopic  = "None"
	DefaultStage = model.StageBeginner
)

// Set 已完成主题 ID 集合
type Set map[string]struct{}

// NewSet 由 ID 列表构造集合，重复项自然去重
func NewSet(ids ...[]string) Set {
	s := make(Set)
	for _, list := range ids {
		for _, id := range list {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

type Milestones struct {
	Milestone25       bool `json:"milestone_25"`
	Milestone50       bool `json:"milestone_50"`
	Milestone75       bool `json:"milestone_75"`
	MilestoneComplete bool `json:"milestone_complete"`
	SectionCompleted  bool `json:"section_completed"`
}

type SectionProgress struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Stage           model.Stage `json:"stage"`
	TotalTopics     int         `json:"total_topics"`
	CompletedTopics int         `json:"completed_topics"`
	Percent         int         `json:"percent"`
	Completed       bool        `json:"completed"`
}

// swagger:model Metrics
type Metrics struct {
	TotalTopics             int               `json:"total_topics"`
	CompletedTopics         int               `json:"completed_topics"`
	CompletionPercent       int               `json:"completion_percent"`
	CurrentSection          string            `json:"current_section"`
	CurrentStage            model.Stage       `json:"current_stage"`
	NextTopicTitle          string            `json:"next_topic_title"`
	Milestones              Milestones        `json:"milestones"`
	Sections                []SectionProgress `json:"sections"`
	EstimatedWeeksRemaining int               `json:"estimated_weeks_remaining"`
	EstimatedHoursRemaining float64           `json:"estimated_hours_remaining"`
}

// Percent floor(100*completed/total)，限制在 [0,100]；total 为 0 时返回 0
func Percent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := completed * 100 / total
	if p > 100 {
		return 100
	}
	return p
}

// SectionComplete 该分组的全部主题都在集合中
func SectionComplete(section model.RoadmapSection, completed Set) bool {
	for _, t := range section.Topics {
		if !completed.Has(t.ID) {
			return false
		}
	}
	return true
}

// ActiveSection 返回第一个未完成分组的下标；全部完成时返回最后一个分组与 true。
// 没有分组时返回 -1。
func ActiveSection(roadmap *model.Roadmap, completed Set) (int, bool) {
	if len(roadmap.Sections) == 0 {
		return -1, false
	}
	for i, s := range roadmap.Sections {
		if !SectionComplete(s, completed) {
			return i, false
		}
	}
	return len(roadmap.Sections) - 1, true
}

// CurrentSectionTitle 进度记录中保存的 current_section
func CurrentSectionTitle(roadmap *model.Roadmap, completed Set) string {
	idx, allComplete := ActiveSection(roadmap, completed)
	if idx < 0 || (allComplete && CountTopics(roadmap) == 0) {
		return NotStarted
	}
	return roadmap.Sections[idx].Title
}

func CountTopics(roadmap *model.Roadmap) int {
	n := 0
	for _, s := range roadmap.Sections {
		n += len(s.Topics)
	}
	return n
}

// CountCompleted 只统计属于该路线图的已完成主题
func CountCompleted(roadmap *model.Roadmap, completed Set) int {
	n := 0
	for _, s := range roadmap.Sections {
		for _, t := range s.Topics {
			if completed.Has(t.ID) {
				n++
			}
		}
	}
	return n
}

func ComputeMetrics(roadmap *model.Roadmap, completed Set) Metrics {
	m := Metrics{
		CurrentSection: NotStarted,
		CurrentStage:   DefaultStage,
		NextTopicTitle: NoNextTopic,
		Sections:       make([]SectionProgress, 0, len(roadmap.Sections)),
	}

	for _, s := range roadmap.Sections {
		sp := SectionProgress{
			ID:          s.ID,
			Title:       s.Title,
			Stage:       stageOrDefault(s.Stage),
			TotalTopics: len(s.Topics),
		}
		for _, t := range s.Topics {
			if completed.Has(t.ID) {
				sp.CompletedTopics++
			} else {
				m.EstimatedHoursRemaining += t.EstimatedHours
			}
		}
		sp.Percent = Percent(sp.CompletedTopics, sp.TotalTopics)
		sp.Completed = sp.TotalTopics > 0 && sp.CompletedTopics == sp.TotalTopics
		m.EstimatedWeeksRemaining += remainingWeeks(s.EstimatedWeeks, sp.TotalTopics-sp.CompletedTopics, sp.TotalTopics)

		m.TotalTopics += sp.TotalTopics
		m.CompletedTopics += sp.CompletedTopics
		m.Sections = append(m.Sections, sp)
	}

	m.CompletionPercent = Percent(m.CompletedTopics, m.TotalTopics)
	m.Milestones = Milestones{
		Milestone25:       m.CompletionPercent >= 25,
		Milestone50:       m.CompletionPercent >= 50,
		Milestone75:       m.CompletionPercent >= 75,
		MilestoneComplete: m.CompletionPercent == 100,
	}

	// 分组存在但没有任何主题时视为未开始
	if m.TotalTopics == 0 {
		return m
	}
	idx, allComplete := ActiveSection(roadmap, completed)
	if idx < 0 {
		return m
	}
	active := roadmap.Sections[idx]
	m.CurrentSection = active.Title
	m.CurrentStage = stageOrDefault(active.Stage)
	m.Milestones.SectionCompleted = allComplete
	if !allComplete {
		for _, t := range active.Topics {
			if !completed.Has(t.ID) {
				m.NextTopicTitle = t.Title
				break
			}
		}
	}
	return m
}

func stageOrDefault(s model.Stage) model.Stage {
	if s == "" {
		return DefaultStage
	}
	return s
}

// remainingWeeks 按未完成主题比例折算分组剩余周数，向上取整
func remainingWeeks(weeks, remaining, total int) int {
	if total == 0 || remaining <= 0 || weeks <= 0 {
		return 0
	}
	return int(math.Ceil(float64(weeks) * float64(remaining) / float64(total)))
}
