package service

import (
	"career_advisor_backend/internal/config"
	"career_advisor_backend/internal/model"
	"fmt"
)

// SanitizeRoadmap 将生成器的宽松 JSON 转为结构化路线图。
// 结构不符时降级为空分组，不返回错误；notices 记录每一处修正。
func SanitizeRoadmap(raw map[string]any, career, domain string, defaults config.RoadmapConfig) (*model.Roadmap, []string) {
	notices := []string{}
	roadmap := &model.Roadmap{Sections: []model.RoadmapSection{}}
	roadmap.Career, roadmap.Domain = model.NormalizeKey(career, domain)

	roadmap.Overview = stringFromAny(raw["overview"])
	if roadmap.Overview == "" {
		roadmap.Overview = defaults.DefaultOverview
		notices = append(notices, "overview missing, default used")
	}

	sections, ok := mapSliceFromAny(raw["sections"])
	if !ok {
		notices = append(notices, "sections missing or not an array, roadmap has no sections")
	} else if n := len(raw["sections"].([]any)) - len(sections); n > 0 {
		notices = append(notices, fmt.Sprintf("%d malformed section(s) dropped", n))
	}

	seenSections := map[string]bool{}
	seenTopics := map[string]bool{}
	sumWeeks := 0
	for i, s := range sections {
		section := model.RoadmapSection{
			ID:             uniqueID(stringFromAny(s["id"]), fmt.Sprintf("section_%d", i+1), seenSections),
			Title:          stringFromAny(s["title"]),
			EstimatedWeeks: intFromAny(s["estimated_weeks"]),
			Topics:         []model.RoadmapTopic{},
		}
		if section.Title == "" {
			section.Title = fmt.Sprintf("Section %d", i+1)
		}
		if stage, ok := model.ParseStage(stringFromAny(s["stage"])); ok {
			section.Stage = stage
		} else {
			section.Stage = model.StageBeginner
		}
		if section.EstimatedWeeks < 0 {
			section.EstimatedWeeks = 0
		}
		sumWeeks += section.EstimatedWeeks

		topics, ok := mapSliceFromAny(s["topics"])
		if !ok {
			notices = append(notices, fmt.Sprintf("section %q has no topic array", section.Title))
		}
		for j, t := range topics {
			topic := model.RoadmapTopic{
				ID:             uniqueID(stringFromAny(t["id"]), fmt.Sprintf("%s_topic_%d", section.ID, j+1), seenTopics),
				Title:          stringFromAny(t["title"]),
				Description:    stringFromAny(t["description"]),
				EstimatedHours: floatFromAny(t["estimated_hours"]),
				Difficulty:     stringFromAny(t["difficulty"]),
				IsOptional:     boolFromAny(t["is_optional"]),
				Prerequisites:  stringSliceFromAny(t["prerequisites"]),
			}
			if topic.Title == "" {
				topic.Title = fmt.Sprintf("Topic %d", j+1)
			}
			if topic.EstimatedHours < 0 {
				topic.EstimatedHours = 0
			}
			if len(topic.Prerequisites) == 0 {
				topic.Prerequisites = nil
			}
			section.Topics = append(section.Topics, topic)
		}
		roadmap.Sections = append(roadmap.Sections, section)
	}

	roadmap.TotalEstimatedWeeks = intFromAny(raw["total_estimated_weeks"])
	if roadmap.TotalEstimatedWeeks <= 0 {
		if sumWeeks > 0 {
			roadmap.TotalEstimatedWeeks = sumWeeks
		} else {
			roadmap.TotalEstimatedWeeks = defaults.DefaultWeeks
		}
		notices = append(notices, "total_estimated_weeks missing or invalid, derived value used")
	}

	return roadmap, notices
}

// uniqueID 缺失或重复的 ID 用确定性的候选值替换，同一输入总得到同一结果
func uniqueID(id, fallback string, seen map[string]bool) string {
	if id == "" || seen[id] {
		id = fallback
	}
	base := id
	for n := 2; seen[id]; n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	seen[id] = true
	return id
}
