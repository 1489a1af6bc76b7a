package service

import (
	"career_advisor_backend/internal/config"
	"career_advisor_backend/internal/generator"
	"career_advisor_backend/internal/model"
	"career_advisor_backend/internal/util"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

const MaxResumeLength = 10000

// AnalyzeService 简历与目标职业的技能差距分析，生成失败直接返回错误
type AnalyzeService struct {
	generator generator.ContentGenerator
	timeout   atomic.Int64
}

func NewAnalyzeService(gen generator.ContentGenerator, cfg *config.Config) *AnalyzeService {
	s := &AnalyzeService{generator: gen}
	s.SetTimeout(cfg.AI.Timeout())
	return s
}

func (s *AnalyzeService) SetTimeout(d time.Duration) {
	s.timeout.Store(int64(d))
}

func (s *AnalyzeService) Analyze(ctx context.Context, resumeText, targetCareer, domain string) (*model.AnalyzeResponse, error) {
	resumeText, targetCareer = strings.TrimSpace(resumeText), strings.TrimSpace(targetCareer)
	if resumeText == "" {
		return nil, fmt.Errorf("%w: resume_text is required", util.ErrInvalidInput)
	}
	if targetCareer == "" {
		return nil, fmt.Errorf("%w: target_career is required", util.ErrInvalidInput)
	}
	if utf8.RuneCountInString(resumeText) > MaxResumeLength {
		return nil, fmt.Errorf("%w: resume_text exceeds maximum length of %d characters", util.ErrInvalidInput, MaxResumeLength)
	}

	genCtx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout.Load()))
	defer cancel()

	raw, err := s.generator.GenerateJSON(genCtx, generator.AnalyzePrompt(resumeText, targetCareer, strings.TrimSpace(domain)))
	if err != nil {
		return nil, err
	}
	return sanitizeAnalysis(raw, targetCareer), nil
}

func sanitizeAnalysis(raw map[string]any, targetCareer string) *model.AnalyzeResponse {
	out := &model.AnalyzeResponse{
		TargetCareer:          stringFromAny(raw["target_career"]),
		ExistingSkills:        stringSliceFromAny(raw["existing_skills"]),
		MissingSkills:         []model.SkillGapItem{},
		Strengths:             stringSliceFromAny(raw["strengths"]),
		ImprovementAreas:      stringSliceFromAny(raw["improvement_areas"]),
		OverallReadinessScore: clampInt(intFromAny(raw["overall_readiness_score"]), 0, 100),
		RecommendedNextSteps:  stringSliceFromAny(raw["recommended_next_steps"]),
	}
	if out.TargetCareer == "" {
		out.TargetCareer = targetCareer
	}

	items, _ := mapSliceFromAny(raw["missing_skills"])
	for _, item := range items {
		gap := model.SkillGapItem{
			Skill:              stringFromAny(item["skill"]),
			Importance:         parseImportance(stringFromAny(item["importance"])),
			EstimatedTimeWeeks: intFromAny(item["estimated_time_weeks"]),
			Resources:          []model.LearningResource{},
		}
		if gap.Skill == "" {
			continue
		}
		if gap.EstimatedTimeWeeks < 0 {
			gap.EstimatedTimeWeeks = 0
		}
		resources, _ := mapSliceFromAny(item["resources"])
		for _, r := range resources {
			res := model.LearningResource{
				Title:         stringFromAny(r["title"]),
				Type:          stringFromAny(r["type"]),
				URL:           stringFromAny(r["url"]),
				Free:          boolFromAny(r["free"]),
				DurationHours: floatFromAny(r["duration_hours"]),
			}
			if res.Title != "" {
				gap.Resources = append(gap.Resources, res)
			}
		}
		out.MissingSkills = append(out.MissingSkills, gap)
	}
	return out
}

func parseImportance(s string) model.SkillImportance {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")) {
	case "critical":
		return model.ImportanceCritical
	case "nice_to_have", "nice-to-have", "optional":
		return model.ImportanceNiceToHave
	default:
		return model.ImportanceImportant
	}
}
