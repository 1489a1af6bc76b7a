package service

import (
	"career_advisor_backend/internal/config"
	"career_advisor_backend/internal/generator"
	"career_advisor_backend/internal/model"
	"career_advisor_backend/internal/util"
	"career_advisor_backend/pkg/logger"
	"career_advisor_backend/pkg/monitoring"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var errUnexpectedShape = errors.New("UNEXPECTED_JSON_SHAPE")

type RecommendInput struct {
	Skills         []string
	Interests      []string
	EducationLevel string
	Domain         string
}

// RecommendationService 推荐职业。生成失败时返回领域内置推荐，不向调用方报错
type RecommendationService struct {
	generator generator.ContentGenerator
	fallback  *FallbackTable
	timeout   atomic.Int64
}

func NewRecommendationService(gen generator.ContentGenerator, fallback *FallbackTable, cfg *config.Config) *RecommendationService {
	s := &RecommendationService{generator: gen, fallback: fallback}
	s.SetTimeout(cfg.AI.Timeout())
	return s
}

func (s *RecommendationService) SetTimeout(d time.Duration) {
	s.timeout.Store(int64(d))
}

func (s *RecommendationService) Recommend(ctx context.Context, in RecommendInput) (*model.RecommendResponse, error) {
	in.Domain = strings.TrimSpace(in.Domain)
	if in.Domain == "" {
		return nil, fmt.Errorf("%w: domain is required", util.ErrInvalidInput)
	}
	if in.Skills == nil {
		return nil, fmt.Errorf("%w: skills must be an array of strings", util.ErrInvalidInput)
	}
	if strings.TrimSpace(in.EducationLevel) == "" {
		in.EducationLevel = "not specified"
	}

	genCtx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout.Load()))
	defer cancel()

	start := time.Now()
	raw, err := s.generator.GenerateJSON(genCtx, generator.RecommendPrompt(in.Skills, in.Interests, in.EducationLevel, in.Domain))
	elapsed := time.Since(start).Seconds()

	if err == nil {
		if resp, ok := parseRecommendations(raw, in.Domain, elapsed); ok {
			return resp, nil
		}
		err = errUnexpectedShape
	}

	label := errorLabel(err)
	logger.Log.Warn("Recommendation generation failed, using fallback",
		zap.String("domain", in.Domain),
		zap.String("reason", label),
		zap.Float64("elapsed_seconds", elapsed),
		zap.Error(err))
	monitoring.FallbackCounter.WithLabelValues("recommendation").Inc()

	return &model.RecommendResponse{
		Recommendations: s.fallback.For(in.Domain),
		AnalysisSummary: fmt.Sprintf("AI Error: %s (after %.1fs). Loading fallbacks for %s...", label, elapsed, in.Domain),
		FallbackUsed:    true,
	}, nil
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, generator.ErrTimeout):
		return "AI_TIMEOUT"
	case errors.Is(err, errUnexpectedShape):
		return errUnexpectedShape.Error()
	case generator.IsMalformed(err):
		return "MALFORMED_JSON"
	default:
		return err.Error()
	}
}

// parseRecommendations 接受 {recommendations: [...]} 或扁平的 title1/desc1 两种格式
func parseRecommendations(raw map[string]any, domain string, elapsed float64) (*model.RecommendResponse, bool) {
	summary := stringFromAny(raw["analysis_summary"])

	var recs []model.CareerPath
	if items, ok := mapSliceFromAny(raw["recommendations"]); ok && len(items) > 0 {
		for i, item := range items {
			recs = append(recs, careerFromMap(item, domain, 90-5*i))
		}
	} else if stringFromAny(raw["title1"]) != "" && stringFromAny(raw["desc1"]) != "" {
		for i := 1; i <= 3; i++ {
			title := stringFromAny(raw[fmt.Sprintf("title%d", i)])
			if title == "" {
				continue
			}
			recs = append(recs, withCareerDefaults(model.CareerPath{
				Title:       title,
				Description: stringFromAny(raw[fmt.Sprintf("desc%d", i)]),
				MatchScore:  95 - 5*i,
			}, domain))
		}
		if summary == "" {
			summary = stringFromAny(raw["summary"])
		}
	} else {
		return nil, false
	}

	if summary == "" {
		summary = "AI-generated recommendations."
	}
	return &model.RecommendResponse{
		Recommendations: recs,
		AnalysisSummary: fmt.Sprintf("%s (Generated in %.1fs)", summary, elapsed),
	}, true
}

func careerFromMap(m map[string]any, domain string, defaultScore int) model.CareerPath {
	c := model.CareerPath{
		Title:             stringFromAny(m["title"]),
		Description:       stringFromAny(m["description"]),
		MatchScore:        intFromAny(m["match_score"]),
		RequiredSkills:    stringSliceFromAny(m["required_skills"]),
		AvgSalaryUSD:      intFromAny(m["avg_salary_usd"]),
		JobOutlook:        model.JobOutlook(strings.ToLower(stringFromAny(m["job_outlook"]))),
		TimeToEntryMonths: intFromAny(m["time_to_entry_months"]),
	}
	if c.Title == "" {
		c.Title = "Untitled"
	}
	if c.Description == "" {
		c.Description = "No description"
	}
	if c.MatchScore <= 0 {
		c.MatchScore = defaultScore
	}
	c.MatchScore = clampInt(c.MatchScore, 0, 100)
	if c.AvgSalaryUSD < 0 {
		c.AvgSalaryUSD = 0
	}
	switch c.JobOutlook {
	case model.OutlookDeclining, model.OutlookStable, model.OutlookGrowing, model.OutlookBooming:
	default:
		c.JobOutlook = ""
	}
	return withCareerDefaults(c, domain)
}
