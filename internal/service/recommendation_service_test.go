package service

import (
	"career_advisor_backend/internal/generator"
	"career_advisor_backend/internal/util"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecommender(gen *fakeGenerator) *RecommendationService {
	return NewRecommendationService(gen, DefaultFallbackTable(), testConfig())
}

func TestRecommendNestedShape(t *testing.T) {
	gen := &fakeGenerator{jsonFn: func(ctx context.Context, prompt string) (map[string]any, error) {
		return map[string]any{
			"recommendations": []any{
				map[string]any{"title": "ML Engineer", "description": "Ships models.", "match_score": float64(93), "required_skills": []any{"Python", "MLOps"}, "job_outlook": "Booming", "avg_salary_usd": float64(120000)},
				map[string]any{"description": "no title"},
			},
			"analysis_summary": "Strong quantitative profile.",
		}, nil
	}}

	resp, err := newRecommender(gen).Recommend(context.Background(), RecommendInput{Skills: []string{"python"}, Domain: "Technology"})
	require.NoError(t, err)
	assert.False(t, resp.FallbackUsed)
	require.Len(t, resp.Recommendations, 2)

	first := resp.Recommendations[0]
	assert.Equal(t, "ML Engineer", first.Title)
	assert.Equal(t, 93, first.MatchScore)
	assert.Equal(t, []string{"Python", "MLOps"}, first.RequiredSkills)
	assert.EqualValues(t, "booming", first.JobOutlook)
	assert.Equal(t, "Technology", first.Domain)

	assert.Equal(t, "Untitled", resp.Recommendations[1].Title)
	assert.Equal(t, 85, resp.Recommendations[1].MatchScore)
	assert.True(t, strings.HasPrefix(resp.AnalysisSummary, "Strong quantitative profile. (Generated in "))
	assert.Contains(t, gen.prompts[0], "Skills: python")
	assert.Contains(t, gen.prompts[0], "Education Level: not specified")
}

func TestRecommendFlatShape(t *testing.T) {
	gen := &fakeGenerator{jsonFn: func(ctx context.Context, prompt string) (map[string]any, error) {
		return map[string]any{
			"title1": "Nurse", "desc1": "Care for patients.",
			"title2": "Pharmacist", "desc2": "Dispense medicine.",
			"summary": "Healthcare fits you.",
		}, nil
	}}

	resp, err := newRecommender(gen).Recommend(context.Background(), RecommendInput{Skills: []string{}, Domain: "healthcare"})
	require.NoError(t, err)
	assert.False(t, resp.FallbackUsed)
	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, []int{90, 85}, []int{resp.Recommendations[0].MatchScore, resp.Recommendations[1].MatchScore})
	assert.True(t, strings.HasPrefix(resp.AnalysisSummary, "Healthcare fits you."))
}

func TestRecommendFallsBackOnFailure(t *testing.T) {
	cases := []struct {
		name   string
		result map[string]any
		err    error
		label  string
	}{
		{"timeout", nil, fmt.Errorf("%w: deadline", generator.ErrTimeout), "AI_TIMEOUT"},
		{"malformed", nil, &generator.MalformedOutputError{Reason: "no JSON object found"}, "MALFORMED_JSON"},
		{"unexpected shape", map[string]any{"careers": []any{}}, nil, "UNEXPECTED_JSON_SHAPE"},
		{"empty recommendations", map[string]any{"recommendations": []any{}}, nil, "UNEXPECTED_JSON_SHAPE"},
		{"transport", nil, errors.New("connection refused"), "connection refused"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{jsonFn: func(ctx context.Context, prompt string) (map[string]any, error) {
				return tc.result, tc.err
			}}

			resp, err := newRecommender(gen).Recommend(context.Background(), RecommendInput{Skills: []string{"go"}, Domain: "Technology & IT"})
			require.NoError(t, err)
			assert.True(t, resp.FallbackUsed)
			require.Len(t, resp.Recommendations, 3)
			assert.Equal(t, "Software Engineer", resp.Recommendations[0].Title)
			assert.Equal(t, []int{90, 85, 80}, []int{
				resp.Recommendations[0].MatchScore, resp.Recommendations[1].MatchScore, resp.Recommendations[2].MatchScore,
			})
			assert.True(t, strings.HasPrefix(resp.AnalysisSummary, "AI Error: "+tc.label+" (after "))
			assert.True(t, strings.HasSuffix(resp.AnalysisSummary, "Loading fallbacks for Technology & IT..."))
		})
	}
}

func TestRecommendValidation(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newRecommender(gen)

	_, err := svc.Recommend(context.Background(), RecommendInput{Skills: []string{"go"}})
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = svc.Recommend(context.Background(), RecommendInput{Domain: "technology"})
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	assert.Zero(t, gen.JSONCalls())
}

func TestFallbackTable(t *testing.T) {
	table := DefaultFallbackTable()

	for _, domain := range []string{"technology", "Technology & IT", " TECH "} {
		got := table.For(domain)
		require.Len(t, got, 3, domain)
		assert.Equal(t, "Software Engineer", got[0].Title)
		assert.Equal(t, domain, got[0].Domain)
		assert.EqualValues(t, "growing", got[0].JobOutlook)
		assert.Equal(t, 12, got[0].TimeToEntryMonths)
	}

	generic := table.For("Underwater Basket Weaving")
	require.Len(t, generic, 3)
	assert.Equal(t, []string{"Project Manager", "Business Analyst", "Entrepreneur"},
		[]string{generic[0].Title, generic[1].Title, generic[2].Title})
	assert.Equal(t, []int{85, 80, 78}, []int{generic[0].MatchScore, generic[1].MatchScore, generic[2].MatchScore})

	// 返回的是副本
	generic[0].RequiredSkills[0] = "mutated"
	assert.Equal(t, "Leadership", table.For("unknown")[0].RequiredSkills[0])
}

func TestParseFallbackTableRequiresGenericList(t *testing.T) {
	_, err := ParseFallbackTable([]byte("domains: []\n"))
	assert.Error(t, err)

	_, err = ParseFallbackTable([]byte("domains: ["))
	assert.Error(t, err)
}
