package service

import (
	"career_advisor_backend/internal/config"
	"career_advisor_backend/internal/generator"
	"career_advisor_backend/internal/repository"
	"career_advisor_backend/pkg/database"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGenerator struct {
	mu          sync.Mutex
	jsonCalls   int
	chatCalls   int
	prompts     []string
	lastHistory []generator.Message
	lastSystem  string

	jsonFn func(ctx context.Context, prompt string) (map[string]any, error)
	chatFn func(ctx context.Context, message string) (string, error)
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string) (map[string]any, error) {
	f.mu.Lock()
	f.jsonCalls++
	f.prompts = append(f.prompts, prompt)
	fn := f.jsonFn
	f.mu.Unlock()
	if fn == nil {
		return map[string]any{}, nil
	}
	return fn(ctx, prompt)
}

func (f *fakeGenerator) Chat(ctx context.Context, system string, history []generator.Message, message string) (string, error) {
	f.mu.Lock()
	f.chatCalls++
	f.lastSystem = system
	f.lastHistory = history
	fn := f.chatFn
	f.mu.Unlock()
	if fn == nil {
		return "ok", nil
	}
	return fn(ctx, message)
}

func (f *fakeGenerator) JSONCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jsonCalls
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{Provider: "ollama", TimeoutSeconds: 5},
		Roadmap: config.RoadmapConfig{
			DefaultOverview: "Professional career roadmap.",
			DefaultWeeks:    24,
			DefaultLevel:    "beginner",
		},
		Storage: config.StorageConfig{Type: "local"},
	}
}

// rawRoadmap 模拟 JSON 解码后的生成结果，数字均为 float64
func rawRoadmap(sections, perSection int) map[string]any {
	stages := []string{"Beginner", "Intermediate", "Advanced"}
	list := make([]any, 0, sections)
	for i := 1; i <= sections; i++ {
		topics := make([]any, 0, perSection)
		for j := 1; j <= perSection; j++ {
			topics = append(topics, map[string]any{
				"id":              fmt.Sprintf("topic_%d_%d", i, j),
				"title":           fmt.Sprintf("Topic %d.%d", i, j),
				"description":     "desc",
				"estimated_hours": float64(5),
				"difficulty":      "beginner",
				"is_optional":     false,
				"prerequisites":   []any{},
			})
		}
		list = append(list, map[string]any{
			"id":              fmt.Sprintf("section_%d", i),
			"title":           fmt.Sprintf("Section %d", i),
			"stage":           stages[(i-1)%len(stages)],
			"estimated_weeks": float64(4),
			"topics":          topics,
		})
	}
	return map[string]any{
		"career":                "Data Scientist",
		"overview":              "Become a data scientist.",
		"total_estimated_weeks": float64(4 * sections),
		"sections":              list,
	}
}

type services struct {
	db       *gorm.DB
	gen      *fakeGenerator
	roadmaps *repository.GormRoadmapRepository
	progress *repository.GormProgressRepository
	users    *repository.UserRepository
	roadmap  *RoadmapService
	tracker  *ProgressService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := newTestDB(t)
	s := &services{
		db:       db,
		gen:      &fakeGenerator{},
		roadmaps: repository.NewRoadmapRepository(db, nil, 0),
		progress: repository.NewProgressRepository(db),
		users:    repository.NewUserRepository(db),
	}
	s.roadmap = NewRoadmapService(s.roadmaps, s.progress, s.users, s.gen, nil, testConfig())
	s.tracker = NewProgressService(s.progress, s.roadmaps)
	return s
}
