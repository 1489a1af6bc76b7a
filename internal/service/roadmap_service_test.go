package service

import (
	"career_advisor_backend/internal/config"
	"career_advisor_backend/internal/generator"
	"career_advisor_backend/internal/model"
	"career_advisor_backend/internal/util"
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateCachesByNormalizedKey(t *testing.T) {
	s := newServices(t)
	s.gen.jsonFn = func(ctx context.Context, prompt string) (map[string]any, error) {
		return rawRoadmap(3, 4), nil
	}
	ctx := context.Background()

	first, err := s.roadmap.GetOrCreate(ctx, "Data Scientist", "Technology", "beginner")
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.True(t, first.Persisted)
	assert.False(t, first.Degraded)
	assert.Equal(t, "data scientist", first.Roadmap.Career)
	assert.Equal(t, 12, first.Roadmap.TopicCount())

	second, err := s.roadmap.GetOrCreate(ctx, "  data scientist ", "TECHNOLOGY", "advanced")
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Roadmap.ID, second.Roadmap.ID)
	assert.Equal(t, first.Roadmap.TopicIDs(), second.Roadmap.TopicIDs())

	assert.Equal(t, 1, s.gen.JSONCalls())
	assert.Contains(t, s.gen.prompts[0], "Career: data scientist")
}

func TestGetOrCreateRejectsEmptyKey(t *testing.T) {
	s := newServices(t)

	_, err := s.roadmap.GetOrCreate(context.Background(), " ", "technology", "")
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	assert.Zero(t, s.gen.JSONCalls())
}

func TestGetOrCreateDegradesNonArraySections(t *testing.T) {
	s := newServices(t)
	s.gen.jsonFn = func(ctx context.Context, prompt string) (map[string]any, error) {
		return map[string]any{
			"sections": map[string]any{"beginner": map[string]any{"topics": []any{}}},
		}, nil
	}

	res, err := s.roadmap.GetOrCreate(context.Background(), "Chef", "Arts", "")
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.True(t, res.Persisted)
	assert.NotNil(t, res.Roadmap.Sections)
	assert.Empty(t, res.Roadmap.Sections)
	assert.Equal(t, "Professional career roadmap.", res.Roadmap.Overview)
	assert.Equal(t, 24, res.Roadmap.TotalEstimatedWeeks)
	assert.NotEmpty(t, res.Notices)
}

func TestGetOrCreateSurfacesGeneratorFailure(t *testing.T) {
	s := newServices(t)
	s.gen.jsonFn = func(ctx context.Context, prompt string) (map[string]any, error) {
		return nil, errors.Join(generator.ErrTimeout, context.DeadlineExceeded)
	}

	_, err := s.roadmap.GetOrCreate(context.Background(), "Pilot", "Aviation", "")
	assert.ErrorIs(t, err, generator.ErrTimeout)

	stored, err := s.roadmaps.FindByKey(context.Background(), "pilot", "aviation")
	require.NoError(t, err)
	assert.Nil(t, stored, "a failed generation must not populate the cache")
}

func TestGetOrCreateTimesOutSlowGenerator(t *testing.T) {
	s := newServices(t)
	s.roadmap.SetTimeout(20 * time.Millisecond)
	s.gen.jsonFn = func(ctx context.Context, prompt string) (map[string]any, error) {
		<-ctx.Done()
		return nil, errors.Join(generator.ErrTimeout, ctx.Err())
	}

	_, err := s.roadmap.GetOrCreate(context.Background(), "Pilot", "Aviation", "")
	assert.ErrorIs(t, err, generator.ErrTimeout)
}

// failingInsertRepo 总是未命中，写入总是失败
type failingInsertRepo struct{}

func (f *failingInsertRepo) FindByKey(ctx context.Context, career, domain string) (*model.Roadmap, error) {
	return nil, nil
}

func (f *failingInsertRepo) FindByID(ctx context.Context, id string) (*model.Roadmap, error) {
	return nil, nil
}

func (f *failingInsertRepo) Insert(ctx context.Context, roadmap *model.Roadmap) (*model.Roadmap, bool, error) {
	return nil, false, errors.New("database is read-only")
}

func (f *failingInsertRepo) FindFirstByDomain(ctx context.Context, domain string) (*model.Roadmap, error) {
	return nil, nil
}

func TestGetOrCreateReturnsRoadmapWhenPersistFails(t *testing.T) {
	s := newServices(t)
	s.gen.jsonFn = func(ctx context.Context, prompt string) (map[string]any, error) {
		return rawRoadmap(2, 2), nil
	}
	svc := NewRoadmapService(&failingInsertRepo{}, s.progress, s.users, s.gen, nil, testConfig())

	res, err := svc.GetOrCreate(context.Background(), "Data Scientist", "Technology", "")
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.Empty(t, res.Roadmap.ID)
	assert.Equal(t, 4, res.Roadmap.TopicCount())
	assert.Equal(t, "data scientist", res.Roadmap.Career)
}

func TestGetOrCreateGeneratesOnceForConcurrentMisses(t *testing.T) {
	s := newServices(t)
	release := make(chan struct{})
	s.gen.jsonFn = func(ctx context.Context, prompt string) (map[string]any, error) {
		<-release
		return rawRoadmap(2, 3), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	ids := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.roadmap.GetOrCreate(context.Background(), "Nurse", "Healthcare", "")
			errs[i] = err
			if err == nil {
				ids[i] = res.Roadmap.ID
			}
		}(i)
	}
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, s.gen.JSONCalls())
}

func TestGetOrCreateArchivesRawOutput(t *testing.T) {
	s := newServices(t)
	s.gen.jsonFn = func(ctx context.Context, prompt string) (map[string]any, error) {
		return rawRoadmap(1, 2), nil
	}
	cfg := testConfig()
	cfg.Roadmap.ArchiveRaw = true
	cfg.Storage.LocalPath = t.TempDir()
	storage := NewStorageService(cfg)
	svc := NewRoadmapService(s.roadmaps, s.progress, s.users, s.gen, storage, cfg)

	res, err := svc.GetOrCreate(context.Background(), "Electrician", "Trades", "")
	require.NoError(t, err)

	keys := listArchive(t, cfg.Storage.LocalPath)
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "generations/roadmap/"))

	rec, err := storage.LoadGeneration(context.Background(), keys[0])
	require.NoError(t, err)
	assert.Equal(t, "fake", rec.Provider)
	assert.Equal(t, res.Roadmap.ID, rec.RoadmapID)
	assert.Equal(t, "Become a data scientist.", rec.Raw["overview"])
}

func TestLatestForUser(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	s.gen.jsonFn = func(ctx context.Context, prompt string) (map[string]any, error) {
		return rawRoadmap(1, 2), nil
	}

	domain := model.DomainTechnology
	user := &model.UserProfile{Email: "grace@example.com", Domain: &domain}
	require.NoError(t, s.users.Create(ctx, user))

	_, err := s.roadmap.LatestForUser(ctx, user.ID)
	assert.ErrorIs(t, err, util.ErrRoadmapNotFound)

	byDomain, err := s.roadmap.GetOrCreate(ctx, "Backend Engineer", "technology", "")
	require.NoError(t, err)
	got, err := s.roadmap.LatestForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, byDomain.Roadmap.ID, got.ID)

	other, err := s.roadmap.GetOrCreate(ctx, "Chef", "arts", "")
	require.NoError(t, err)
	_, err = s.tracker.MarkTopicComplete(ctx, user.ID, other.Roadmap.ID, other.Roadmap.TopicIDs()[0])
	require.NoError(t, err)

	got, err = s.roadmap.LatestForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, other.Roadmap.ID, got.ID)

	_, err = s.roadmap.LatestForUser(ctx, "missing-user")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestGetByID(t *testing.T) {
	s := newServices(t)
	_, err := s.roadmap.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, util.ErrRoadmapNotFound)
}

func TestSanitizeRoadmap(t *testing.T) {
	defaults := config.RoadmapConfig{DefaultOverview: "Professional career roadmap.", DefaultWeeks: 24}
	raw := map[string]any{
		"sections": []any{
			map[string]any{
				"id":              "core",
				"title":           "Core",
				"stage":           "expert",
				"estimated_weeks": "6",
				"topics": []any{
					map[string]any{"id": "t1", "title": "One", "estimated_hours": "3.5"},
					map[string]any{"id": "t1", "title": "Duplicate"},
					map[string]any{"title": "No id", "is_optional": "yes", "prerequisites": []any{"t1", ""}},
				},
			},
			"not a section",
			map[string]any{"id": "core", "topics": "none"},
		},
	}

	r, notices := SanitizeRoadmap(raw, "Data Scientist ", " Technology", defaults)

	assert.Equal(t, "data scientist", r.Career)
	assert.Equal(t, "technology", r.Domain)
	assert.Equal(t, "Professional career roadmap.", r.Overview)
	assert.Equal(t, 6, r.TotalEstimatedWeeks, "total weeks falls back to the section sum")

	require.Len(t, r.Sections, 2)
	core := r.Sections[0]
	assert.Equal(t, model.StageAdvanced, core.Stage)
	assert.Equal(t, []string{"t1", "core_topic_2", "core_topic_3"}, []string{core.Topics[0].ID, core.Topics[1].ID, core.Topics[2].ID})
	assert.InDelta(t, 3.5, core.Topics[0].EstimatedHours, 0.001)
	assert.True(t, core.Topics[2].IsOptional)
	assert.Equal(t, []string{"t1"}, core.Topics[2].Prerequisites)

	second := r.Sections[1]
	assert.Equal(t, "section_2", second.ID)
	assert.Equal(t, "Section 2", second.Title)
	assert.Equal(t, model.StageBeginner, second.Stage)
	assert.NotNil(t, second.Topics)
	assert.Empty(t, second.Topics)

	assert.Len(t, notices, 4)

	again, _ := SanitizeRoadmap(raw, "Data Scientist", "Technology", defaults)
	assert.Equal(t, r.TopicIDs(), again.TopicIDs(), "sanitizing is deterministic")
}

func listArchive(t *testing.T, root string) []string {
	t.Helper()
	var keys []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	return keys
}
