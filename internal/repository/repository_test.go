package repository

import (
	"career_advisor_backend/internal/config"
	"career_advisor_backend/internal/model"
	"career_advisor_backend/pkg/database"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

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

func sampleRoadmap(career, domain string) *model.Roadmap {
	return &model.Roadmap{
		Career:              career,
		Domain:              domain,
		Overview:            "overview",
		TotalEstimatedWeeks: 12,
		Sections: datatypes.JSONSlice[model.RoadmapSection]{
			{ID: "s1", Title: "Basics", Stage: model.StageBeginner, EstimatedWeeks: 4, Topics: []model.RoadmapTopic{
				{ID: "t1", Title: "Python", EstimatedHours: 10},
				{ID: "t2", Title: "Statistics", EstimatedHours: 12},
			}},
		},
	}
}

func TestRoadmapInsertAndFindByKeyIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewRoadmapRepository(newTestDB(t), nil, 0)

	missing, err := repo.FindByKey(ctx, "Data Scientist", "Technology")
	require.NoError(t, err)
	assert.Nil(t, missing)

	stored, created, err := repo.Insert(ctx, sampleRoadmap(" Data Scientist ", "Technology"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "data scientist", stored.Career)
	assert.Equal(t, "technology", stored.Domain)
	assert.NotEmpty(t, stored.ID)

	found, err := repo.FindByKey(ctx, "data scientist", "TECHNOLOGY")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, stored.ID, found.ID)
	assert.Equal(t, []string{"t1", "t2"}, found.TopicIDs())

	byID, err := repo.FindByID(ctx, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Basics", byID.Sections[0].Title)
}

func TestRoadmapDuplicateInsertReturnsStoredCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewRoadmapRepository(newTestDB(t), nil, 0)

	first, created, err := repo.Insert(ctx, sampleRoadmap("Nurse", "Healthcare"))
	require.NoError(t, err)
	require.True(t, created)

	second := sampleRoadmap("nurse", "healthcare")
	second.Overview = "a different generation"
	stored, created, err := repo.Insert(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "overview", stored.Overview)

	var count int64
	require.NoError(t, repo.DB.Model(&model.Roadmap{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRoadmapFindFirstByDomain(t *testing.T) {
	ctx := context.Background()
	repo := NewRoadmapRepository(newTestDB(t), nil, 0)

	none, err := repo.FindFirstByDomain(ctx, "technology")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, _, err = repo.Insert(ctx, sampleRoadmap("Backend Engineer", "Technology"))
	require.NoError(t, err)

	found, err := repo.FindFirstByDomain(ctx, "Technology")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "backend engineer", found.Career)
}

func newProgress(userID, roadmapID string, ids ...string) *model.UserProgress {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &model.UserProgress{
		UserID:                 userID,
		RoadmapID:              roadmapID,
		CompletedTopicIDs:      datatypes.JSONSlice[string](ids),
		CurrentSection:         "Basics",
		OverallProgressPercent: 50,
		LastActivityAt:         now,
	}
}

func TestProgressInsertIgnoresDuplicatePair(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(newTestDB(t))

	inserted, err := repo.Insert(ctx, newProgress("u1", "r1", "t1"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Insert(ctx, newProgress("u1", "r1", "t2"))
	require.NoError(t, err)
	assert.False(t, inserted)

	found, err := repo.Find(ctx, "u1", "r1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, []string{"t1"}, []string(found.CompletedTopicIDs))
	assert.Equal(t, 1, found.Version)

	missing, err := repo.Find(ctx, "u1", "r2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProgressUpdateVersioned(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(newTestDB(t))

	_, err := repo.Insert(ctx, newProgress("u1", "r1", "t1"))
	require.NoError(t, err)

	a, err := repo.Find(ctx, "u1", "r1")
	require.NoError(t, err)
	b, err := repo.Find(ctx, "u1", "r1")
	require.NoError(t, err)

	a.CompletedTopicIDs = append(a.CompletedTopicIDs, "t2")
	a.OverallProgressPercent = 100
	ok, err := repo.UpdateVersioned(ctx, a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, a.Version)

	// b 读取的是旧版本，写入必须失败
	b.CompletedTopicIDs = append(b.CompletedTopicIDs, "t3")
	ok, err = repo.UpdateVersioned(ctx, b)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.Find(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, []string(stored.CompletedTopicIDs))
	assert.Equal(t, 100, stored.OverallProgressPercent)
	assert.Equal(t, 2, stored.Version)
}

func TestProgressFindAllAndLatestForUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	older := newProgress("u1", "r1", "t1")
	older.UpdatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := newProgress("u1", "r2", "t9")
	newer.UpdatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for _, p := range []*model.UserProgress{older, newer, newProgress("u2", "r1")} {
		_, err := repo.Insert(ctx, p)
		require.NoError(t, err)
	}

	all, err := repo.FindAllForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r2", all[0].RoadmapID)

	latest, err := repo.FindLatestForUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "r2", latest.RoadmapID)

	none, err := repo.FindLatestForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	user := &model.UserProfile{Email: "ada@example.com", Skills: datatypes.JSONSlice[string]{"go"}}
	require.NoError(t, repo.Create(ctx, user))

	exists, err := repo.ExistsByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, []string{"go"}, []string(found.Skills))

	career := "Data Scientist"
	found.TargetCareer = &career
	require.NoError(t, repo.Update(ctx, found))

	again, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, again.TargetCareer)
	assert.Equal(t, career, *again.TargetCareer)

	missing, err := repo.FindByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestChatRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepository(newTestDB(t))

	title := "How do I start?"
	session := &model.ChatSession{
		UserID:   "u1",
		Title:    &title,
		Messages: datatypes.JSONSlice[model.ChatMessage]{{Role: model.RoleUser, Content: "hi"}},
	}
	require.NoError(t, repo.CreateSession(ctx, session))

	found, err := repo.FindSession(ctx, session.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, found)

	found.Messages = append(found.Messages, model.ChatMessage{Role: model.RoleAssistant, Content: "hello"})
	require.NoError(t, repo.SaveMessages(ctx, found))

	other, err := repo.FindSession(ctx, session.ID, "u2")
	require.NoError(t, err)
	assert.Nil(t, other)

	list, err := repo.ListForUser(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Messages, 2)
}
