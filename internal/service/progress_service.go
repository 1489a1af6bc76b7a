package service

import (
	"career_advisor_backend/internal/gamification"
	"career_advisor_backend/internal/model"
	"career_advisor_backend/internal/repository"
	"career_advisor_backend/internal/util"
	"career_advisor_backend/pkg/logger"
	"career_advisor_backend/pkg/monitoring"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// 乐观锁冲突时的最大重试次数
const progressUpdateAttempts = 5

type ProgressService struct {
	progress repository.ProgressRepository
	roadmaps repository.RoadmapRepository
	now      func() time.Time
}

func NewProgressService(progress repository.ProgressRepository, roadmaps repository.RoadmapRepository) *ProgressService {
	return &ProgressService{progress: progress, roadmaps: roadmaps, now: time.Now}
}

// WithClock 替换时间来源
func (s *ProgressService) WithClock(now func() time.Time) *ProgressService {
	s.now = now
	return s
}

func (s *ProgressService) loadRoadmap(ctx context.Context, roadmapID string) (*model.Roadmap, error) {
	roadmap, err := s.roadmaps.FindByID(ctx, roadmapID)
	if err != nil {
		return nil, util.NewStoreError("find roadmap", err)
	}
	if roadmap == nil {
		return nil, util.ErrRoadmapNotFound
	}
	return roadmap, nil
}

// MarkTopicComplete 将主题加入已完成集合。重复提交是无写入的空操作；
// 并发写入通过 version 检测冲突，重新读取合并后重试。
func (s *ProgressService) MarkTopicComplete(ctx context.Context, userID, roadmapID, topicID string) (*model.UserProgress, error) {
	userID, roadmapID, topicID = strings.TrimSpace(userID), strings.TrimSpace(roadmapID), strings.TrimSpace(topicID)
	if userID == "" || roadmapID == "" || topicID == "" {
		return nil, fmt.Errorf("%w: user_id, roadmap_id and topic_id are required", util.ErrInvalidInput)
	}

	roadmap, err := s.loadRoadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	if roadmap.TopicCount() == 0 {
		return nil, util.ErrRoadmapHasNoTopics
	}
	if !roadmap.HasTopic(topicID) {
		return nil, fmt.Errorf("%w: %s", util.ErrTopicNotInRoadmap, topicID)
	}

	for attempt := 1; attempt <= progressUpdateAttempts; attempt++ {
		existing, err := s.progress.Find(ctx, userID, roadmapID)
		if err != nil {
			return nil, util.NewStoreError("find progress", err)
		}

		if existing == nil {
			now := s.now()
			record := &model.UserProgress{
				UserID:            userID,
				RoadmapID:         roadmapID,
				Career:            roadmap.Career,
				CompletedTopicIDs: datatypes.JSONSlice[string]{topicID},
				LastActivityAt:    now,
			}
			record.CreatedAt, record.UpdatedAt = now, now
			derive(record, roadmap)

			inserted, err := s.progress.Insert(ctx, record)
			if err != nil {
				return nil, util.NewStoreError("insert progress", err)
			}
			if inserted {
				monitoring.ProgressUpdates.WithLabelValues("created").Inc()
				return record, nil
			}
			// 另一请求先插入了记录，重新读取后合并
			continue
		}

		if existing.HasTopic(topicID) {
			monitoring.ProgressUpdates.WithLabelValues("noop").Inc()
			return existing, nil
		}

		now := s.now()
		existing.CompletedTopicIDs = mergeTopicIDs(existing.CompletedTopicIDs, topicID)
		existing.LastActivityAt = now
		existing.UpdatedAt = now
		derive(existing, roadmap)

		ok, err := s.progress.UpdateVersioned(ctx, existing)
		if err != nil {
			return nil, util.NewStoreError("update progress", err)
		}
		if ok {
			monitoring.ProgressUpdates.WithLabelValues("updated").Inc()
			return existing, nil
		}
		logger.Log.Debug("Progress version conflict, retrying",
			zap.String("user_id", userID),
			zap.String("roadmap_id", roadmapID),
			zap.Int("attempt", attempt))
	}

	monitoring.ProgressUpdates.WithLabelValues("conflict").Inc()
	return nil, util.ErrProgressConflict
}

// derive 根据路线图当前内容重新计算 current_section 与百分比
func derive(p *model.UserProgress, roadmap *model.Roadmap) {
	set := gamification.NewSet(p.CompletedTopicIDs)
	p.CurrentSection = gamification.CurrentSectionTitle(roadmap, set)
	p.OverallProgressPercent = gamification.Percent(gamification.CountCompleted(roadmap, set), roadmap.TopicCount())
}

// mergeTopicIDs 集合并集，保留首次出现的顺序
func mergeTopicIDs(ids []string, add ...string) datatypes.JSONSlice[string] {
	seen := make(map[string]bool, len(ids)+len(add))
	out := make(datatypes.JSONSlice[string], 0, len(ids)+len(add))
	for _, list := range [][]string{ids, add} {
		for _, id := range list {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Get 没有记录时返回零进度的默认值，不写入存储
func (s *ProgressService) Get(ctx context.Context, userID, roadmapID string) (*model.UserProgress, error) {
	record, err := s.progress.Find(ctx, userID, roadmapID)
	if err != nil {
		return nil, util.NewStoreError("find progress", err)
	}
	if record == nil {
		return &model.UserProgress{
			UserID:            userID,
			RoadmapID:         roadmapID,
			CompletedTopicIDs: datatypes.JSONSlice[string]{},
		}, nil
	}
	return record, nil
}

func (s *ProgressService) ListForUser(ctx context.Context, userID string) ([]model.UserProgress, error) {
	records, err := s.progress.FindAllForUser(ctx, userID)
	if err != nil {
		return nil, util.NewStoreError("list progress", err)
	}
	if records == nil {
		records = []model.UserProgress{}
	}
	return records, nil
}

func (s *ProgressService) Metrics(ctx context.Context, userID, roadmapID string) (*gamification.Metrics, error) {
	roadmap, err := s.loadRoadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	record, err := s.progress.Find(ctx, userID, roadmapID)
	if err != nil {
		return nil, util.NewStoreError("find progress", err)
	}

	var completed []string
	if record != nil {
		completed = record.CompletedTopicIDs
	}
	m := gamification.ComputeMetrics(roadmap, gamification.NewSet(completed))
	return &m, nil
}

// Summaries 用户所有路线图的进度概览，路线图并发加载
func (s *ProgressService) Summaries(ctx context.Context, userID string) ([]model.ProgressSummary, error) {
	records, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.ProgressSummary, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range records {
		record := records[i]
		g.Go(func() error {
			roadmap, err := s.roadmaps.FindByID(gctx, record.RoadmapID)
			if err != nil {
				return util.NewStoreError("find roadmap", err)
			}
			if roadmap == nil {
				logger.Log.Warn("Progress references a missing roadmap",
					zap.String("user_id", userID), zap.String("roadmap_id", record.RoadmapID))
				return nil
			}
			m := gamification.ComputeMetrics(roadmap, gamification.NewSet(record.CompletedTopicIDs))
			summaries[i] = &model.ProgressSummary{
				RoadmapID:               roadmap.ID,
				Career:                  roadmap.Career,
				TotalTopics:             m.TotalTopics,
				CompletedTopics:         m.CompletedTopics,
				OverallProgressPercent:  m.CompletionPercent,
				CurrentSection:          m.CurrentSection,
				EstimatedWeeksRemaining: m.EstimatedWeeksRemaining,
				LastActivityAt:          record.LastActivityAt,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.ProgressSummary, 0, len(summaries))
	for _, sum := range summaries {
		if sum != nil {
			out = append(out, *sum)
		}
	}
	return out, nil
}
