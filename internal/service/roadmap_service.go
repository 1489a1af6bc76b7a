package service

import (
	"career_advisor_backend/internal/config"
	"career_advisor_backend/internal/generator"
	"career_advisor_backend/internal/model"
	"career_advisor_backend/internal/repository"
	"career_advisor_backend/internal/util"
	"career_advisor_backend/pkg/logger"
	"career_advisor_backend/pkg/monitoring"
	"career_advisor_backend/pkg/tracing"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RoadmapResult GetOrCreate 的返回值，Degraded 表示生成结果经过修正
type RoadmapResult struct {
	Roadmap   *model.Roadmap `json:"roadmap"`
	CacheHit  bool           `json:"cache_hit"`
	Persisted bool           `json:"persisted"`
	Degraded  bool           `json:"degraded"`
	Notices   []string       `json:"notices,omitempty"`
}

type RoadmapService struct {
	repo      repository.RoadmapRepository
	progress  repository.ProgressRepository
	users     *repository.UserRepository
	generator generator.ContentGenerator
	storage   *StorageService
	defaults  config.RoadmapConfig
	timeout   atomic.Int64
	group     singleflight.Group
}

func NewRoadmapService(
	repo repository.RoadmapRepository,
	progress repository.ProgressRepository,
	users *repository.UserRepository,
	gen generator.ContentGenerator,
	storage *StorageService,
	cfg *config.Config,
) *RoadmapService {
	s := &RoadmapService{
		repo:      repo,
		progress:  progress,
		users:     users,
		generator: gen,
		storage:   storage,
		defaults:  cfg.Roadmap,
	}
	s.SetTimeout(cfg.AI.Timeout())
	return s
}

// SetTimeout 配置热更新时调用
func (s *RoadmapService) SetTimeout(d time.Duration) {
	s.timeout.Store(int64(d))
}

func (s *RoadmapService) Timeout() time.Duration {
	return time.Duration(s.timeout.Load())
}

// GetOrCreate 命中缓存直接返回；未命中时调用生成器，修正结果后写入存储。
// 同一进程内相同 key 的并发未命中只会触发一次生成。
func (s *RoadmapService) GetOrCreate(ctx context.Context, career, domain, level string) (*RoadmapResult, error) {
	career, domain = model.NormalizeKey(career, domain)
	if career == "" || domain == "" {
		return nil, fmt.Errorf("%w: career and domain are required", util.ErrInvalidInput)
	}
	if strings.TrimSpace(level) == "" {
		level = s.defaults.DefaultLevel
	}

	existing, err := s.repo.FindByKey(ctx, career, domain)
	if err != nil {
		return nil, util.NewStoreError("find roadmap", err)
	}
	tracing.AnnotateRoadmapLookup(ctx, career, domain, existing != nil)
	if existing != nil {
		monitoring.RoadmapCacheLookups.WithLabelValues("hit").Inc()
		return &RoadmapResult{Roadmap: existing, CacheHit: true, Persisted: true}, nil
	}
	monitoring.RoadmapCacheLookups.WithLabelValues("miss").Inc()

	v, err, shared := s.group.Do(career+"|"+domain, func() (interface{}, error) {
		// 生成不绑定单个请求的取消，只受超时约束
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Timeout())
		defer cancel()
		return s.generate(genCtx, career, domain, level)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Log.Debug("Roadmap generation shared between concurrent requests",
			zap.String("career", career), zap.String("domain", domain))
	}
	result := *v.(*RoadmapResult)
	return &result, nil
}

func (s *RoadmapService) generate(ctx context.Context, career, domain, level string) (*RoadmapResult, error) {
	start := time.Now()
	raw, err := s.generator.GenerateJSON(ctx, generator.RoadmapPrompt(career, domain, level))
	if err != nil {
		logger.Log.Error("Roadmap generation failed",
			zap.String("career", career),
			zap.String("domain", domain),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	roadmap, notices := SanitizeRoadmap(raw, career, domain, s.defaults)
	result := &RoadmapResult{Roadmap: roadmap, Degraded: len(notices) > 0, Notices: notices}
	if result.Degraded {
		monitoring.FallbackCounter.WithLabelValues("roadmap_sanitized").Inc()
		logger.Log.Warn("Generated roadmap required sanitizing",
			zap.String("career", career),
			zap.String("domain", domain),
			zap.Strings("notices", notices))
	}

	stored, created, err := s.repo.Insert(ctx, roadmap)
	if err != nil {
		// 缓存写入失败不影响本次返回
		monitoring.FallbackCounter.WithLabelValues("roadmap_unpersisted").Inc()
		logger.Log.Error("Failed to persist generated roadmap",
			zap.String("career", career),
			zap.String("domain", domain),
			zap.Error(err))
		roadmap.ID = ""
		s.archive(ctx, raw, roadmap, notices)
		return result, nil
	}

	if !created {
		logger.Log.Info("Roadmap already stored by a concurrent request",
			zap.String("career", career), zap.String("domain", domain), zap.String("roadmap_id", stored.ID))
		return &RoadmapResult{Roadmap: stored, Persisted: true}, nil
	}

	result.Roadmap = stored
	result.Persisted = true
	s.archive(ctx, raw, stored, notices)

	logger.Log.Info("Roadmap generated",
		zap.String("career", career),
		zap.String("domain", domain),
		zap.String("roadmap_id", stored.ID),
		zap.Int("topics", stored.TopicCount()),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (s *RoadmapService) archive(ctx context.Context, raw map[string]any, roadmap *model.Roadmap, notices []string) {
	if s.storage == nil || !s.defaults.ArchiveRaw {
		return
	}
	key, err := s.storage.ArchiveGeneration(ctx, GenerationRecord{
		Kind:      "roadmap",
		Career:    roadmap.Career,
		Domain:    roadmap.Domain,
		Provider:  s.generator.Name(),
		RoadmapID: roadmap.ID,
		Notices:   notices,
		Raw:       raw,
	})
	if err != nil {
		logger.Log.Warn("Failed to archive roadmap generation", zap.Error(err))
		return
	}
	logger.Log.Debug("Roadmap generation archived", zap.String("key", key))
}

func (s *RoadmapService) GetByID(ctx context.Context, id string) (*model.Roadmap, error) {
	roadmap, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NewStoreError("find roadmap", err)
	}
	if roadmap == nil {
		return nil, util.ErrRoadmapNotFound
	}
	return roadmap, nil
}

// LatestForUser 优先取最近更新的进度记录对应的路线图，否则取用户领域下的第一条
func (s *RoadmapService) LatestForUser(ctx context.Context, userID string) (*model.Roadmap, error) {
	latest, err := s.progress.FindLatestForUser(ctx, userID)
	if err != nil {
		return nil, util.NewStoreError("find latest progress", err)
	}
	if latest != nil {
		roadmap, err := s.repo.FindByID(ctx, latest.RoadmapID)
		if err != nil {
			return nil, util.NewStoreError("find roadmap", err)
		}
		if roadmap != nil {
			return roadmap, nil
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, util.NewStoreError("find user", err)
	}
	if user == nil {
		return nil, util.ErrUserNotFound
	}
	if user.Domain == nil {
		return nil, util.ErrRoadmapNotFound
	}

	roadmap, err := s.repo.FindFirstByDomain(ctx, string(*user.Domain))
	if err != nil {
		return nil, util.NewStoreError("find roadmap", err)
	}
	if roadmap == nil {
		return nil, util.ErrRoadmapNotFound
	}
	return roadmap, nil
}
