package repository

import (
	"career_advisor_backend/internal/model"
	"career_advisor_backend/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoadmapRepository 路线图存储，按规范化的 (career, domain) 唯一
type RoadmapRepository interface {
	// FindByKey 不存在时返回 nil, nil
	FindByKey(ctx context.Context, career, domain string) (*model.Roadmap, error)
	FindByID(ctx context.Context, id string) (*model.Roadmap, error)
	// Insert 键冲突时不覆盖，返回已存储的副本与 created=false
	Insert(ctx context.Context, roadmap *model.Roadmap) (stored *model.Roadmap, created bool, err error)
	FindFirstByDomain(ctx context.Context, domain string) (*model.Roadmap, error)
}

type GormRoadmapRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ttl   time.Duration
}

func NewRoadmapRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration) *GormRoadmapRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &GormRoadmapRepository{DB: db, Redis: rdb, ttl: ttl}
}

func roadmapKeyCacheKey(career, domain string) string {
	return fmt.Sprintf("career_advisor:roadmap:key:%s|%s", career, domain)
}

func roadmapIDCacheKey(id string) string {
	return "career_advisor:roadmap:id:" + id
}

func (r *GormRoadmapRepository) FindByKey(ctx context.Context, career, domain string) (*model.Roadmap, error) {
	career, domain = model.NormalizeKey(career, domain)
	if cached := r.cacheGet(ctx, roadmapKeyCacheKey(career, domain)); cached != nil {
		return cached, nil
	}

	var roadmap model.Roadmap
	err := r.DB.WithContext(ctx).Where("career = ? AND domain = ?", career, domain).First(&roadmap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.cacheSet(ctx, &roadmap)
	return &roadmap, nil
}

func (r *GormRoadmapRepository) FindByID(ctx context.Context, id string) (*model.Roadmap, error) {
	if cached := r.cacheGet(ctx, roadmapIDCacheKey(id)); cached != nil {
		return cached, nil
	}

	var roadmap model.Roadmap
	err := r.DB.WithContext(ctx).First(&roadmap, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.cacheSet(ctx, &roadmap)
	return &roadmap, nil
}

func (r *GormRoadmapRepository) Insert(ctx context.Context, roadmap *model.Roadmap) (*model.Roadmap, bool, error) {
	roadmap.Career, roadmap.Domain = model.NormalizeKey(roadmap.Career, roadmap.Domain)

	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(roadmap)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 0 {
		// 并发未命中时另一请求已写入，以已存储的副本为准
		var stored model.Roadmap
		err := r.DB.WithContext(ctx).Where("career = ? AND domain = ?", roadmap.Career, roadmap.Domain).First(&stored).Error
		if err != nil {
			return nil, false, err
		}
		r.cacheSet(ctx, &stored)
		return &stored, false, nil
	}

	r.cacheSet(ctx, roadmap)
	return roadmap, true, nil
}

func (r *GormRoadmapRepository) FindFirstByDomain(ctx context.Context, domain string) (*model.Roadmap, error) {
	_, domain = model.NormalizeKey("", domain)

	var roadmap model.Roadmap
	err := r.DB.WithContext(ctx).Where("domain = ?", domain).Order("created_at ASC").First(&roadmap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &roadmap, nil
}

// 路线图创建后不可变，缓存无需失效，只需过期
func (r *GormRoadmapRepository) cacheGet(ctx context.Context, key string) *model.Roadmap {
	if r.Redis == nil {
		return nil
	}
	data, err := r.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Roadmap cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	var roadmap model.Roadmap
	if err := json.Unmarshal(data, &roadmap); err != nil {
		r.Redis.Del(ctx, key)
		return nil
	}
	return &roadmap
}

func (r *GormRoadmapRepository) cacheSet(ctx context.Context, roadmap *model.Roadmap) {
	if r.Redis == nil {
		return
	}
	data, err := json.Marshal(roadmap)
	if err != nil {
		return
	}
	pipe := r.Redis.Pipeline()
	pipe.Set(ctx, roadmapKeyCacheKey(roadmap.Career, roadmap.Domain), data, r.ttl)
	pipe.Set(ctx, roadmapIDCacheKey(roadmap.ID), data, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("Roadmap cache write failed", zap.String("roadmap_id", roadmap.ID), zap.Error(err))
	}
}
