package repository

import (
	"career_advisor_backend/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRepository 进度记录存储，(user_id, roadmap_id) 唯一
type ProgressRepository interface {
	// Find 不存在时返回 nil, nil
	Find(ctx context.Context, userID, roadmapID string) (*model.UserProgress, error)
	// Insert 唯一键冲突时返回 false 而不是错误
	Insert(ctx context.Context, progress *model.UserProgress) (bool, error)
	// UpdateVersioned 仅当存储中的 version 等于 progress.Version 时写入，成功后 version 加一
	UpdateVersioned(ctx context.Context, progress *model.UserProgress) (bool, error)
	FindAllForUser(ctx context.Context, userID string) ([]model.UserProgress, error)
	FindLatestForUser(ctx context.Context, userID string) (*model.UserProgress, error)
}

type GormProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *GormProgressRepository {
	return &GormProgressRepository{DB: db}
}

func (r *GormProgressRepository) Find(ctx context.Context, userID, roadmapID string) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND roadmap_id = ?", userID, roadmapID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *GormProgressRepository) Insert(ctx context.Context, progress *model.UserProgress) (bool, error) {
	if progress.Version == 0 {
		progress.Version = 1
	}
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(progress)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormProgressRepository) UpdateVersioned(ctx context.Context, progress *model.UserProgress) (bool, error) {
	expected := progress.Version
	result := r.DB.WithContext(ctx).Model(&model.UserProgress{}).
		Where("id = ? AND version = ?", progress.ID, expected).
		Updates(map[string]interface{}{
			"completed_topic_ids":      progress.CompletedTopicIDs,
			"current_section":          progress.CurrentSection,
			"overall_progress_percent": progress.OverallProgressPercent,
			"last_activity_at":         progress.LastActivityAt,
			"updated_at":               progress.UpdatedAt,
			"version":                  expected + 1,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	progress.Version = expected + 1
	return true, nil
}

func (r *GormProgressRepository) FindAllForUser(ctx context.Context, userID string) ([]model.UserProgress, error) {
	var records []model.UserProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&records).Error
	return records, err
}

func (r *GormProgressRepository) FindLatestForUser(ctx context.Context, userID string) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}
