package repository

import (
	"career_advisor_backend/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.UserProfile) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

// FindByID 不存在时返回 nil, nil
func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.UserProfile, error) {
	var user model.UserProfile
	err := r.DB.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserProfile{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) Update(ctx context.Context, user *model.UserProfile) error {
	return r.DB.WithContext(ctx).Save(user).Error
}
