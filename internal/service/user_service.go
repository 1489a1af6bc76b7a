package service

import (
	"career_advisor_backend/internal/model"
	"career_advisor_backend/internal/repository"
	"career_advisor_backend/internal/util"
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

var validate = validator.New()

type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// ProfileInput 创建与部分更新共用，nil 字段表示不修改
type ProfileInput struct {
	Email          *string
	FullName       *string
	AvatarURL      *string
	Domain         *model.Domain
	EducationLevel *model.EducationLevel
	Skills         []string
	Interests      []string
	TargetCareer   *string
}

func (s *UserService) Create(ctx context.Context, in ProfileInput) (*model.UserProfile, error) {
	if in.Email == nil || strings.TrimSpace(*in.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", util.ErrInvalidInput)
	}
	email := strings.ToLower(strings.TrimSpace(*in.Email))
	// 先去空白再校验格式
	if err := validate.Var(email, "email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", util.ErrInvalidInput, email)
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, util.NewStoreError("find user", err)
	}
	if exists {
		return nil, util.ErrEmailRegistered
	}

	user := &model.UserProfile{
		Email:     email,
		Skills:    datatypes.JSONSlice[string]{},
		Interests: datatypes.JSONSlice[string]{},
	}
	apply(user, in)
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, util.NewStoreError("create user", err)
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.UserProfile, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, util.NewStoreError("find user", err)
	}
	if user == nil {
		return nil, util.ErrUserNotFound
	}
	return user, nil
}

// Update 邮箱不可修改
func (s *UserService) Update(ctx context.Context, id string, in ProfileInput) (*model.UserProfile, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(user, in)
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, util.NewStoreError("update user", err)
	}
	return user, nil
}

func apply(user *model.UserProfile, in ProfileInput) {
	if in.FullName != nil {
		user.FullName = trimmedOrNil(*in.FullName)
	}
	if in.AvatarURL != nil {
		user.AvatarURL = trimmedOrNil(*in.AvatarURL)
	}
	if in.Domain != nil {
		user.Domain = in.Domain
	}
	if in.EducationLevel != nil {
		user.EducationLevel = in.EducationLevel
	}
	if in.Skills != nil {
		user.Skills = cleanList(in.Skills)
	}
	if in.Interests != nil {
		user.Interests = cleanList(in.Interests)
	}
	if in.TargetCareer != nil {
		user.TargetCareer = trimmedOrNil(*in.TargetCareer)
	}
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func cleanList(in []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	return out
}
