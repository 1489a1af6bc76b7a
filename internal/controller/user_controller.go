package controller

import (
	"career_advisor_backend/internal/model"
	"career_advisor_backend/internal/service"
	"career_advisor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController 处理用户档案相关的HTTP请求
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{
		UserService: userService,
	}
}

// CreateUserRequest 定义用户创建请求结构
// swagger:model CreateUserRequest
type CreateUserRequest struct {
	Email          string   `json:"email" binding:"required"`
	FullName       *string  `json:"full_name"`
	AvatarURL      *string  `json:"avatar_url"`
	Domain         *string  `json:"domain" binding:"omitempty,oneof=technology healthcare finance education arts engineering business science law other"`
	EducationLevel *string  `json:"education_level" binding:"omitempty,oneof=high_school associate bachelor master doctorate self_taught bootcamp other"`
	Skills         []string `json:"skills"`
	Interests      []string `json:"interests"`
	TargetCareer   *string  `json:"target_career"`
}

// UpdateUserRequest 部分更新，未提供的字段保持不变
// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	FullName       *string  `json:"full_name"`
	AvatarURL      *string  `json:"avatar_url"`
	Domain         *string  `json:"domain" binding:"omitempty,oneof=technology healthcare finance education arts engineering business science law other"`
	EducationLevel *string  `json:"education_level" binding:"omitempty,oneof=high_school associate bachelor master doctorate self_taught bootcamp other"`
	Skills         []string `json:"skills"`
	Interests      []string `json:"interests"`
	TargetCareer   *string  `json:"target_career"`
}

func (r UpdateUserRequest) toInput() service.ProfileInput {
	in := service.ProfileInput{
		FullName:     r.FullName,
		AvatarURL:    r.AvatarURL,
		Skills:       r.Skills,
		Interests:    r.Interests,
		TargetCareer: r.TargetCareer,
	}
	if r.Domain != nil {
		d := model.Domain(*r.Domain)
		in.Domain = &d
	}
	if r.EducationLevel != nil {
		e := model.EducationLevel(*r.EducationLevel)
		in.EducationLevel = &e
	}
	return in
}

// CreateUser godoc
// @Summary 创建用户档案
// @Description 邮箱必填，统一转为小写；重复邮箱返回 409
// @Tags 用户
// @Accept  json
// @Produce  json
// @Param   body body CreateUserRequest true "用户档案"
// @Success 201 {object} util.Response{data=model.UserProfile} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "邮箱已存在"
// @Router /api/users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	in := UpdateUserRequest{
		FullName:       req.FullName,
		AvatarURL:      req.AvatarURL,
		Domain:         req.Domain,
		EducationLevel: req.EducationLevel,
		Skills:         req.Skills,
		Interests:      req.Interests,
		TargetCareer:   req.TargetCareer,
	}.toInput()
	in.Email = &req.Email

	user, err := c.UserService.Create(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, err, false)
		return
	}
	util.Created(ctx, user)
}

// GetUser godoc
// @Summary 获取用户档案
// @Tags 用户
// @Produce  json
// @Param   id path string true "用户ID"
// @Success 200 {object} util.Response{data=model.UserProfile} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.UserService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, false)
		return
	}
	util.Success(ctx, user)
}

// UpdateUser godoc
// @Summary 更新用户档案
// @Description 部分更新，邮箱不可修改
// @Tags 用户
// @Accept  json
// @Produce  json
// @Param   id path string true "用户ID"
// @Param   body body UpdateUserRequest true "需要更新的字段"
// @Success 200 {object} util.Response{data=model.UserProfile} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id} [patch]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	var req UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.Update(ctx.Request.Context(), ctx.Param("id"), req.toInput())
	if err != nil {
		respondError(ctx, err, false)
		return
	}
	util.Success(ctx, user)
}
