package controller

import (
	"career_advisor_backend/internal/service"
	"career_advisor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RoadmapController struct {
	RoadmapService *service.RoadmapService
}

func NewRoadmapController(roadmapService *service.RoadmapService) *RoadmapController {
	return &RoadmapController{RoadmapService: roadmapService}
}

// swagger:model RoadmapRequest
type RoadmapRequest struct {
	Career string `json:"career" binding:"required"`
	Domain string `json:"domain" binding:"required"`
	Level  string `json:"level"`
}

// GetOrCreateRoadmap godoc
// @Summary 获取或生成学习路线图
// @Description 按 (career, domain) 忽略大小写查找已存储的路线图，未命中时调用 AI 生成并保存
// @Tags 路线图
// @Accept  json
// @Produce  json
// @Param   body body RoadmapRequest true "职业与领域"
// @Success 200 {object} util.Response{data=service.RoadmapResult} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 502 {object} util.Response "生成失败"
// @Failure 504 {object} util.Response "生成超时"
// @Router /api/roadmaps [post]
func (c *RoadmapController) GetOrCreateRoadmap(ctx *gin.Context) {
	var req RoadmapRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.RoadmapService.GetOrCreate(ctx.Request.Context(), req.Career, req.Domain, req.Level)
	if err != nil {
		respondError(ctx, err, true)
		return
	}

	message := "success"
	switch {
	case result.CacheHit:
		message = "roadmap loaded from cache"
	case !result.Persisted:
		message = "roadmap generated but could not be saved"
	case result.Degraded:
		message = "roadmap generated with corrections"
	}
	util.SuccessWithMessage(ctx, message, result)
}

// GetRoadmap godoc
// @Summary 获取路线图
// @Tags 路线图
// @Produce  json
// @Param   id path string true "路线图ID"
// @Success 200 {object} util.Response{data=model.Roadmap} "成功"
// @Failure 404 {object} util.Response "路线图不存在"
// @Router /api/roadmaps/{id} [get]
func (c *RoadmapController) GetRoadmap(ctx *gin.Context) {
	roadmap, err := c.RoadmapService.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, false)
		return
	}
	util.Success(ctx, roadmap)
}

// GetUserRoadmap godoc
// @Summary 获取用户当前的路线图
// @Description 优先返回最近有学习进度的路线图，否则返回用户所选领域下的路线图
// @Tags 路线图
// @Produce  json
// @Param   id path string true "用户ID"
// @Success 200 {object} util.Response{data=model.Roadmap} "成功"
// @Failure 404 {object} util.Response "用户或路线图不存在"
// @Router /api/users/{id}/roadmap [get]
func (c *RoadmapController) GetUserRoadmap(ctx *gin.Context) {
	roadmap, err := c.RoadmapService.LatestForUser(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, false)
		return
	}
	util.Success(ctx, roadmap)
}
