package controller

import (
	"career_advisor_backend/internal/service"
	"career_advisor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// swagger:model CompleteTopicRequest
type CompleteTopicRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	RoadmapID string `json:"roadmap_id" binding:"required"`
	TopicID   string `json:"topic_id" binding:"required"`
}

// CompleteTopic godoc
// @Summary 标记主题完成
// @Description 幂等操作，重复提交同一主题不会重复计数
// @Tags 学习进度
// @Accept  json
// @Produce  json
// @Param   body body CompleteTopicRequest true "用户、路线图与主题"
// @Success 200 {object} util.Response{data=model.UserProgress} "成功"
// @Failure 400 {object} util.Response "请求参数错误或主题不属于该路线图"
// @Failure 404 {object} util.Response "路线图不存在"
// @Failure 409 {object} util.Response "并发修改冲突"
// @Router /api/progress [post]
func (c *ProgressController) CompleteTopic(ctx *gin.Context) {
	var req CompleteTopicRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "user_id, roadmap_id, and topic_id are required")
		return
	}

	progress, err := c.ProgressService.MarkTopicComplete(ctx.Request.Context(), req.UserID, req.RoadmapID, req.TopicID)
	if err != nil {
		respondError(ctx, err, false)
		return
	}
	util.Success(ctx, progress)
}

// GetProgress godoc
// @Summary 查询学习进度
// @Description 指定 roadmap_id 时返回单条记录（不存在时返回空进度），否则返回该用户全部记录
// @Tags 学习进度
// @Produce  json
// @Param   user_id query string true "用户ID"
// @Param   roadmap_id query string false "路线图ID"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "缺少 user_id"
// @Router /api/progress [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	userID := ctx.Query("user_id")
	if userID == "" {
		util.BadRequest(ctx, "user_id is required")
		return
	}

	if roadmapID := ctx.Query("roadmap_id"); roadmapID != "" {
		progress, err := c.ProgressService.Get(ctx.Request.Context(), userID, roadmapID)
		if err != nil {
			respondError(ctx, err, false)
			return
		}
		util.Success(ctx, progress)
		return
	}

	list, err := c.ProgressService.ListForUser(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, false)
		return
	}
	util.Success(ctx, list)
}

// GetMetrics godoc
// @Summary 查询游戏化指标
// @Description 完成百分比、当前阶段、下一个主题、里程碑与各阶段进度
// @Tags 学习进度
// @Produce  json
// @Param   user_id query string true "用户ID"
// @Param   roadmap_id query string true "路线图ID"
// @Success 200 {object} util.Response{data=gamification.Metrics} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "路线图不存在"
// @Router /api/progress/metrics [get]
func (c *ProgressController) GetMetrics(ctx *gin.Context) {
	userID, roadmapID := ctx.Query("user_id"), ctx.Query("roadmap_id")
	if userID == "" || roadmapID == "" {
		util.BadRequest(ctx, "user_id and roadmap_id are required")
		return
	}

	metrics, err := c.ProgressService.Metrics(ctx.Request.Context(), userID, roadmapID)
	if err != nil {
		respondError(ctx, err, false)
		return
	}
	util.Success(ctx, metrics)
}

// GetSummary godoc
// @Summary 用户进度概览
// @Tags 学习进度
// @Produce  json
// @Param   id path string true "用户ID"
// @Success 200 {object} util.Response{data=[]model.ProgressSummary} "成功"
// @Router /api/users/{id}/progress/summary [get]
func (c *ProgressController) GetSummary(ctx *gin.Context) {
	summaries, err := c.ProgressService.Summaries(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, false)
		return
	}
	util.Success(ctx, summaries)
}
