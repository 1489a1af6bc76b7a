package controller

import (
	"career_advisor_backend/internal/service"
	"career_advisor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CareerController 职业推荐与技能差距分析
type CareerController struct {
	RecommendationService *service.RecommendationService
	AnalyzeService        *service.AnalyzeService
}

func NewCareerController(recommend *service.RecommendationService, analyze *service.AnalyzeService) *CareerController {
	return &CareerController{
		RecommendationService: recommend,
		AnalyzeService:        analyze,
	}
}

// swagger:model RecommendRequest
type RecommendRequest struct {
	Skills         []string `json:"skills" binding:"required"`
	Interests      []string `json:"interests"`
	EducationLevel string   `json:"education_level"`
	Domain         string   `json:"domain" binding:"required"`
}

// swagger:model AnalyzeRequest
type AnalyzeRequest struct {
	ResumeText   string `json:"resume_text" binding:"required"`
	TargetCareer string `json:"target_career" binding:"required"`
	Domain       string `json:"domain"`
}

// Recommend godoc
// @Summary 职业推荐
// @Description 根据技能、兴趣和领域推荐 3 个职业方向；AI 失败时返回该领域的内置推荐 (fallback_used=true)
// @Tags 职业
// @Accept  json
// @Produce  json
// @Param   body body RecommendRequest true "用户画像"
// @Success 200 {object} util.Response{data=model.RecommendResponse} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/recommend [post]
func (c *CareerController) Recommend(ctx *gin.Context) {
	var req RecommendRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "skills (array) and domain are required")
		return
	}

	resp, err := c.RecommendationService.Recommend(ctx.Request.Context(), service.RecommendInput{
		Skills:         req.Skills,
		Interests:      req.Interests,
		EducationLevel: req.EducationLevel,
		Domain:         req.Domain,
	})
	if err != nil {
		respondError(ctx, err, false)
		return
	}
	util.Success(ctx, resp)
}

// Analyze godoc
// @Summary 技能差距分析
// @Description 对比简历与目标职业，返回已有技能、缺失技能与学习资源
// @Tags 职业
// @Accept  json
// @Produce  json
// @Param   body body AnalyzeRequest true "简历与目标职业"
// @Success 200 {object} util.Response{data=model.AnalyzeResponse} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 502 {object} util.Response "生成失败"
// @Failure 504 {object} util.Response "生成超时"
// @Router /api/analyze [post]
func (c *CareerController) Analyze(ctx *gin.Context) {
	var req AnalyzeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "resume_text and target_career are required")
		return
	}

	resp, err := c.AnalyzeService.Analyze(ctx.Request.Context(), req.ResumeText, req.TargetCareer, req.Domain)
	if err != nil {
		respondError(ctx, err, true)
		return
	}
	util.Success(ctx, resp)
}
