package controller

import (
	"career_advisor_backend/internal/generator"
	"career_advisor_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError 将服务层错误映射为统一响应。
// generation 为 true 时，未识别的错误视为生成后端故障 (502)。
func respondError(ctx *gin.Context, err error, generation bool) {
	var storeErr *util.StoreError
	var httpErr *generator.HTTPError

	switch {
	case errors.Is(err, util.ErrInvalidInput),
		errors.Is(err, util.ErrTopicNotInRoadmap),
		errors.Is(err, util.ErrRoadmapHasNoTopics):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrRoadmapNotFound),
		errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrProgressConflict),
		errors.Is(err, util.ErrEmailRegistered):
		util.Conflict(ctx, err.Error())
	case errors.As(err, &storeErr):
		util.LogInternalError(ctx, err)
	case errors.Is(err, generator.ErrTimeout):
		util.Error(ctx, http.StatusGatewayTimeout, "AI generation timed out, please try again")
	case generator.IsMalformed(err),
		errors.Is(err, generator.ErrEmptyResponse),
		errors.As(err, &httpErr),
		generation:
		util.Error(ctx, http.StatusBadGateway, "AI generation failed: "+err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
