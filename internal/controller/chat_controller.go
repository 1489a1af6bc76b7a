package controller

import (
	"career_advisor_backend/internal/generator"
	"career_advisor_backend/internal/service"
	"career_advisor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

type ChatHistoryMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content"`
}

// swagger:model ChatRequest
type ChatRequest struct {
	NewMessage          string               `json:"new_message" binding:"required"`
	ConversationHistory []ChatHistoryMessage `json:"conversation_history" binding:"dive"`
	CareerContext       string               `json:"career_context"`
	UserID              string               `json:"user_id"`
	SessionID           string               `json:"session_id"`
}

// Chat godoc
// @Summary AI 导师对话
// @Description 携带 user_id 时保存会话；携带 session_id 时追加到已有会话
// @Tags 导师
// @Accept  json
// @Produce  json
// @Param   body body ChatRequest true "对话内容"
// @Success 200 {object} util.Response{data=service.ChatReply} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "会话不存在"
// @Failure 502 {object} util.Response "生成失败"
// @Failure 504 {object} util.Response "生成超时"
// @Router /api/chat [post]
func (c *ChatController) Chat(ctx *gin.Context) {
	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	history := make([]generator.Message, 0, len(req.ConversationHistory))
	for _, m := range req.ConversationHistory {
		history = append(history, generator.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := c.ChatService.Chat(ctx.Request.Context(), service.ChatInput{
		UserID:        req.UserID,
		SessionID:     req.SessionID,
		CareerContext: req.CareerContext,
		Message:       req.NewMessage,
		History:       history,
	})
	if err != nil {
		respondError(ctx, err, true)
		return
	}
	util.Success(ctx, reply)
}

// ListSessions godoc
// @Summary 用户的对话会话列表
// @Tags 导师
// @Produce  json
// @Param   id path string true "用户ID"
// @Success 200 {object} util.Response{data=[]model.ChatSession} "成功"
// @Router /api/users/{id}/chat-sessions [get]
func (c *ChatController) ListSessions(ctx *gin.Context) {
	sessions, err := c.ChatService.ListSessions(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, false)
		return
	}
	util.Success(ctx, sessions)
}
