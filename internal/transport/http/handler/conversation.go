package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"botgpt/internal/app"
	"botgpt/internal/transport/http/response"
)

type ConversationHandler struct {
	conversationService *app.ConversationService
}

type CreateConversationRequest struct {
	UserID       uint   `json:"user_id" binding:"required,gt=0"`
	FirstMessage string `json:"first_message" binding:"required"`
	Mode         string `json:"mode"`
	Title        string `json:"title" binding:"max=256"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func NewConversationHandler(conversationService *app.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	detail, err := h.conversationService.Create(c.Request.Context(), app.CreateConversationInput{
		UserID:       req.UserID,
		FirstMessage: req.FirstMessage,
		Mode:         req.Mode,
		Title:        req.Title,
	})
	if err != nil {
		var data gin.H
		if detail != nil {
			data = gin.H{"conversation_id": detail.ID, "conversation": detail}
		}
		writeError(c, err, "create conversation failed", data)
		return
	}

	response.Created(c, detail)
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil || userID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "user_id query parameter is required")
		return
	}

	list, err := h.conversationService.List(uint(userID))
	if err != nil {
		writeError(c, err, "list conversations failed", nil)
		return
	}
	response.OK(c, list)
}

func (h *ConversationHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}

	detail, err := h.conversationService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "get conversation failed", nil)
		return
	}
	response.OK(c, detail)
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}

	if err := h.conversationService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err, "delete conversation failed", nil)
		return
	}
	response.OK(c, gin.H{"deleted_conversation_id": id})
}

func (h *ConversationHandler) SendMessage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	reply, err := h.conversationService.SendMessage(c.Request.Context(), id, req.Content)
	if err != nil {
		writeError(c, err, "send message failed", replyData(id, reply))
		return
	}
	response.OK(c, reply)
}

// Reply regenerates the answer for a conversation whose last model call failed.
func (h *ConversationHandler) Reply(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}

	reply, err := h.conversationService.ResumeReply(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "reply failed", replyData(id, reply))
		return
	}
	response.OK(c, reply)
}

func replyData(conversationID uint, reply *app.Reply) gin.H {
	data := gin.H{"conversation_id": conversationID}
	if reply != nil && reply.UserMessage != nil {
		data["user_message"] = reply.UserMessage
	}
	return data
}
