package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// ConversationHandler обслуживает чат: диалоги, сообщения, реакции и вложения.
type ConversationHandler struct {
	chat *service.ChatService
}

// NewConversationHandler создаёт хэндлер чата.
func NewConversationHandler(chat *service.ChatService) *ConversationHandler {
	return &ConversationHandler{chat: chat}
}

// ListConversations обрабатывает GET /chat/conversations.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	h.listConversations(c, "")
}

// SearchConversations обрабатывает GET /chat/conversations/search?q=.
func (h *ConversationHandler) SearchConversations(c *gin.Context) {
	h.listConversations(c, c.Query("q"))
}

func (h *ConversationHandler) listConversations(c *gin.Context, search string) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	convs, err := h.chat.ListConversations(c.Request.Context(), userID, search)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// GetOrCreate обрабатывает POST /chat/conversations.
func (h *ConversationHandler) GetOrCreate(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req dto.ConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	in := service.ConversationRequest{Type: req.Type}
	var err error
	if in.ParticipantID, err = common.ParseUUIDField(req.ParticipantID, "participant_id"); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if in.OrderID, err = common.ParseUUIDField(req.OrderID, "order_id"); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if in.GigID, err = common.ParseUUIDField(req.GigID, "gig_id"); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	conv, created, err := h.chat.GetOrCreate(c.Request.Context(), userID, in)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	respondConversation(c, conv, created)
}

// Direct обрабатывает POST /chat/conversations/direct.
func (h *ConversationHandler) Direct(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req dto.DirectConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "participant_id обязателен")
		return
	}
	participantID, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		common.RespondBadRequest(c, "неверный participant_id")
		return
	}

	conv, created, err := h.chat.Direct(c.Request.Context(), userID, participantID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	respondConversation(c, conv, created)
}

// ListMessages обрабатывает GET /chat/conversations/:id/messages?page=&limit=.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	conversationID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	page, err := h.chat.Messages(c.Request.Context(), conversationID, userID,
		common.ParseIntQuery(c, "page", 1), common.ParseIntQuery(c, "limit", 50))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// SendMessage обрабатывает POST /chat/conversations/:id/messages.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	conversationID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	replyTo, err := common.ParseUUIDField(req.ReplyTo, "reply_to")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), conversationID, userID, service.SendMessageInput{
		Content:     req.Content,
		MessageType: req.MessageType,
		Attachments: req.Attachments,
		ReplyTo:     replyTo,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// MarkRead обрабатывает PATCH /chat/conversations/:id/read.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	conversationID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.chat.MarkRead(c.Request.Context(), conversationID, userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "сообщения прочитаны"})
}

// UpdateMessage обрабатывает PUT /chat/messages/:id.
func (h *ConversationHandler) UpdateMessage(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	messageID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "текст сообщения обязателен")
		return
	}

	msg, err := h.chat.EditMessage(c.Request.Context(), messageID, userID, req.Content)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// DeleteMessage обрабатывает DELETE /chat/messages/:id.
func (h *ConversationHandler) DeleteMessage(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	messageID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.chat.DeleteMessage(c.Request.Context(), messageID, userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "сообщение удалено"})
}

// ToggleReaction обрабатывает POST /chat/messages/:id/reactions.
func (h *ConversationHandler) ToggleReaction(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	messageID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AddMessageReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "emoji обязателен")
		return
	}

	reactions, err := h.chat.ToggleReaction(c.Request.Context(), messageID, userID, req.Emoji)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}

// Upload обрабатывает POST /chat/upload (multipart: file, conversation_id).
func (h *ConversationHandler) Upload(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	conversationID, err := uuid.Parse(c.PostForm("conversation_id"))
	if err != nil {
		common.RespondBadRequest(c, "неверный conversation_id")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "файл обязателен")
		return
	}

	attachment, err := h.chat.Upload(c.Request.Context(), conversationID, userID, fh)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"attachment": attachment})
}

// MigrateOrderMessages обрабатывает POST /chat/migrate-order-messages (только admin).
func (h *ConversationHandler) MigrateOrderMessages(c *gin.Context) {
	result, err := h.chat.MigrateOrderMessages(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondConversation(c *gin.Context, conv *models.Conversation, created bool) {
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.ConversationResponse{Conversation: conv, Created: created})
}
