package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// NotificationHandler обрабатывает запросы, связанные с уведомлениями.
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler создаёт новый обработчик уведомлений.
func NewNotificationHandler(service *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// ListNotifications возвращает страницу уведомлений пользователя.
// GET /notifications?page=&limit=&unread_only=true (также unreadOnly)
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	page, err := h.service.List(c.Request.Context(), userID,
		common.ParseIntQuery(c, "page", 1),
		common.ParseIntQuery(c, "limit", 20),
		common.ParseBoolQuery(c, "unread_only") || common.ParseBoolQuery(c, "unreadOnly"),
	)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// MarkAsRead отмечает уведомление как прочитанное.
// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), id, userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "уведомление прочитано"})
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
// PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	count, err := h.service.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

// DeleteNotification удаляет уведомление.
// DELETE /notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "уведомление удалено"})
}
