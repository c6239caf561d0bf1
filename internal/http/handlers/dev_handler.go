package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// DevHandler обслуживает маршруты /api/test. Монтируется только в development.
type DevHandler struct {
	orders *service.OrderService
}

// NewDevHandler создаёт хэндлер маршрутов разработки.
func NewDevHandler(orders *service.OrderService) *DevHandler {
	return &DevHandler{orders: orders}
}

// UpdateOrderStatus обрабатывает POST /api/test/update-order-status/:id.
func (h *DevHandler) UpdateOrderStatus(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	orderID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ForceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "status обязателен")
		return
	}
	if _, known := models.ValidOrderStatuses[req.Status]; !known {
		common.RespondBadRequest(c, "неизвестный статус заказа")
		return
	}

	order, err := h.orders.ForceStatus(c.Request.Context(), orderID, userID, req.Status, req.Note)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ListOrders обрабатывает GET /api/test/orders.
func (h *DevHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}
