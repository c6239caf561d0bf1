package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// StatsHandler отдаёт сводки для дашбордов покупателя, продавца и администратора.
type StatsHandler struct {
	orders   *service.OrderService
	payments *service.PaymentService
}

// NewStatsHandler создаёт хэндлер статистики.
func NewStatsHandler(orders *service.OrderService, payments *service.PaymentService) *StatsHandler {
	return &StatsHandler{orders: orders, payments: payments}
}

// BuyerStats обрабатывает GET /orders/buyer/stats.
func (h *StatsHandler) BuyerStats(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	stats, err := h.orders.BuyerStats(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// SellerStats обрабатывает GET /orders/seller/stats.
func (h *StatsHandler) SellerStats(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	stats, err := h.orders.SellerStats(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// PlatformStats обрабатывает GET /payments/platform-stats (только admin).
func (h *StatsHandler) PlatformStats(c *gin.Context) {
	stats, err := h.payments.PlatformStats(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
