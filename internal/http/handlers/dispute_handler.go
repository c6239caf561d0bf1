package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

type DisputeHandler struct {
	payments *service.PaymentService
}

func NewDisputeHandler(payments *service.PaymentService) *DisputeHandler {
	return &DisputeHandler{payments: payments}
}

// CreateDispute POST /payments/disputes/:orderId
func (h *DisputeHandler) CreateDispute(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	orderID, ok := common.RequireUUIDParam(c, "orderId")
	if !ok {
		return
	}

	var req dto.DisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "причина спора обязательна")
		return
	}

	dispute, err := h.payments.OpenDispute(c.Request.Context(), orderID, userID, req.Reason, req.Description)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"dispute": dispute})
}
