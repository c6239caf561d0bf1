package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// PayoutMethodHandler управляет реквизитами для вывода средств.
type PayoutMethodHandler struct {
	payouts *service.PayoutService
}

func NewPayoutMethodHandler(payouts *service.PayoutService) *PayoutMethodHandler {
	return &PayoutMethodHandler{payouts: payouts}
}

// List GET /payments/methods
func (h *PayoutMethodHandler) List(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	methods, err := h.payouts.List(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"methods": methods})
}

// Add POST /payments/methods
func (h *PayoutMethodHandler) Add(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req dto.PayoutMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	method, err := h.payouts.Add(c.Request.Context(), userID, payoutInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"method": method})
}

// Update PUT /payments/methods/:id
func (h *PayoutMethodHandler) Update(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.PayoutMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	method, err := h.payouts.Update(c.Request.Context(), userID, id, payoutInput(req))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"method": method})
}

// Delete DELETE /payments/methods/:id
func (h *PayoutMethodHandler) Delete(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.payouts.Delete(c.Request.Context(), userID, id); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "способ выплаты удалён"})
}

// SetPrimary PUT /payments/methods/:id/primary
func (h *PayoutMethodHandler) SetPrimary(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.payouts.SetPrimary(c.Request.Context(), userID, id); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "основной способ выплаты обновлён"})
}

func payoutInput(req dto.PayoutMethodRequest) service.PayoutInput {
	return service.PayoutInput{
		Type:          req.Type,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		RoutingNumber: req.RoutingNumber,
		BankName:      req.BankName,
		Email:         req.Email,
	}
}
