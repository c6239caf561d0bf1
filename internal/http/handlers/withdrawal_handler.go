package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

type WithdrawalHandler struct {
	payments *service.PaymentService
}

func NewWithdrawalHandler(payments *service.PaymentService) *WithdrawalHandler {
	return &WithdrawalHandler{payments: payments}
}

// CreateWithdrawal POST /payments/withdraw
func (h *WithdrawalHandler) CreateWithdrawal(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "сумма обязательна")
		return
	}
	payoutMethodID, err := common.ParseUUIDField(req.PayoutMethodID, "payout_method_id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	withdrawal, err := h.payments.Withdraw(c.Request.Context(), userID, service.WithdrawInput{
		Amount:         req.Amount,
		Method:         req.Method,
		PayoutMethodID: payoutMethodID,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"withdrawal": withdrawal})
}

// ListWithdrawals GET /payments/withdrawals
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	withdrawals, err := h.payments.Withdrawals(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}
