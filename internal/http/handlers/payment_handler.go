package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateIntent POST /payments/create-payment-intent
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "order_id обязателен")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		common.RespondBadRequest(c, "неверный order_id")
		return
	}

	intent, err := h.payments.CreateIntent(c.Request.Context(), orderID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, intent)
}

// Confirm POST /payments/confirm-payment
func (h *PaymentHandler) Confirm(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "payment_intent_id и order_id обязательны")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		common.RespondBadRequest(c, "неверный order_id")
		return
	}

	order, err := h.payments.Confirm(c.Request.Context(), orderID, userID, req.PaymentIntentID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Release POST /payments/release/:orderId
func (h *PaymentHandler) Release(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		common.RespondBadRequest(c, "неверный order_id")
		return
	}

	order, err := h.payments.Release(c.Request.Context(), orderID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Refund POST /payments/refund/:orderId
func (h *PaymentHandler) Refund(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		common.RespondBadRequest(c, "неверный order_id")
		return
	}

	var req dto.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	order, err := h.payments.Refund(c.Request.Context(), orderID, userID, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Earnings GET /payments/earnings (и /seller/earnings)
func (h *PaymentHandler) Earnings(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	earnings, err := h.payments.Earnings(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, earnings)
}

// History GET /payments/history?page=&limit=&status=
func (h *PaymentHandler) History(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	page, err := h.payments.History(c.Request.Context(), userID, role, c.Query("status"),
		common.ParseIntQuery(c, "page", 1), common.ParseIntQuery(c, "limit", 20))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Notifications GET /payments/notifications
func (h *PaymentHandler) Notifications(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	items, err := h.payments.Notifications(c.Request.Context(), userID, role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": items})
}
