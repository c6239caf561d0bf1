package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// OrderHandler обслуживает жизненный цикл заказа: оформление, сдачу работы,
// приёмку, доработки, отмену и переписку по заказу.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler создаёт хэндлер заказов.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "gig_id обязателен")
		return
	}
	gigID, err := uuid.Parse(req.GigID)
	if err != nil {
		common.RespondBadRequest(c, "неверный gig_id")
		return
	}

	order, err := h.orders.Create(c.Request.Context(), userID, service.CreateOrderInput{
		GigID:        gigID,
		PackageType:  req.PackageType,
		Requirements: req.Requirements,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// Pay POST /orders/:id/payment
func (h *OrderHandler) Pay(c *gin.Context) {
	h.withOrder(c, func(userID, orderID uuid.UUID) (interface{}, error) {
		return h.orders.Pay(c.Request.Context(), orderID, userID)
	})
}

// BuyerOrders GET /orders/buyer
func (h *OrderHandler) BuyerOrders(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	page, err := h.orders.BuyerOrders(c.Request.Context(), userID, c.Query("status"),
		common.ParseIntQuery(c, "page", 1), common.ParseIntQuery(c, "limit", 10))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// SellerOrders GET /orders/seller
func (h *OrderHandler) SellerOrders(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	page, err := h.orders.SellerOrders(c.Request.Context(), userID, c.Query("status"),
		common.ParseIntQuery(c, "page", 1), common.ParseIntQuery(c, "limit", 10))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Get GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	h.withOrder(c, func(userID, orderID uuid.UUID) (interface{}, error) {
		return h.orders.Get(c.Request.Context(), orderID, userID)
	})
}

// Deliver POST /orders/:id/deliver
// Принимает JSON {delivery_note} или multipart с полем delivery_note и файлами files.
func (h *OrderHandler) Deliver(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	orderID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.DeliverOrderRequest
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		common.RespondBadRequest(c, err.Error())
		return
	}
	files, ok := formFiles(c, "files")
	if !ok {
		return
	}

	order, err := h.orders.Deliver(c.Request.Context(), orderID, userID, req.DeliveryNote, files)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Accept POST /orders/:id/accept
func (h *OrderHandler) Accept(c *gin.Context) {
	var req dto.AcceptOrderRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.withOrder(c, func(userID, orderID uuid.UUID) (interface{}, error) {
		return h.orders.Accept(c.Request.Context(), orderID, userID, service.AcceptInput{
			Rating: req.Rating,
			Review: req.Review,
		})
	})
}

// RequestRevision POST /orders/:id/revision
func (h *OrderHandler) RequestRevision(c *gin.Context) {
	var req dto.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.withOrder(c, func(userID, orderID uuid.UUID) (interface{}, error) {
		return h.orders.RequestRevision(c.Request.Context(), orderID, userID, req.Reason)
	})
}

// Cancel POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	var req dto.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.withOrder(c, func(userID, orderID uuid.UUID) (interface{}, error) {
		return h.orders.Cancel(c.Request.Context(), orderID, userID, req.Reason)
	})
}

// AddMessage POST /orders/:id/messages
func (h *OrderHandler) AddMessage(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	orderID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.OrderMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "текст сообщения обязателен")
		return
	}

	msg, err := h.orders.AddMessage(c.Request.Context(), orderID, userID, req.Message)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// Files GET /orders/:id/files
func (h *OrderHandler) Files(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	orderID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	files, err := h.orders.Files(c.Request.Context(), orderID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// withOrder разбирает пользователя и :id, вызывает действие и отвечает {"order": ...}.
func (h *OrderHandler) withOrder(c *gin.Context, action func(userID, orderID uuid.UUID) (interface{}, error)) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	orderID, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := action(userID, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// bindOptionalJSON разбирает необязательное JSON тело. Пустое тело не ошибка.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		common.RespondBadRequest(c, err.Error())
		return false
	}
	return true
}
