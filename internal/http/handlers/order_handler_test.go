package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOrderHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OrderHandler{orders: nil}
	r.POST("/orders", handler.Create)

	req, _ := http.NewRequest("POST", "/orders", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderHandler_Create_InvalidGigID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OrderHandler{orders: nil}
	r.POST("/orders", withUser(uuid.New(), "client"), handler.Create)

	req, _ := http.NewRequest("POST", "/orders", strings.NewReader(`{"gig_id":"abc","package_type":"basic"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "gig_id")
}

func TestOrderHandler_Get_InvalidOrderID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OrderHandler{orders: nil}
	r.GET("/orders/:id", withUser(uuid.New(), "client"), handler.Get)

	req, _ := http.NewRequest("GET", "/orders/invalid-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Cancel_MalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OrderHandler{orders: nil}
	r.POST("/orders/:id/cancel", withUser(uuid.New(), "client"), handler.Cancel)

	req, _ := http.NewRequest("POST", "/orders/"+uuid.NewString()+"/cancel", strings.NewReader(`{"reason":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_AddMessage_EmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OrderHandler{orders: nil}
	r.POST("/orders/:id/messages", withUser(uuid.New(), "client"), handler.AddMessage)

	req, _ := http.NewRequest("POST", "/orders/"+uuid.NewString()+"/messages", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDevHandler_UpdateOrderStatus_UnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DevHandler{orders: nil}
	r.POST("/api/test/update-order-status/:id", withUser(uuid.New(), "client"), handler.UpdateOrderStatus)

	req, _ := http.NewRequest("POST", "/api/test/update-order-status/"+uuid.NewString(), strings.NewReader(`{"status":"teleported"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "неизвестный статус")
}
