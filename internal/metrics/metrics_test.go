package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/orders/:id", "200"))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/123", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/orders/:id", "200"))
	assert.Equal(t, before+1, after)
}

func TestPaymentOperation_LabelsResult(t *testing.T) {
	okBefore := testutil.ToFloat64(paymentOperations.WithLabelValues("capture", "success"))
	errBefore := testutil.ToFloat64(paymentOperations.WithLabelValues("capture", "error"))

	PaymentOperation("capture", nil)
	PaymentOperation("capture", errors.New("declined"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(paymentOperations.WithLabelValues("capture", "success")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(paymentOperations.WithLabelValues("capture", "error")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	OrderTransition("pending", "active")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "gig_marketplace_orders_transitions_total"))
}
