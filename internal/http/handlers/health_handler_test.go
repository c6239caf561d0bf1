package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ok := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]Pinger
		wantCode   int
		wantStatus string
	}{
		{"all healthy", map[string]Pinger{"database": ok, "redis": ok}, http.StatusOK, "ok"},
		{"no checks", nil, http.StatusOK, "ok"},
		{"redis down", map[string]Pinger{"database": ok, "redis": down}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.checks).Health)

			req, _ := http.NewRequest("GET", "/health", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.False(t, resp.Timestamp.IsZero())
			if tt.wantStatus == "degraded" {
				assert.Contains(t, resp.Checks["redis"], "connection refused")
				assert.Equal(t, "ok", resp.Checks["database"])
			}
		})
	}
}

func TestWSHandler_RejectsMissingAndInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, tokens := setupAuthRouter()
	handler := NewWSHandler(nil, tokens, nil)

	r := gin.New()
	r.GET("/api/ws", handler.Handle)

	req, _ := http.NewRequest("GET", "/api/ws", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req, _ = http.NewRequest("GET", "/api/ws?token=garbage", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
