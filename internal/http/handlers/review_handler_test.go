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

func TestReviewHandler_CreateReview_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReviewHandler{reviews: nil}
	r.POST("/gigs/:id/reviews", handler.CreateReview)

	req, _ := http.NewRequest("POST", "/gigs/"+uuid.NewString()+"/reviews", strings.NewReader(`{"rating":5}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReviewHandler_CreateReview_InvalidGigID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReviewHandler{reviews: nil}
	r.POST("/reviews/:gigId", withUser(uuid.New(), "client"), handler.CreateReview)

	req, _ := http.NewRequest("POST", "/reviews/invalid-uuid", strings.NewReader(`{"rating":5}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_CreateReview_MissingRating(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReviewHandler{reviews: nil}
	r.POST("/gigs/:id/reviews", withUser(uuid.New(), "client"), handler.CreateReview)

	req, _ := http.NewRequest("POST", "/gigs/"+uuid.NewString()+"/reviews", strings.NewReader(`{"comment":"great"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "оценка")
}

func TestReviewHandler_ListGigReviews_InvalidGigID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReviewHandler{reviews: nil}
	r.GET("/reviews/:gigId", handler.ListGigReviews)

	req, _ := http.NewRequest("GET", "/reviews/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
