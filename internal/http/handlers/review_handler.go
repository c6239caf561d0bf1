package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// ReviewHandler обслуживает отзывы об услугах.
// Маршруты /gigs/:id/reviews и /reviews/:gigId ведут в одни и те же методы.
type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// CreateReview POST /gigs/:id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	gigID, ok := gigIDParam(c)
	if !ok {
		return
	}

	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "оценка обязательна")
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), gigID, userID, req.Rating, req.Text())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// ListGigReviews GET /gigs/:id/reviews
func (h *ReviewHandler) ListGigReviews(c *gin.Context) {
	gigID, ok := gigIDParam(c)
	if !ok {
		return
	}

	reviews, err := h.reviews.ListByGig(c.Request.Context(), gigID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

func gigIDParam(c *gin.Context) (uuid.UUID, bool) {
	name := "id"
	if c.Param("gigId") != "" {
		name = "gigId"
	}
	return common.RequireUUIDParam(c, name)
}
