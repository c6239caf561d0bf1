package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// SavedGigHandler управляет избранными услугами.
type SavedGigHandler struct {
	saved *service.SavedGigService
}

func NewSavedGigHandler(saved *service.SavedGigService) *SavedGigHandler {
	return &SavedGigHandler{saved: saved}
}

// Save POST /saved-gigs/:gigId
func (h *SavedGigHandler) Save(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	gigID, ok := common.RequireUUIDParam(c, "gigId")
	if !ok {
		return
	}

	saved, err := h.saved.Save(c.Request.Context(), userID, gigID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"saved_gig": saved})
}

// Remove DELETE /saved-gigs/:gigId
func (h *SavedGigHandler) Remove(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	gigID, ok := common.RequireUUIDParam(c, "gigId")
	if !ok {
		return
	}

	if err := h.saved.Remove(c.Request.Context(), userID, gigID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "услуга удалена из сохранённых"})
}

// List GET /saved-gigs
func (h *SavedGigHandler) List(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	gigs, err := h.saved.List(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gigs": gigs})
}

// Check GET /saved-gigs/:gigId/check
func (h *SavedGigHandler) Check(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	gigID, ok := common.RequireUUIDParam(c, "gigId")
	if !ok {
		return
	}

	saved, err := h.saved.IsSaved(c.Request.Context(), userID, gigID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SavedCheckResponse{IsSaved: saved})
}
