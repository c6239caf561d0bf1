package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// ProfileHandler обслуживает профиль, поиск пользователей и ленту активности.
type ProfileHandler struct {
	users *service.UserService
}

// NewProfileHandler создаёт хэндлер профиля.
func NewProfileHandler(users *service.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// UpdateMe обрабатывает PUT /users/me.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		Name:             req.Name,
		Avatar:           req.Avatar,
		Bio:              req.Bio,
		Location:         req.Location,
		PaymentAccountID: req.PaymentAccountID,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Search обрабатывает GET /users/search?q=&role=.
func (h *ProfileHandler) Search(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	users, err := h.users.Search(c.Request.Context(), userID, c.Query("q"), c.Query("role"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Activity обрабатывает GET /users/activity.
func (h *ProfileHandler) Activity(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	items, err := h.users.Activity(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activities": items})
}
