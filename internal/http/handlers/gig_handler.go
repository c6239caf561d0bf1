package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// GigHandler обслуживает каталог услуг.
type GigHandler struct {
	gigs *service.GigService
}

// NewGigHandler создаёт хэндлер услуг.
func NewGigHandler(gigs *service.GigService) *GigHandler {
	return &GigHandler{gigs: gigs}
}

// Create обрабатывает POST /gigs (multipart, необязательное поле image).
func (h *GigHandler) Create(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	role, _ := common.CurrentUserRole(c)

	in, ok := bindGigForm(c)
	if !ok {
		return
	}
	image, ok := optionalFile(c, "image")
	if !ok {
		return
	}

	gig, err := h.gigs.Create(c.Request.Context(), userID, role, in, image)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"gig": gig})
}

// List обрабатывает GET /gigs?category=&q=&page=&limit=.
func (h *GigHandler) List(c *gin.Context) {
	page, err := h.gigs.List(c.Request.Context(),
		c.Query("category"),
		c.Query("q"),
		common.ParseIntQuery(c, "page", 1),
		common.ParseIntQuery(c, "limit", 20),
	)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Mine обрабатывает GET /gigs/mine.
func (h *GigHandler) Mine(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}

	gigs, err := h.gigs.Mine(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gigs": gigs})
}

// Get обрабатывает GET /gigs/:id.
func (h *GigHandler) Get(c *gin.Context) {
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	gig, err := h.gigs.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gig": gig})
}

// Update обрабатывает PUT /gigs/:id.
func (h *GigHandler) Update(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	in, ok := bindGigForm(c)
	if !ok {
		return
	}
	image, ok := optionalFile(c, "image")
	if !ok {
		return
	}

	gig, err := h.gigs.Update(c.Request.Context(), userID, id, in, image)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gig": gig})
}

// Delete обрабатывает DELETE /gigs/:id.
func (h *GigHandler) Delete(c *gin.Context) {
	userID, ok := common.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := common.RequireUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.gigs.Delete(c.Request.Context(), userID, id); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "услуга удалена"})
}

func bindGigForm(c *gin.Context) (service.GigInput, bool) {
	var form dto.GigForm
	if err := c.ShouldBind(&form); err != nil {
		common.RespondBadRequest(c, err.Error())
		return service.GigInput{}, false
	}

	price, err := form.ParsePrice()
	if err != nil {
		common.RespondBadRequest(c, "цена должна быть числом")
		return service.GigInput{}, false
	}
	days, err := form.ParseDeliveryTime()
	if err != nil {
		common.RespondBadRequest(c, "срок выполнения должен быть целым числом дней")
		return service.GigInput{}, false
	}
	basic, err := form.ParseBasicPackage()
	if err != nil {
		common.RespondBadRequest(c, "некорректный базовый пакет")
		return service.GigInput{}, false
	}

	return service.GigInput{
		Title:        form.Title,
		Description:  form.Description,
		Category:     form.Category,
		Price:        price,
		DeliveryTime: days,
		Image:        form.Image,
		BasicPackage: basic,
	}, true
}
