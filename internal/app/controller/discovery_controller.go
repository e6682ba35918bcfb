package controller

import (
	"net/http"
	"strings"

	"github.com/anangai/civic-portal-backend/internal/app/service"
	apperrors "github.com/anangai/civic-portal-backend/internal/errors"
	"github.com/gin-gonic/gin"
)

type DiscoveryController struct {
	discoveryService service.DiscoveryService
}

func NewDiscoveryController(discoveryService service.DiscoveryService) *DiscoveryController {
	return &DiscoveryController{
		discoveryService: discoveryService,
	}
}

// Categories lists every category file
// GET /api/discovery/categories
func (ctrl *DiscoveryController) Categories(c *gin.Context) {
	categories, err := ctrl.discoveryService.ListCategories()
	if err != nil {
		apperrors.Respond(c, err, "load categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Data returns the parsed entries of one category
// GET /api/discovery/data?category_id=
func (ctrl *DiscoveryController) Data(c *gin.Context) {
	id := strings.TrimSpace(c.Query("category_id"))
	if id == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "category_id is required")
		return
	}

	list, err := ctrl.discoveryService.ListEntries(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err, "load entries")
		return
	}
	c.JSON(http.StatusOK, list)
}
