package controller

import (
	"net/http"

	"github.com/anangai/civic-portal-backend/internal/app/service"
	apperrors "github.com/anangai/civic-portal-backend/internal/errors"
	"github.com/anangai/civic-portal-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

type UploadController struct {
	licenseService service.LicenseService
}

func NewUploadController(licenseService service.LicenseService) *UploadController {
	return &UploadController{
		licenseService: licenseService,
	}
}

// Serve streams a stored license file
// GET /api/uploads/:filename
func (ctrl *UploadController) Serve(c *gin.Context) {
	name := c.Param("filename")

	obj, err := ctrl.licenseService.Open(c.Request.Context(), name)
	if err != nil {
		logger.Warn("Upload not served", map[string]interface{}{
			"filename": name,
			"error":    err.Error(),
		})
		apperrors.Respond(c, err, "load file")
		return
	}
	defer obj.Body.Close()

	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, map[string]string{
		"Content-Disposition": `inline; filename="` + name + `"`,
	})
}
