package controller

import (
	"net/http"

	"github.com/anangai/civic-portal-backend/internal/app/model"
	"github.com/anangai/civic-portal-backend/internal/app/service"
	apperrors "github.com/anangai/civic-portal-backend/internal/errors"
	"github.com/anangai/civic-portal-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ApplicationController struct {
	applicationService service.ApplicationService
	adminService       service.AdminService
}

func NewApplicationController(applicationService service.ApplicationService, adminService service.AdminService) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
		adminService:       adminService,
	}
}

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ApplicationDecisionRequest identifies an application by id or email
type ApplicationDecisionRequest struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Submit handles the "Get Featured" form
// POST /api/submit-application
func (ctrl *ApplicationController) Submit(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var form model.ApplicationForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn("Invalid application form", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid application form")
		return
	}

	license, closeLicense, err := formUpload(c, "license_file")
	if err != nil {
		log.Warn("Unreadable license upload", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.UploadFailed, "License file could not be read")
		return
	}
	defer closeLicense()

	app, err := ctrl.applicationService.Submit(c.Request.Context(), form, license)
	if err != nil {
		apperrors.Respond(c, err, "submit application")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      app.ID,
		"email":   app.Email,
		"message": "Application submitted. You will hear from us regarding verification.",
	})
}

// AdminLogin exchanges allow-listed credentials for a bearer token
// POST /api/admin/login
func (ctrl *ApplicationController) AdminLogin(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid admin login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, bindingFields(err))
		return
	}

	token, err := ctrl.adminService.Login(req.Email, req.Password)
	if err != nil {
		apperrors.Respond(c, err, "log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// List returns every application
// GET /api/admin/applications
func (ctrl *ApplicationController) List(c *gin.Context) {
	apps, err := ctrl.applicationService.List()
	if err != nil {
		apperrors.Respond(c, err, "load applications")
		return
	}
	if apps == nil {
		apps = []model.Application{}
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

// Approve marks an application approved and publishes its listing
// POST /api/admin/applications/approve
func (ctrl *ApplicationController) Approve(c *gin.Context) {
	ctrl.decide(c, model.ApplicationStatusApproved)
}

// Reject marks an application rejected
// POST /api/admin/applications/reject
func (ctrl *ApplicationController) Reject(c *gin.Context) {
	ctrl.decide(c, model.ApplicationStatusRejected)
}

func (ctrl *ApplicationController) decide(c *gin.Context, status model.ApplicationStatus) {
	log := middleware.GetLoggerFromContext(c)

	var req ApplicationDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid application decision request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Application id or email required")
		return
	}

	decide := ctrl.applicationService.Approve
	action := "approve application"
	if status == model.ApplicationStatusRejected {
		decide = ctrl.applicationService.Reject
		action = "reject application"
	}

	app, err := decide(req.ID, req.Email)
	if err != nil {
		apperrors.Respond(c, err, action)
		return
	}

	c.JSON(http.StatusOK, model.ApplicationDecision{ID: app.ID, Status: app.Status})
}
