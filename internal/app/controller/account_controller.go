package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/anangai/civic-portal-backend/internal/app/model"
	"github.com/anangai/civic-portal-backend/internal/app/service"
	apperrors "github.com/anangai/civic-portal-backend/internal/errors"
	"github.com/anangai/civic-portal-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AccountController struct {
	accountService   service.AccountService
	directoryService service.DirectoryService
}

func NewAccountController(accountService service.AccountService, directoryService service.DirectoryService) *AccountController {
	return &AccountController{
		accountService:   accountService,
		directoryService: directoryService,
	}
}

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
}

type UserActionRequest struct {
	Email string `json:"email"`
}

type ProgressRequest struct {
	Step *int `json:"step"`
}

// FinalizeAccount creates the login for an email that has applied
// POST /api/finalize-account
func (ctrl *AccountController) FinalizeAccount(c *gin.Context) {
	var req CredentialsRequest
	if !bindCredentials(c, &req) {
		return
	}

	user, err := ctrl.accountService.FinalizeAccount(req.Email, req.Password)
	if err != nil {
		apperrors.Respond(c, err, "create account")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Signup creates a standalone account
// POST /api/signup
func (ctrl *AccountController) Signup(c *gin.Context) {
	var req CredentialsRequest
	if !bindCredentials(c, &req) {
		return
	}

	user, err := ctrl.accountService.Signup(req.Email, req.Password)
	if err != nil {
		apperrors.Respond(c, err, "sign up")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Login
// POST /api/login
func (ctrl *AccountController) Login(c *gin.Context) {
	var req CredentialsRequest
	if !bindCredentials(c, &req) {
		return
	}

	user, err := ctrl.accountService.Login(req.Email, req.Password)
	if err != nil {
		apperrors.Respond(c, err, "log in")
		return
	}
	c.JSON(http.StatusOK, user)
}

func bindCredentials(c *gin.Context, req *CredentialsRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid credentials request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Email is required")
		return false
	}
	return true
}

// Register is the legacy single-form partner application
// POST /api/register
func (ctrl *AccountController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var form service.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn("Invalid registration form", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid registration form")
		return
	}

	license, closeLicense, err := formUpload(c, "drivers_license")
	if err != nil {
		apperrors.BadRequest(c, apperrors.UploadFailed, "Driver's license could not be read")
		return
	}
	defer closeLicense()

	user, err := ctrl.accountService.Register(c.Request.Context(), form, license)
	if err != nil {
		apperrors.Respond(c, err, "register")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":   user.Email,
		"message": "Application received. Our team is verifying your local status.",
	})
}

// Dashboard joins the user's account and application
// GET /api/dashboard-data/:email
func (ctrl *AccountController) Dashboard(c *gin.Context) {
	d, err := ctrl.directoryService.Dashboard(c.Param("email"))
	if err != nil {
		apperrors.Respond(c, err, "load dashboard")
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetUser
// GET /api/user?email=
func (ctrl *AccountController) GetUser(c *gin.Context) {
	user, err := ctrl.accountService.GetUser(c.Query("email"))
	if err != nil {
		apperrors.Respond(c, err, "load user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProgress advances onboarding. An empty body increments.
// PATCH /api/user/progress?email=
func (ctrl *AccountController) UpdateProgress(c *gin.Context) {
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.GetLoggerFromContext(c).Warn("Invalid progress request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "step must be a number")
		return
	}

	view, err := ctrl.accountService.UpdateProgress(c.Query("email"), req.Step)
	if err != nil {
		apperrors.Respond(c, err, "update progress")
		return
	}
	c.JSON(http.StatusOK, view)
}

// UploadLicense completes onboarding with a business license
// POST /api/upload-license
func (ctrl *AccountController) UploadLicense(c *gin.Context) {
	license, closeLicense, err := formUpload(c, "file")
	if err != nil || license == nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "file is required")
		return
	}
	defer closeLicense()

	view, err := ctrl.accountService.UploadLicense(c.Request.Context(), c.PostForm("email"), *license)
	if err != nil {
		apperrors.Respond(c, err, "upload license")
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListBusinesses returns verified businesses
// GET /api/businesses?category=
func (ctrl *AccountController) ListBusinesses(c *gin.Context) {
	cards, err := ctrl.directoryService.ListBusinesses(c.Query("category"))
	if err != nil {
		apperrors.Respond(c, err, "load businesses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"businesses": cards})
}

// PendingUsers
// GET /api/admin/pending
func (ctrl *AccountController) PendingUsers(c *gin.Context) {
	users, err := ctrl.accountService.PendingUsers()
	if err != nil {
		apperrors.Respond(c, err, "load pending users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// ApproveUser
// POST /api/admin/approve
func (ctrl *AccountController) ApproveUser(c *gin.Context) {
	ctrl.setUserStatus(c, model.UserStatusApproved)
}

// RejectUser
// POST /api/admin/reject
func (ctrl *AccountController) RejectUser(c *gin.Context) {
	ctrl.setUserStatus(c, model.UserStatusRejected)
}

func (ctrl *AccountController) setUserStatus(c *gin.Context, status model.UserStatus) {
	var req UserActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Email is required")
		return
	}

	update := ctrl.accountService.ApproveUser
	if status == model.UserStatusRejected {
		update = ctrl.accountService.RejectUser
	}
	profile, err := update(req.Email)
	if err != nil {
		apperrors.Respond(c, err, "update user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":       profile.Email,
		"status":      profile.Status,
		"is_verified": profile.IsVerified,
	})
}
