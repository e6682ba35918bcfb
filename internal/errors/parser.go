package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anangai/civic-portal-backend/internal/app/service"
	"github.com/anangai/civic-portal-backend/internal/store"
	"github.com/anangai/civic-portal-backend/internal/storage"
)

// ErrorInfo is the response an error maps to
type ErrorInfo struct {
	Status  int    // HTTP status
	Code    string // see codes.go
	Message string // safe to show to the caller
}

// mapping binds a sentinel to its response. Message empty means the
// sentinel's own text is used.
type mapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: the first sentinel err wraps wins.
var mappings = []mapping{
	// validation
	{service.ErrEmailRequired, http.StatusBadRequest, ValidationRequired, ""},
	{service.ErrCategoryRequired, http.StatusBadRequest, ValidationRequired, ""},
	{service.ErrIdentifierRequired, http.StatusBadRequest, ValidationRequired, ""},
	{service.ErrInvalidCategory, http.StatusBadRequest, ApplicationBadCategory, ""},
	{service.ErrWeakPassword, http.StatusBadRequest, ValidationTooShort, ""},
	{service.ErrApplicationRequired, http.StatusBadRequest, ApplicationRequired, ""},
	{service.ErrInvalidFileType, http.StatusBadRequest, UploadInvalidFileType, ""},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, UploadFileTooLarge, ""},
	{service.ErrInvalidFilename, http.StatusBadRequest, UploadInvalidName, ""},

	// conflict
	{service.ErrDuplicateApplication, http.StatusConflict, ApplicationDuplicate, ""},
	{service.ErrApplicationDecided, http.StatusConflict, ApplicationDecided, ""},
	{service.ErrAccountExists, http.StatusConflict, AuthAccountExists, ""},
	{service.ErrEmailAlreadyRegistered, http.StatusConflict, AuthEmailAlreadyExists, ""},

	// not found
	{service.ErrApplicationNotFound, http.StatusNotFound, ApplicationNotFound, ""},
	{service.ErrUserNotFound, http.StatusNotFound, UserNotFound, ""},
	{service.ErrCategoryNotFound, http.StatusNotFound, CategoryNotFound, "category not found"},
	{storage.ErrFileNotFound, http.StatusNotFound, UploadNotFound, "file not found"},

	// unauthorized
	{service.ErrInvalidCredentials, http.StatusUnauthorized, AuthInvalidCredentials, ""},
	{service.ErrInvalidAdminCredentials, http.StatusUnauthorized, AuthInvalidCredentials, ""},
	{service.ErrInvalidAdminToken, http.StatusUnauthorized, AuthTokenInvalid, ""},

	// store; details stay in the logs
	{store.ErrStoreCorruption, http.StatusInternalServerError, InternalStoreCorrupt, "stored data could not be read"},
	{store.ErrPersistence, http.StatusInternalServerError, InternalStorageFailed, "changes could not be saved, please try again"},
}

// ParseError turns an error from the service layer into a response. Known
// sentinels keep their message; anything else becomes a generic 500 so no
// internal detail leaks.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: getDefaultErrorMessage(context),
		}
	}

	for _, m := range mappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = m.target.Error()
		}
		return ErrorInfo{Status: m.status, Code: m.code, Message: msg}
	}

	// network failures from S3 or Redis
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    InternalExternalAPI,
			Message: "An external service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func getDefaultErrorMessage(context string) string {
	if context == "" {
		return "Something went wrong. Please try again later"
	}
	return "Failed to " + context + ". Please try again later"
}
