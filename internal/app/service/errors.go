package service

import (
	"errors"

	"github.com/anangai/civic-portal-backend/internal/catalog"
)

// Validation
var (
	ErrEmailRequired      = errors.New("email is required")
	ErrCategoryRequired   = errors.New("category is required")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrIdentifierRequired = errors.New("application id or email required")
	ErrInvalidFileType    = errors.New("file type not allowed")
	ErrFileTooLarge       = errors.New("file too large")
	ErrInvalidFilename    = errors.New("invalid filename")
)

// Conflict
var (
	ErrDuplicateApplication   = errors.New("an application for this email already exists")
	ErrAccountExists          = errors.New("account already exists")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
)

// Not found
var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrCategoryNotFound    = catalog.ErrCategoryNotFound
)

// Unauthorized
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidAdminCredentials = errors.New("invalid admin credentials")
	ErrInvalidAdminToken       = errors.New("invalid admin token")
)

// ErrApplicationRequired means an account was requested before any
// application was submitted for the email.
var ErrApplicationRequired = errors.New("please submit your business details first")

const minPasswordLength = 6
