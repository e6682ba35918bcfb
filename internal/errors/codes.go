package errors

// Error codes returned in ErrorResponse.Error.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // bad admin token
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // email already registered
	AuthAccountExists      = "AUTH_ACCOUNT_EXISTS"      // account already finalized

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationRequired     = "VALIDATION_REQUIRED"
	ValidationTooShort     = "VALIDATION_TOO_SHORT"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"

	// ==================== Applications (APPLICATION_) ====================
	ApplicationNotFound    = "APPLICATION_NOT_FOUND"
	ApplicationDuplicate   = "APPLICATION_DUPLICATE"    // one application per email
	ApplicationDecided     = "APPLICATION_DECIDED"      // approved/rejected is final
	ApplicationRequired    = "APPLICATION_REQUIRED"     // finalize needs a submitted application
	ApplicationBadCategory = "APPLICATION_BAD_CATEGORY" // not a featured category

	// ==================== Users (USER_) ====================
	UserNotFound = "USER_NOT_FOUND"

	// ==================== Catalog (CATEGORY_) ====================
	CategoryNotFound = "CATEGORY_NOT_FOUND"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadInvalidName     = "UPLOAD_INVALID_NAME"
	UploadNotFound        = "UPLOAD_NOT_FOUND"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Rate limiting (RATE_) ====================
	RateLimited = "RATE_LIMITED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalStoreCorrupt  = "INTERNAL_STORE_CORRUPT"  // persisted file unreadable
	InternalStorageFailed = "INTERNAL_STORAGE_FAILED" // write could not complete
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
