package model

import (
	"strings"

	"github.com/anangai/civic-portal-backend/pkg/util"
)

type UserRole string // account role

const (
	RoleUser    UserRole = ""        // legacy records carry no role
	RolePartner UserRole = "partner" // business owner created by finalize-account
)

type UserStatus string // review state of a user account

const (
	UserStatusPendingReview UserStatus = "pending_review"
	UserStatusApproved      UserStatus = "approved"
	UserStatusRejected      UserStatus = "rejected"
)

const (
	MinProgress = 1
	MaxProgress = 7 // license upload completes onboarding
)

// UsersCollection is the top-level array field of the users file
const UsersCollection = "users"

// User is one record of the auth store (database.txt).
type User struct {
	Email          string     `json:"email"`                     // unique, matched case-insensitively
	HashedPassword string     `json:"hashed_password,omitempty"` // salted SHA-256 hex digest
	Password       string     `json:"password,omitempty"`        // legacy plaintext
	Name           string     `json:"name"`                      // display name
	Progress       int        `json:"progress"`                  // onboarding step 1..7
	IsVerified     bool       `json:"is_verified"`               // license checked
	Status         UserStatus `json:"status,omitempty"`          // explicit review state; derived when empty
	Role           UserRole   `json:"role,omitempty"`            // partner for finalized accounts

	// Snapshot captured by the legacy register form
	BusinessName        string `json:"business_name,omitempty"`
	BusinessDescription string `json:"business_description,omitempty"`
	Category            string `json:"category,omitempty"`
	Address             string `json:"address,omitempty"`
}

// Credential picks the stored secret: the digest when present, then the
// legacy plaintext password. A hashed_password that is not a digest was
// stored in clear by old clients and is compared as-is.
func (u *User) Credential(salt string) util.Credential {
	switch {
	case u.HashedPassword != "" && util.IsBcryptHash(u.HashedPassword):
		return util.BcryptCredential{Hash: u.HashedPassword}
	case util.IsDigest(u.HashedPassword):
		return util.HashedCredential{Digest: u.HashedPassword, Salt: salt}
	case u.HashedPassword != "":
		return util.PlaintextCredential{Value: u.HashedPassword}
	case u.Password != "":
		return util.PlaintextCredential{Value: u.Password}
	default:
		return util.NoCredential{}
	}
}

// DerivedStatus returns the explicit status, or approved/pending_review from
// the verification flag.
func (u *User) DerivedStatus() UserStatus {
	if u.Status != "" {
		return u.Status
	}
	if u.IsVerified {
		return UserStatusApproved
	}
	return UserStatusPendingReview
}

// CurrentProgress treats a missing or out of range value as the first step.
func (u *User) CurrentProgress() int {
	if u.Progress < MinProgress {
		return MinProgress
	}
	if u.Progress > MaxProgress {
		return MaxProgress
	}
	return u.Progress
}

// DefaultName is the local part of an email address.
func DefaultName(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// NewPlaceholderUser is the record created when an email first touches the
// progress or license flows without having registered.
func NewPlaceholderUser(email string) User {
	return User{
		Email:    email,
		Progress: MinProgress,
	}
}

// UserView is the account summary returned by signup, login and finalize.
type UserView struct {
	Email        string     `json:"email"`
	BusinessName string     `json:"business_name"`
	Name         string     `json:"name"`
	Progress     int        `json:"progress"`
	Status       UserStatus `json:"status"`
	IsVerified   bool       `json:"is_verified"`
}

// ProgressView is returned by progress updates and license uploads.
type ProgressView struct {
	Email      string `json:"email"`
	Progress   int    `json:"progress"`
	IsVerified bool   `json:"is_verified"`
	Filename   string `json:"filename,omitempty"`
}
