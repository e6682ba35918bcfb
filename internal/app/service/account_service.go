package service

import (
	"context"
	"strings"

	"github.com/anangai/civic-portal-backend/internal/app/model"
	"github.com/anangai/civic-portal-backend/internal/store"
	"github.com/anangai/civic-portal-backend/pkg/logger"
	"github.com/anangai/civic-portal-backend/pkg/util"
)

// RegisterForm is the legacy partner application
type RegisterForm struct {
	Username            string `form:"username"`
	Email               string `form:"email"`
	Password            string `form:"password"`
	BusinessName        string `form:"businessName"`
	BusinessType        string `form:"businessType"`
	BusinessDescription string `form:"businessDescription"`
	Contact             string `form:"contact"`
}

type AccountService interface {
	FinalizeAccount(email, password string) (*model.UserView, error)
	Signup(email, password string) (*model.UserView, error)
	Register(ctx context.Context, form RegisterForm, license *Upload) (*model.User, error)
	Login(email, password string) (*model.UserView, error)
	GetUser(email string) (*model.UserProfile, error)
	UpdateProgress(email string, step *int) (*model.ProgressView, error)
	UploadLicense(ctx context.Context, email string, license Upload) (*model.ProgressView, error)

	PendingUsers() ([]model.UserProfile, error)
	ApproveUser(email string) (*model.UserProfile, error)
	RejectUser(email string) (*model.UserProfile, error)
}

type accountService struct {
	users    *store.Collection[model.User]
	apps     *store.Collection[model.Application]
	licenses LicenseService
	salt     string
}

func NewAccountService(
	users *store.Collection[model.User],
	apps *store.Collection[model.Application],
	licenses LicenseService,
	salt string,
) AccountService {
	return &accountService{
		users:    users,
		apps:     apps,
		licenses: licenses,
		salt:     salt,
	}
}

func userEmail(u *model.User) string { return u.Email }

// FinalizeAccount creates the partner login for an email that already has an
// application.
func (s *accountService) FinalizeAccount(email, password string) (*model.UserView, error) {
	email = util.NormalizeEmail(email)
	logger.Info("Finalizing account", map[string]interface{}{
		"email": email,
	})

	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	app, err := findApplication(s.apps, email)
	if err != nil {
		return nil, err
	}
	if app == nil {
		logger.Warn("Finalize rejected: no application", map[string]interface{}{
			"email": email,
		})
		return nil, ErrApplicationRequired
	}

	user := model.User{
		Email:          email,
		HashedPassword: util.DigestPassword(s.salt, password),
		Role:           model.RolePartner,
		IsVerified:     false,
		Progress:       model.MinProgress,
		Name:           model.DefaultName(email),
	}
	err = s.users.Update(func(set *store.DocumentSet[model.User]) error {
		if _, dup := set.FindByKey(userEmail, email, true); dup != nil {
			return ErrAccountExists
		}
		set.Append(user)
		return nil
	})
	if err != nil {
		logger.Warn("Finalize failed", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		return nil, err
	}

	logger.Info("Account finalized", map[string]interface{}{
		"email":          email,
		"application_id": app.ID,
	})
	return s.view(&user, app), nil
}

func (s *accountService) Signup(email, password string) (*model.UserView, error) {
	email = util.NormalizeEmail(email)
	logger.Info("Signup attempt", map[string]interface{}{
		"email": email,
	})

	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	user := model.User{
		Email:          email,
		HashedPassword: util.DigestPassword(s.salt, password),
		Name:           model.DefaultName(email),
		Progress:       model.MinProgress,
		Status:         model.UserStatusApproved,
	}
	err := s.users.Update(func(set *store.DocumentSet[model.User]) error {
		if _, dup := set.FindByKey(userEmail, email, true); dup != nil {
			return ErrEmailAlreadyRegistered
		}
		set.Append(user)
		return nil
	})
	if err != nil {
		logger.Warn("Signup failed", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		return nil, err
	}

	logger.Info("User signed up", map[string]interface{}{
		"email": email,
	})
	return s.view(&user, nil), nil
}

// Register is the older single-form partner application. It records the
// business snapshot on the user and keeps an optional driver's licence.
func (s *accountService) Register(ctx context.Context, form RegisterForm, license *Upload) (*model.User, error) {
	email := strings.TrimSpace(form.Email)
	logger.Info("Legacy registration", map[string]interface{}{
		"email": email,
	})

	if email == "" {
		return nil, ErrEmailRequired
	}

	existing, err := s.users.FindByKey(userEmail, email, true)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	if license != nil && license.Filename != "" {
		if _, err := s.licenses.Store(ctx, DriversLicensePrefix, email, *license, false); err != nil {
			return nil, err
		}
	}

	name := strings.TrimSpace(form.Username)
	if name == "" {
		name = model.DefaultName(email)
	}
	user := model.User{
		Email:               email,
		Name:                name,
		Progress:            model.MinProgress,
		IsVerified:          false,
		BusinessName:        strings.TrimSpace(form.BusinessName),
		BusinessDescription: strings.TrimSpace(form.BusinessDescription),
		Category:            strings.TrimSpace(form.BusinessType),
		Address:             strings.TrimSpace(form.Contact),
	}
	if form.Password != "" {
		user.HashedPassword = util.DigestPassword(s.salt, form.Password)
	}

	err = s.users.Update(func(set *store.DocumentSet[model.User]) error {
		if _, dup := set.FindByKey(userEmail, email, true); dup != nil {
			return ErrEmailAlreadyRegistered
		}
		set.Append(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Legacy registration stored", map[string]interface{}{
		"email": email,
	})
	return &user, nil
}

// Login accepts the first user with a matching email whose stored credential
// verifies. Unknown email and wrong password are indistinguishable.
func (s *accountService) Login(email, password string) (*model.UserView, error) {
	email = strings.TrimSpace(email)
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	set, err := s.users.Load()
	if err != nil {
		logger.Error("Failed to load users", err)
		return nil, err
	}

	candidates := set.Filter(matchEmail(userEmail, email))
	for i := range candidates {
		u := &candidates[i]
		if !u.Credential(s.salt).Verify(password) {
			continue
		}
		app, err := findApplication(s.apps, email)
		if err != nil {
			return nil, err
		}
		logger.Info("User logged in", map[string]interface{}{
			"email": u.Email,
		})
		return s.view(u, app), nil
	}

	logger.Warn("Login failed", map[string]interface{}{
		"email": email,
	})
	return nil, ErrInvalidCredentials
}

func (s *accountService) view(u *model.User, app *model.Application) *model.UserView {
	businessName := u.BusinessName
	if app != nil && strings.TrimSpace(app.BizName) != "" {
		businessName = app.BizName
	}
	name := u.Name
	if name == "" {
		name = model.DefaultName(u.Email)
	}
	return &model.UserView{
		Email:        u.Email,
		BusinessName: strings.TrimSpace(businessName),
		Name:         name,
		Progress:     u.CurrentProgress(),
		Status:       u.DerivedStatus(),
		IsVerified:   u.IsVerified,
	}
}

// GetUser returns the stored profile, or the defaults of a fresh account.
func (s *accountService) GetUser(email string) (*model.UserProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	u, err := s.users.FindByKey(userEmail, email, true)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return &model.UserProfile{
			Email:    email,
			Progress: model.MinProgress,
			Status:   model.UserStatusPendingReview,
		}, nil
	}
	p := u.Profile()
	return &p, nil
}

// UpdateProgress moves a user's onboarding step forward, creating the user
// on first touch. With a step the progress becomes max(current, min(step, 7));
// without one it increments. Once at 7 nothing changes.
func (s *accountService) UpdateProgress(email string, step *int) (*model.ProgressView, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	var view model.ProgressView
	err := s.users.Update(func(set *store.DocumentSet[model.User]) error {
		_, u, created := set.Upsert(matchEmail(userEmail, email), func() model.User {
			return model.NewPlaceholderUser(email)
		})

		current := u.CurrentProgress()
		view = model.ProgressView{Email: email, Progress: current, IsVerified: u.IsVerified}
		if current >= model.MaxProgress && !created {
			view.Progress = model.MaxProgress
			return store.ErrNoChange
		}

		next := current + 1
		if step != nil {
			next = max(current, min(model.MaxProgress, *step))
		}
		next = min(next, model.MaxProgress)
		if next == u.Progress && !created {
			return store.ErrNoChange
		}
		u.Progress = next
		view.Progress = next
		return nil
	})
	if err != nil {
		logger.Error("Failed to update progress", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Debug("Progress updated", map[string]interface{}{
		"email":    email,
		"progress": view.Progress,
	})
	return &view, nil
}

// UploadLicense stores the licence, links it to the email's application and
// marks the user verified with onboarding complete. The application's status
// is left to the admin review.
func (s *accountService) UploadLicense(ctx context.Context, email string, license Upload) (*model.ProgressView, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	name, err := s.licenses.Store(ctx, LicensePrefix, email, license, false)
	if err != nil {
		return nil, err
	}

	// applications before users
	err = s.apps.Update(func(set *store.DocumentSet[model.Application]) error {
		_, app := set.FindByKey(applicationEmail, email, true)
		if app == nil {
			return store.ErrNoChange
		}
		app.LicenseURL = name
		return nil
	})
	if err != nil {
		logger.Error("Failed to link license to application", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	err = s.users.Update(func(set *store.DocumentSet[model.User]) error {
		_, u, _ := set.Upsert(matchEmail(userEmail, email), func() model.User {
			return model.NewPlaceholderUser(email)
		})
		u.IsVerified = true
		u.Progress = model.MaxProgress
		return nil
	})
	if err != nil {
		logger.Error("Failed to mark user verified", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Info("License uploaded", map[string]interface{}{
		"email": email,
		"name":  name,
	})
	return &model.ProgressView{
		Email:      email,
		Progress:   model.MaxProgress,
		IsVerified: true,
		Filename:   name,
	}, nil
}

// PendingUsers lists users whose derived status is pending_review.
func (s *accountService) PendingUsers() ([]model.UserProfile, error) {
	set, err := s.users.Load()
	if err != nil {
		return nil, err
	}
	pending := make([]model.UserProfile, 0)
	for i := range set.Records {
		if set.Records[i].DerivedStatus() == model.UserStatusPendingReview {
			pending = append(pending, set.Records[i].Profile())
		}
	}
	return pending, nil
}

func (s *accountService) ApproveUser(email string) (*model.UserProfile, error) {
	return s.setUserStatus(email, model.UserStatusApproved)
}

func (s *accountService) RejectUser(email string) (*model.UserProfile, error) {
	return s.setUserStatus(email, model.UserStatusRejected)
}

func (s *accountService) setUserStatus(email string, status model.UserStatus) (*model.UserProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	var profile model.UserProfile
	err := s.users.Update(func(set *store.DocumentSet[model.User]) error {
		_, u := set.FindByKey(userEmail, email, true)
		if u == nil {
			return ErrUserNotFound
		}
		u.Status = status
		if status == model.UserStatusApproved {
			u.IsVerified = true
		}
		profile = u.Profile()
		return nil
	})
	if err != nil {
		logger.Warn("User status change failed", map[string]interface{}{
			"email":  email,
			"status": status,
			"error":  err.Error(),
		})
		return nil, err
	}

	logger.Info("User status changed", map[string]interface{}{
		"email":  email,
		"status": status,
	})
	return &profile, nil
}
