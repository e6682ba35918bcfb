package service

import (
	"strings"

	"github.com/anangai/civic-portal-backend/internal/app/model"
	"github.com/anangai/civic-portal-backend/internal/store"
	"github.com/anangai/civic-portal-backend/pkg/logger"
	"github.com/anangai/civic-portal-backend/pkg/util"
)

const (
	defaultBusinessName     = "Unnamed"
	defaultBusinessCategory = "Other"
)

// DirectoryService builds the read-side joins of users and applications.
// Neither operation takes a collection lock.
type DirectoryService interface {
	ListBusinesses(category string) ([]model.BusinessCard, error)
	Dashboard(email string) (*model.Dashboard, error)
}

type directoryService struct {
	users *store.Collection[model.User]
	apps  *store.Collection[model.Application]
}

func NewDirectoryService(users *store.Collection[model.User], apps *store.Collection[model.Application]) DirectoryService {
	return &directoryService{users: users, apps: apps}
}

// ListBusinesses returns a card for every verified user, optionally filtered
// by category (case-insensitive).
func (s *directoryService) ListBusinesses(category string) ([]model.BusinessCard, error) {
	users, err := s.users.Load()
	if err != nil {
		logger.Error("Failed to load users", err)
		return nil, err
	}
	apps, err := s.apps.Load()
	if err != nil {
		logger.Error("Failed to load applications", err)
		return nil, err
	}

	category = strings.TrimSpace(category)
	cards := make([]model.BusinessCard, 0)
	for i := range users.Records {
		u := &users.Records[i]
		if !u.IsVerified {
			continue
		}
		_, app := apps.FindByKey(applicationEmail, u.Email, true)
		if app == nil {
			app = &model.Application{}
		}

		card := model.BusinessCard{
			ID:          util.EmailSlug(u.Email),
			Name:        firstNonBlank(defaultBusinessName, app.BizName, u.BusinessName),
			Description: firstNonBlank("", app.BizDesc, u.BusinessDescription),
			Category:    firstNonBlank(defaultBusinessCategory, app.BizCat, u.Category),
			Address:     u.Address,
		}
		if category != "" && !strings.EqualFold(card.Category, category) {
			continue
		}
		cards = append(cards, card)
	}

	logger.Debug("Listed businesses", map[string]interface{}{
		"category": category,
		"count":    len(cards),
	})
	return cards, nil
}

// Dashboard joins the user and application for email. A missing side keeps
// its defaults.
func (s *directoryService) Dashboard(email string) (*model.Dashboard, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	d := &model.Dashboard{
		Auth: model.DashboardAuth{
			Email:    email,
			Progress: model.MinProgress,
			Status:   model.UserStatusApproved,
		},
		Business: model.DashboardBusiness{
			Status: model.ApplicationStatusPending,
		},
	}

	u, err := s.users.FindByKey(userEmail, email, true)
	if err != nil {
		return nil, err
	}
	if u != nil {
		d.Auth.Progress = u.CurrentProgress()
		d.Auth.IsVerified = u.IsVerified
		d.Auth.Status = u.DerivedStatus()
	}

	app, err := findApplication(s.apps, email)
	if err != nil {
		return nil, err
	}
	if app != nil {
		d.Business = model.DashboardBusiness{
			BizName:    app.BizName,
			BizCat:     app.BizCat,
			BizDesc:    app.BizDesc,
			LicenseURL: app.LicenseURL,
			Status:     app.Status,
		}
		if d.Business.Status == "" {
			d.Business.Status = model.ApplicationStatusPending
		}
	}
	return d, nil
}

// firstNonBlank returns the first non-blank value, trimmed, or def.
func firstNonBlank(def string, values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return def
}
