package db

import (
	"fmt"

	"github.com/anangai/civic-portal-backend/config"
	"github.com/anangai/civic-portal-backend/internal/app/model"
	"github.com/anangai/civic-portal-backend/internal/store"
	"github.com/anangai/civic-portal-backend/pkg/logger"
)

// Stores holds the two document collections the portal persists.
type Stores struct {
	Users        *store.Collection[model.User]
	Applications *store.Collection[model.Application]
}

// Open binds the users and applications collections to their files.
func Open(cfg *config.DataConfig) (*Stores, error) {
	logger.Info("Opening document store", map[string]interface{}{
		"users":        cfg.UsersFile,
		"applications": cfg.ApplicationsFile,
	})

	users, err := store.NewCollection[model.User](model.UsersCollection, cfg.UsersFile,
		store.WithRequiredFields("email"))
	if err != nil {
		return nil, fmt.Errorf("failed to open users: %w", err)
	}
	apps, err := store.NewCollection[model.Application](model.ApplicationsCollection, cfg.ApplicationsFile,
		store.WithRequiredFields("email"))
	if err != nil {
		return nil, fmt.Errorf("failed to open applications: %w", err)
	}

	return &Stores{Users: users, Applications: apps}, nil
}

// Verify loads both collections once so a corrupt file stops startup
// instead of failing the first request.
func (s *Stores) Verify() error {
	users, err := s.Users.Load()
	if err != nil {
		return err
	}
	apps, err := s.Applications.Load()
	if err != nil {
		return err
	}

	logger.Info("Document store ready", map[string]interface{}{
		"users":        users.Len(),
		"applications": apps.Len(),
	})
	return nil
}
