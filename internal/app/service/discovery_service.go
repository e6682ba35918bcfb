package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/anangai/civic-portal-backend/internal/cache"
	"github.com/anangai/civic-portal-backend/internal/catalog"
	"github.com/anangai/civic-portal-backend/pkg/logger"
)

// EntryList is the parsed content of one category file
type EntryList struct {
	Category string          `json:"category"`
	Type     catalog.Group   `json:"type"`
	Entries  []catalog.Entry `json:"entries"`
}

type DiscoveryService interface {
	ListCategories() ([]catalog.Category, error)
	ListEntries(ctx context.Context, categoryID string) (*EntryList, error)
	EntryExporter
}

type discoveryService struct {
	registry *catalog.Registry
	cache    cache.Cache

	// generations counts exports per category; a listing read before an
	// export must not stay cached after it
	mu          sync.Mutex
	generations map[string]uint64
}

// NewDiscoveryService serves category listings, caching parsed entries. A
// nil cache disables caching.
func NewDiscoveryService(registry *catalog.Registry, c cache.Cache) DiscoveryService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &discoveryService{registry: registry, cache: c, generations: make(map[string]uint64)}
}

func (s *discoveryService) ListCategories() ([]catalog.Category, error) {
	categories, err := s.registry.Categories()
	if err != nil {
		logger.Error("Failed to list categories", err)
		return nil, err
	}
	return categories, nil
}

func (s *discoveryService) ListEntries(ctx context.Context, categoryID string) (*EntryList, error) {
	c, err := s.registry.Lookup(categoryID)
	if err != nil {
		if !errors.Is(err, catalog.ErrCategoryNotFound) {
			logger.Error("Failed to resolve category", err, map[string]interface{}{
				"category": categoryID,
			})
		}
		return nil, err
	}

	list := &EntryList{Category: c.ID, Type: c.Type}

	if data, err := s.cache.Get(ctx, c.ID); err == nil {
		if entries, err := catalog.DecodeEntries(c.Kind, data); err == nil {
			list.Entries = entries
			return list, nil
		}
		logger.Warn("Discarding undecodable cache entry", map[string]interface{}{
			"category": c.ID,
		})
	}

	gen := s.generation(c.ID)
	entries, err := s.registry.Entries(c)
	if err != nil {
		logger.Error("Failed to load category entries", err, map[string]interface{}{
			"category": c.ID,
		})
		return nil, err
	}
	list.Entries = entries

	if s.generation(c.ID) != gen {
		return list, nil
	}
	if data, err := json.Marshal(entries); err == nil {
		_ = s.cache.Set(ctx, c.ID, data)
	}
	// an export that landed during Set leaves a stale listing behind
	if s.generation(c.ID) != gen {
		s.invalidate(ctx, c.ID)
	}
	return list, nil
}

// Export appends to the category file and drops its cached listing.
func (s *discoveryService) Export(categoryID string, e catalog.Entry) (bool, error) {
	ok, err := s.registry.Export(categoryID, e)
	if ok {
		s.mu.Lock()
		s.generations[categoryID]++
		s.mu.Unlock()
		s.invalidate(context.Background(), categoryID)
	}
	return ok, err
}

func (s *discoveryService) generation(categoryID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[categoryID]
}

func (s *discoveryService) invalidate(ctx context.Context, categoryID string) {
	if err := s.cache.Delete(ctx, categoryID); err != nil {
		logger.Warn("Failed to invalidate category cache", map[string]interface{}{
			"category": categoryID,
			"error":    err.Error(),
		})
	}
}
