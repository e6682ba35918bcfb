package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anangai/civic-portal-backend/internal/app/model"
	"github.com/anangai/civic-portal-backend/internal/catalog"
	"github.com/anangai/civic-portal-backend/internal/metrics"
	"github.com/anangai/civic-portal-backend/internal/store"
	"github.com/anangai/civic-portal-backend/pkg/logger"
	"github.com/anangai/civic-portal-backend/pkg/util"
	"github.com/google/uuid"
)

// ErrApplicationDecided is returned when an approved application is rejected
// or a rejected one approved.
var ErrApplicationDecided = errors.New("application has already been decided")

// EntryExporter appends a listing to a featured category file. It reports
// false when nothing was written.
type EntryExporter interface {
	Export(categoryID string, e catalog.Entry) (bool, error)
}

// EventPublisher receives application lifecycle events. Publish must not block.
type EventPublisher interface {
	Publish(event model.ApplicationEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.ApplicationEvent) {}

type ApplicationOption func(*applicationService)

// WithEventPublisher sends submitted, approved and rejected events to p.
func WithEventPublisher(p EventPublisher) ApplicationOption {
	return func(s *applicationService) {
		if p != nil {
			s.events = p
		}
	}
}

type ApplicationService interface {
	Submit(ctx context.Context, form model.ApplicationForm, license *Upload) (*model.Application, error)
	List() ([]model.Application, error)
	Approve(id, email string) (*model.Application, error)
	Reject(id, email string) (*model.Application, error)
}

type applicationService struct {
	// decisions is held across decide, export and rollback
	decisions sync.Mutex

	apps     *store.Collection[model.Application]
	exporter EntryExporter
	licenses LicenseService
	events   EventPublisher
}

func NewApplicationService(
	apps *store.Collection[model.Application],
	exporter EntryExporter,
	licenses LicenseService,
	opts ...ApplicationOption,
) ApplicationService {
	s := &applicationService{
		apps:     apps,
		exporter: exporter,
		licenses: licenses,
		events:   nopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func applicationEmail(a *model.Application) string { return a.Email }

func (s *applicationService) Submit(ctx context.Context, form model.ApplicationForm, license *Upload) (*model.Application, error) {
	email := strings.TrimSpace(form.Email)
	category := strings.TrimSpace(form.CategoryFile)

	logger.Info("Application submission", map[string]interface{}{
		"email":    email,
		"category": category,
	})

	if email == "" {
		return nil, ErrEmailRequired
	}
	if category == "" {
		return nil, ErrCategoryRequired
	}
	if !catalog.IsFeatured(category) {
		logger.Warn("Application rejected: unknown category", map[string]interface{}{
			"email":    email,
			"category": category,
		})
		return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}

	// Checked before the upload so a duplicate leaves no orphaned file
	existing, err := s.apps.FindByKey(applicationEmail, email, true)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Warn("Application rejected: duplicate email", map[string]interface{}{
			"email": email,
		})
		return nil, ErrDuplicateApplication
	}

	licenseURL := ""
	if license != nil && license.Filename != "" {
		licenseURL, err = s.licenses.Store(ctx, LicensePrefix, email, *license, true)
		if err != nil {
			return nil, err
		}
	}

	app := model.NewApplication(uuid.New().String(), form, licenseURL)
	err = s.apps.Update(func(set *store.DocumentSet[model.Application]) error {
		if _, dup := set.FindByKey(applicationEmail, email, true); dup != nil {
			return ErrDuplicateApplication
		}
		set.Append(app)
		return nil
	})
	if err != nil {
		logger.Error("Failed to save application", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	metrics.RecordApplicationEvent("submitted", category)
	s.events.Publish(model.NewApplicationEvent("submitted", &app, time.Now()))
	logger.Info("Application submitted", map[string]interface{}{
		"application_id": app.ID,
		"email":          email,
		"category":       category,
	})
	return &app, nil
}

func (s *applicationService) List() ([]model.Application, error) {
	set, err := s.apps.Load()
	if err != nil {
		logger.Error("Failed to load applications", err)
		return nil, err
	}
	return set.Records, nil
}

// matchApplication matches on id or, failing that, email; the first record
// satisfying either wins.
func matchApplication(id, email string) func(*model.Application) bool {
	byEmail := matchEmail(applicationEmail, email)
	return func(a *model.Application) bool {
		return (id != "" && a.ID == id) || byEmail(a)
	}
}

// decide moves a pending application to status. Repeating the same decision
// is a no-op reported through changed=false.
func (s *applicationService) decide(id, email string, status model.ApplicationStatus) (app model.Application, prev model.ApplicationStatus, changed bool, err error) {
	id, email = strings.TrimSpace(id), strings.TrimSpace(email)
	if id == "" && email == "" {
		return app, "", false, ErrIdentifierRequired
	}

	err = s.apps.Update(func(set *store.DocumentSet[model.Application]) error {
		_, rec := set.Find(matchApplication(id, email))
		if rec == nil {
			return ErrApplicationNotFound
		}
		prev = rec.Status
		switch {
		case rec.Status == status:
			app = *rec
			return store.ErrNoChange
		case rec.Status == model.ApplicationStatusApproved || rec.Status == model.ApplicationStatusRejected:
			return fmt.Errorf("%w: %s", ErrApplicationDecided, rec.Status)
		}
		rec.Status = status
		app = *rec
		changed = true
		return nil
	})
	return app, prev, changed, err
}

// Approve marks the application approved and exports it to its category
// file. Approving an approved application changes nothing and exports
// nothing. If the export fails the previous status is restored.
func (s *applicationService) Approve(id, email string) (*model.Application, error) {
	logger.Info("Approving application", map[string]interface{}{
		"application_id": id,
		"email":          email,
	})

	s.decisions.Lock()
	defer s.decisions.Unlock()

	app, prev, changed, err := s.decide(id, email, model.ApplicationStatusApproved)
	if err != nil {
		logger.Warn("Approval failed", map[string]interface{}{
			"application_id": id,
			"email":          email,
			"error":          err.Error(),
		})
		return nil, err
	}
	if !changed {
		logger.Info("Application already approved", map[string]interface{}{
			"application_id": app.ID,
		})
		return &app, nil
	}

	if err := s.export(&app); err != nil {
		if rbErr := s.restoreStatus(app.ID, prev); rbErr != nil {
			logger.Error("Failed to roll back approval", rbErr, map[string]interface{}{
				"application_id": app.ID,
			})
		}
		return nil, err
	}

	metrics.RecordApplicationEvent("approved", app.CategoryFile)
	s.events.Publish(model.NewApplicationEvent("approved", &app, time.Now()))
	logger.Info("Application approved", map[string]interface{}{
		"application_id": app.ID,
		"email":          app.Email,
		"category":       app.CategoryFile,
	})
	return &app, nil
}

func (s *applicationService) export(app *model.Application) error {
	ok, err := s.exporter.Export(app.CategoryFile, app.ToEntry())
	switch {
	case errors.Is(err, catalog.ErrCategoryNotFound):
		// records from before the category list was fixed carry no exportable category
		logger.Warn("Approved application has no featured category", map[string]interface{}{
			"application_id": app.ID,
			"category":       app.CategoryFile,
		})
		metrics.RecordCatalogAppend(app.CategoryFile, "skipped")
		return nil
	case err != nil:
		logger.Error("Failed to export approved application", err, map[string]interface{}{
			"application_id": app.ID,
			"category":       app.CategoryFile,
		})
		metrics.RecordCatalogAppend(app.CategoryFile, "failed")
		return err
	case !ok:
		metrics.RecordCatalogAppend(app.CategoryFile, "skipped")
		return nil
	}
	metrics.RecordCatalogAppend(app.CategoryFile, "appended")
	return nil
}

func (s *applicationService) restoreStatus(id string, status model.ApplicationStatus) error {
	return s.apps.Update(func(set *store.DocumentSet[model.Application]) error {
		_, rec := set.Find(func(a *model.Application) bool { return a.ID == id })
		if rec == nil {
			return store.ErrNoChange
		}
		rec.Status = status
		return nil
	})
}

func (s *applicationService) Reject(id, email string) (*model.Application, error) {
	logger.Info("Rejecting application", map[string]interface{}{
		"application_id": id,
		"email":          email,
	})

	s.decisions.Lock()
	defer s.decisions.Unlock()

	app, _, changed, err := s.decide(id, email, model.ApplicationStatusRejected)
	if err != nil {
		logger.Warn("Rejection failed", map[string]interface{}{
			"application_id": id,
			"email":          email,
			"error":          err.Error(),
		})
		return nil, err
	}
	if changed {
		metrics.RecordApplicationEvent("rejected", app.CategoryFile)
		s.events.Publish(model.NewApplicationEvent("rejected", &app, time.Now()))
	}
	return &app, nil
}

// matchEmail matches records whose email field equals email, ignoring case
// and surrounding space. A blank email matches nothing.
func matchEmail[T any](key func(*T) string, email string) func(*T) bool {
	blank := util.NormalizeEmail(email) == ""
	return func(rec *T) bool {
		return !blank && util.EqualEmails(key(rec), email)
	}
}

// findApplication looks up the application for an email without locking.
func findApplication(apps *store.Collection[model.Application], email string) (*model.Application, error) {
	if util.NormalizeEmail(email) == "" {
		return nil, nil
	}
	return apps.FindByKey(applicationEmail, email, true)
}
