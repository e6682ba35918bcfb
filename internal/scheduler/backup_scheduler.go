package scheduler

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/anangai/civic-portal-backend/internal/metrics"
	"github.com/anangai/civic-portal-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Snapshotter is a collection that can copy its backing file.
type Snapshotter interface {
	Name() string
	Path() string
	Snapshot(dst string) (bool, error)
}

// BackupScheduler copies the document files into a timestamped directory on
// a cron schedule.
type BackupScheduler struct {
	cron        *cron.Cron
	schedule    string
	dir         string
	collections []Snapshotter
	now         func() time.Time
}

// NewBackupScheduler snapshots collections into dir on the given cron spec
func NewBackupScheduler(schedule, dir string, collections ...Snapshotter) *BackupScheduler {
	return &BackupScheduler{
		cron:        cron.New(),
		schedule:    schedule,
		dir:         dir,
		collections: collections,
		now:         time.Now,
	}
}

// Start registers the job and starts the cron runner
func (s *BackupScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		logger.Info("Starting scheduled backup", nil)

		if _, err := s.RunOnce(); err != nil {
			logger.Error("Scheduled backup failed", err)
			return
		}

		logger.Info("Scheduled backup finished", nil)
	})
	if err != nil {
		logger.Error("Failed to add cron job for backups", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Backup scheduler started", map[string]interface{}{
		"schedule": s.schedule,
		"dir":      s.dir,
	})
	return nil
}

// Stop waits for a running backup to finish
func (s *BackupScheduler) Stop() {
	logger.Info("Stopping backup scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Backup scheduler stopped", nil)
}

// RunOnce snapshots every collection into a fresh directory and returns it.
// Collections without a file yet are skipped. Every collection is attempted
// even when one fails.
func (s *BackupScheduler) RunOnce() (string, error) {
	target := filepath.Join(s.dir, s.now().UTC().Format("20060102T150405Z"))

	var errs []error
	for _, c := range s.collections {
		dst := filepath.Join(target, filepath.Base(c.Path()))
		copied, err := c.Snapshot(dst)
		if err != nil {
			errs = append(errs, fmt.Errorf("backup %s: %w", c.Name(), err))
			continue
		}
		if !copied {
			logger.Debug("Nothing to back up", map[string]interface{}{
				"collection": c.Name(),
			})
		}
	}

	err := errors.Join(errs...)
	metrics.RecordBackup(err == nil)
	return target, err
}
