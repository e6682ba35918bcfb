package db

import (
	"path/filepath"

	"github.com/anangai/civic-portal-backend/config"
)

// SetupTestStores opens empty collections under dir, typically t.TempDir().
func SetupTestStores(dir string) (*Stores, error) {
	return Open(&config.DataConfig{
		Dir:              dir,
		UsersFile:        filepath.Join(dir, "database.txt"),
		ApplicationsFile: filepath.Join(dir, "applications.txt"),
	})
}
