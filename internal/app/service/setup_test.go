package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anangai/civic-portal-backend/internal/catalog"
	"github.com/anangai/civic-portal-backend/internal/db"
	"github.com/anangai/civic-portal-backend/internal/storage"
	"github.com/stretchr/testify/require"
)

const testSalt = "test-salt"

// pdfBody is enough of a PDF for content sniffing
const pdfBody = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"

type testEnv struct {
	root      string
	stores    *db.Stores
	registry  *catalog.Registry
	discovery DiscoveryService
	licenses  LicenseService
	apps      ApplicationService
	accounts  AccountService
	directory DirectoryService
}

func setupServiceTest(t *testing.T) *testEnv {
	root := t.TempDir()

	stores, err := db.SetupTestStores(root)
	require.NoError(t, err)

	for _, dir := range []string{"Food", "Places", "Events", "uploads"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	for _, id := range catalog.FeaturedCategories {
		require.NoError(t, os.WriteFile(filepath.Join(root, "Food", id+".txt"), nil, 0o644))
	}

	files, err := storage.NewLocalStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)

	registry := catalog.NewRegistry(
		filepath.Join(root, "Food"),
		filepath.Join(root, "Places"),
		filepath.Join(root, "Events"),
	)
	discovery := NewDiscoveryService(registry, nil)
	licenses := NewLicenseService(files, 1<<20)

	return &testEnv{
		root:      root,
		stores:    stores,
		registry:  registry,
		discovery: discovery,
		licenses:  licenses,
		apps:      NewApplicationService(stores.Applications, discovery, licenses),
		accounts:  NewAccountService(stores.Users, stores.Applications, licenses, testSalt),
		directory: NewDirectoryService(stores.Users, stores.Applications),
	}
}

func (e *testEnv) readCategory(t *testing.T, id string) string {
	data, err := os.ReadFile(filepath.Join(e.root, "Food", id+".txt"))
	require.NoError(t, err)
	return string(data)
}

func (e *testEnv) uploads(t *testing.T) []string {
	entries, err := os.ReadDir(filepath.Join(e.root, "uploads"))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func pdfUpload(name string) *Upload {
	return &Upload{Filename: name, Body: strings.NewReader(pdfBody)}
}
