package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/anangai/civic-portal-backend/config"
	"github.com/anangai/civic-portal-backend/internal/app/service"
	"github.com/anangai/civic-portal-backend/internal/catalog"
	"github.com/anangai/civic-portal-backend/internal/db"
	"github.com/anangai/civic-portal-backend/internal/middleware"
	"github.com/anangai/civic-portal-backend/internal/storage"
	"github.com/anangai/civic-portal-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	testAdminEmail    = "admin@portal.org"
	testAdminPassword = "admin-pass"
	testAdminToken    = "test-admin-token"
)

const pdfBody = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"

type controllerEnv struct {
	router *gin.Engine
	root   string
	hub    *websocket.Hub
}

func setupControllerTest(t *testing.T) *controllerEnv {
	gin.SetMode(gin.TestMode)
	root := t.TempDir()

	stores, err := db.SetupTestStores(root)
	require.NoError(t, err)

	for _, dir := range []string{"Food", "Places", "Events"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	for _, id := range catalog.FeaturedCategories {
		require.NoError(t, os.WriteFile(filepath.Join(root, "Food", id+".txt"), nil, 0o644))
	}

	files, err := storage.NewLocalStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)

	registry := catalog.NewRegistry(filepath.Join(root, "Food"), filepath.Join(root, "Places"), filepath.Join(root, "Events"))
	discovery := service.NewDiscoveryService(registry, nil)
	licenses := service.NewLicenseService(files, 1<<20)
	admins := service.NewAdminService(config.AdminConfig{
		Credentials: []config.AdminCredential{{Email: testAdminEmail, Secret: testAdminPassword}},
		Token:       testAdminToken,
	})

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	appCtrl := NewApplicationController(
		service.NewApplicationService(stores.Applications, discovery, licenses, service.WithEventPublisher(hub)),
		admins,
	)
	accountCtrl := NewAccountController(
		service.NewAccountService(stores.Users, stores.Applications, licenses, "test-salt"),
		service.NewDirectoryService(stores.Users, stores.Applications),
	)
	discoveryCtrl := NewDiscoveryController(discovery)
	uploadCtrl := NewUploadController(licenses)
	eventsCtrl := NewEventsController(hub, []string{"*"})
	auth := middleware.NewAuthMiddleware(admins)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/submit-application", appCtrl.Submit)
	api.POST("/admin/login", appCtrl.AdminLogin)
	api.POST("/finalize-account", accountCtrl.FinalizeAccount)
	api.POST("/register", accountCtrl.Register)
	api.POST("/signup", accountCtrl.Signup)
	api.POST("/login", accountCtrl.Login)
	api.POST("/upload-license", accountCtrl.UploadLicense)
	api.GET("/dashboard-data/:email", accountCtrl.Dashboard)
	api.GET("/user", accountCtrl.GetUser)
	api.PATCH("/user/progress", accountCtrl.UpdateProgress)
	api.GET("/businesses", accountCtrl.ListBusinesses)
	api.GET("/uploads/:filename", uploadCtrl.Serve)
	api.GET("/discovery/categories", discoveryCtrl.Categories)
	api.GET("/discovery/data", discoveryCtrl.Data)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.GET("/applications", appCtrl.List)
	admin.POST("/applications/approve", appCtrl.Approve)
	admin.POST("/applications/reject", appCtrl.Reject)
	admin.GET("/pending", accountCtrl.PendingUsers)
	admin.POST("/approve", accountCtrl.ApproveUser)
	admin.POST("/reject", accountCtrl.RejectUser)
	admin.GET("/events", eventsCtrl.Stream)

	return &controllerEnv{router: router, root: root, hub: hub}
}

func (e *controllerEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *controllerEnv) doJSON(t *testing.T, method, path string, body interface{}, admin bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+testAdminToken)
	}
	return e.do(req)
}

type formFile struct {
	field, name, content string
}

func (e *controllerEnv) doForm(t *testing.T, path string, fields map[string]string, file *formFile) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		part, err := mw.CreateFormFile(file.field, file.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(file.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func shopFields(email string) map[string]string {
	return map[string]string{
		"email":         email,
		"category_file": "shops",
		"storeName":     "Joe's",
		"location":      "123 Main",
		"shopCategory":  "Retail",
	}
}
