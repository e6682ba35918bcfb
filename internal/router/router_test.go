package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anangai/civic-portal-backend/config"
	"github.com/anangai/civic-portal-backend/internal/app/controller"
	"github.com/anangai/civic-portal-backend/internal/app/service"
	"github.com/anangai/civic-portal-backend/internal/catalog"
	"github.com/anangai/civic-portal-backend/internal/db"
	"github.com/anangai/civic-portal-backend/internal/middleware"
	"github.com/anangai/civic-portal-backend/internal/storage"
	"github.com/anangai/civic-portal-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouterTest(t *testing.T) *gin.Engine {
	root := t.TempDir()

	stores, err := db.SetupTestStores(root)
	require.NoError(t, err)
	files, err := storage.NewLocalStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)

	cfg := &config.Config{
		Server:  config.ServerConfig{GinMode: gin.TestMode},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Storage: config.StorageConfig{MaxUploadSize: 1 << 20},
		Admin: config.AdminConfig{
			Credentials: []config.AdminCredential{{Email: "admin@portal.org", Secret: "pass"}},
			Token:       "router-token",
		},
	}

	registry := catalog.NewRegistry(filepath.Join(root, "Food"), filepath.Join(root, "Places"), filepath.Join(root, "Events"))
	discovery := service.NewDiscoveryService(registry, nil)
	licenses := service.NewLicenseService(files, cfg.Storage.MaxUploadSize)
	admins := service.NewAdminService(cfg.Admin)
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	r := NewRouter(
		controller.NewApplicationController(
			service.NewApplicationService(stores.Applications, discovery, licenses, service.WithEventPublisher(hub)),
			admins,
		),
		controller.NewAccountController(
			service.NewAccountService(stores.Users, stores.Applications, licenses, "salt"),
			service.NewDirectoryService(stores.Users, stores.Applications),
		),
		controller.NewDiscoveryController(discovery),
		controller.NewUploadController(licenses),
		controller.NewEventsController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(admins),
		middleware.NewRateLimiter(middleware.RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 2}),
		cfg,
	)
	return r.Setup()
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	engine := setupRouterTest(t)

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_CORS(t *testing.T) {
	engine := setupRouterTest(t)

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{"Allowed origin", "http://localhost:3000", "http://localhost:3000"},
		{"Other origin", "http://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
			req.Header.Set("Origin", tt.origin)
			w := serve(engine, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
		})
	}
}

func TestRouter_AdminGroupRequiresToken(t *testing.T) {
	engine := setupRouterTest(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/applications"},
		{http.MethodPost, "/api/admin/applications/approve"},
		{http.MethodPost, "/api/admin/applications/reject"},
		{http.MethodGet, "/api/admin/pending"},
		{http.MethodPost, "/api/admin/approve"},
		{http.MethodPost, "/api/admin/reject"},
		{http.MethodGet, "/api/admin/events"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			w := serve(engine, httptest.NewRequest(p.method, p.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/applications", nil)
	req.Header.Set("Authorization", "Bearer router-token")
	w := serve(engine, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applications":[]}`, w.Body.String())
}

func TestRouter_RateLimitOnLogin(t *testing.T) {
	engine := setupRouterTest(t)

	login := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"x@y.com","password":"secret"}`))
		req.Header.Set("Content-Type", "application/json")
		return serve(engine, req).Code
	}

	assert.Equal(t, http.StatusUnauthorized, login())
	assert.Equal(t, http.StatusUnauthorized, login())
	assert.Equal(t, http.StatusTooManyRequests, login())

	// reads are not limited
	w := serve(engine, httptest.NewRequest(http.MethodGet, "/api/user?email=x@y.com", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	engine := setupRouterTest(t)

	serve(engine, httptest.NewRequest(http.MethodGet, "/health", nil))
	w := serve(engine, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestRouter_UnknownRoute(t *testing.T) {
	engine := setupRouterTest(t)

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"RESOURCE_NOT_FOUND","message":"Route not found"}`, w.Body.String())
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	engine := setupRouterTest(t)
	engine.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
}
