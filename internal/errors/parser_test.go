package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anangai/civic-portal-backend/internal/app/service"
	"github.com/anangai/civic-portal-backend/internal/catalog"
	"github.com/anangai/civic-portal-backend/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "Wrapped validation error keeps sentinel text",
			err:        fmt.Errorf("%w: parks", service.ErrInvalidCategory),
			wantStatus: http.StatusBadRequest,
			wantCode:   ApplicationBadCategory,
			wantMsg:    "invalid category",
		},
		{
			name:       "Duplicate application",
			err:        service.ErrDuplicateApplication,
			wantStatus: http.StatusConflict,
			wantCode:   ApplicationDuplicate,
			wantMsg:    service.ErrDuplicateApplication.Error(),
		},
		{
			name:       "Catalog category",
			err:        fmt.Errorf("%w: nowhere", catalog.ErrCategoryNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   CategoryNotFound,
			wantMsg:    "category not found",
		},
		{
			name:       "Corruption hides path",
			err:        fmt.Errorf("%w: /srv/data/database.txt: bad json", store.ErrStoreCorruption),
			wantStatus: http.StatusInternalServerError,
			wantCode:   InternalStoreCorrupt,
			wantMsg:    "stored data could not be read",
		},
		{
			name:       "Upload too large",
			err:        fmt.Errorf("write upload: %w", service.ErrFileTooLarge),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   UploadFileTooLarge,
			wantMsg:    "file too large",
		},
		{
			name:       "Network",
			err:        fmt.Errorf("dial tcp 10.0.0.1:6379: connection refused"),
			wantStatus: http.StatusBadGateway,
			wantCode:   InternalExternalAPI,
		},
		{
			name:       "Unknown",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   InternalServerError,
			wantMsg:    "Failed to approve application. Please try again later",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, "approve application")
			assert.Equal(t, tt.wantStatus, info.Status)
			assert.Equal(t, tt.wantCode, info.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, info.Message)
			}
		})
	}
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Respond(c, service.ErrInvalidCredentials, "log in")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrorResponse{Error: AuthInvalidCredentials, Message: "invalid credentials"}, body)
}
