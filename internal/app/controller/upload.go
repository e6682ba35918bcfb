package controller

import (
	"errors"
	"net/http"

	"github.com/anangai/civic-portal-backend/internal/app/service"
	"github.com/gin-gonic/gin"
)

// formUpload opens the optional multipart file in field. It returns nil when
// the field is absent; the returned close func is always safe to call.
func formUpload(c *gin.Context, field string) (*service.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &service.Upload{Filename: header.Filename, Body: f}, func() { f.Close() }, nil
}
