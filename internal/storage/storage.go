// Package storage keeps uploaded license documents.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrFileNotFound is returned when a stored file does not exist
var ErrFileNotFound = errors.New("file not found")

// Object is an opened stored file. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// FileStore saves and serves uploaded files by flat name. Save must either
// store the complete body or leave nothing behind under name.
type FileStore interface {
	Save(ctx context.Context, name, contentType string, body io.Reader) error
	Open(ctx context.Context, name string) (*Object, error)
}
