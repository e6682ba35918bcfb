package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/anangai/civic-portal-backend/internal/storage"
	"github.com/anangai/civic-portal-backend/pkg/logger"
	"github.com/anangai/civic-portal-backend/pkg/util"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLen is how much of an upload is read to detect its content type.
const sniffLen = 3072

// allowedLicenseTypes maps accepted extensions to the content they must carry.
var allowedLicenseTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// AllowedLicenseExtensions lists accepted license file extensions
func AllowedLicenseExtensions() []string {
	return []string{".pdf", ".png", ".jpg", ".jpeg", ".webp"}
}

// Upload is a file received with a form
type Upload struct {
	Filename string
	Body     io.Reader
}

// Stored name prefixes
const (
	LicensePrefix        = "license"
	DriversLicensePrefix = "drivers_license"
)

type LicenseService interface {
	// Store saves an upload as <prefix>_<email slug>[_<random>]<ext> and
	// returns the stored name. Without unique a later upload for the same
	// email replaces the earlier one.
	Store(ctx context.Context, prefix, email string, upload Upload, unique bool) (string, error)
	Open(ctx context.Context, name string) (*storage.Object, error)
}

type licenseService struct {
	files   storage.FileStore
	maxSize int64
}

func NewLicenseService(files storage.FileStore, maxSize int64) LicenseService {
	return &licenseService{files: files, maxSize: maxSize}
}

func (s *licenseService) Store(ctx context.Context, prefix, email string, upload Upload, unique bool) (string, error) {
	filename, body := upload.Filename, upload.Body
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := allowedLicenseTypes[ext]
	if !ok {
		logger.Warn("License upload rejected: extension", map[string]interface{}{
			"email":    email,
			"filename": filename,
		})
		return "", fmt.Errorf("%w: allowed types %s", ErrInvalidFileType, strings.Join(AllowedLicenseExtensions(), ", "))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	if !detected.Is(want) {
		logger.Warn("License upload rejected: content", map[string]interface{}{
			"email":    email,
			"filename": filename,
			"detected": detected.String(),
		})
		return "", fmt.Errorf("%w: content is %s", ErrInvalidFileType, detected.String())
	}

	name := prefix + "_" + util.EmailSlug(email)
	if unique {
		name += "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}
	name += ext

	reader := io.MultiReader(bytes.NewReader(head), body)
	if s.maxSize > 0 {
		reader = &limitedReader{r: reader, remaining: s.maxSize}
	}

	if err := s.files.Save(ctx, name, want, reader); err != nil {
		logger.Error("Failed to store license", err, map[string]interface{}{
			"email": email,
			"name":  name,
		})
		return "", err
	}

	logger.Info("License stored", map[string]interface{}{
		"email": email,
		"name":  name,
	})
	return name, nil
}

func (s *licenseService) Open(ctx context.Context, name string) (*storage.Object, error) {
	if !util.SafeFilename(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return s.files.Open(ctx, name)
}

// limitedReader fails with ErrFileTooLarge once more than remaining bytes are read.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	return n, err
}
