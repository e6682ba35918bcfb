package service

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/anangai/civic-portal-backend/config"
	"github.com/anangai/civic-portal-backend/pkg/logger"
	"github.com/anangai/civic-portal-backend/pkg/util"
)

// AdminService authenticates the founder portal against a static allow-list.
type AdminService interface {
	Login(email, password string) (string, error)
	VerifyAdmin(token string) bool
}

type adminService struct {
	credentials map[string]util.Credential
	staticToken string
	jwtSecret   string
	tokenExpiry time.Duration
}

// NewAdminService builds the allow-list. When cfg.JWTSecret is set, Login
// issues signed session tokens; the static token is accepted either way.
func NewAdminService(cfg config.AdminConfig) AdminService {
	creds := make(map[string]util.Credential, len(cfg.Credentials))
	for _, c := range cfg.Credentials {
		creds[util.NormalizeEmail(c.Email)] = util.SecretCredential(c.Secret)
	}
	return &adminService{
		credentials: creds,
		staticToken: cfg.Token,
		jwtSecret:   cfg.JWTSecret,
		tokenExpiry: cfg.TokenExpiry,
	}
}

func (s *adminService) Login(email, password string) (string, error) {
	email = util.NormalizeEmail(email)
	cred, ok := s.credentials[email]
	if !ok || !cred.Verify(password) {
		logger.Warn("Admin login failed", map[string]interface{}{
			"email": email,
		})
		return "", ErrInvalidAdminCredentials
	}

	if s.jwtSecret == "" {
		logger.Info("Admin logged in", map[string]interface{}{
			"email": email,
		})
		return s.staticToken, nil
	}

	token, err := util.GenerateAdminToken(email, s.jwtSecret, s.tokenExpiry)
	if err != nil {
		logger.Error("Failed to issue admin token", err, map[string]interface{}{
			"email": email,
		})
		return "", err
	}
	logger.Info("Admin logged in", map[string]interface{}{
		"email": email,
		"jwt":   true,
	})
	return token, nil
}

func (s *adminService) VerifyAdmin(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	if s.staticToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.staticToken)) == 1 {
		return true
	}
	if s.jwtSecret == "" {
		return false
	}
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return false
	}
	_, allowed := s.credentials[util.NormalizeEmail(claims.Email)]
	return allowed
}
