package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Data      DataConfig
	Auth      AuthConfig
	Admin     AdminConfig
	CORS      CORSConfig
	Storage   StorageConfig
	S3        S3Config
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Backup    BackupConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type LogConfig struct {
	Level  string
	Format string
}

// DataConfig locates the two JSON collections and the category directories.
type DataConfig struct {
	Dir              string
	UsersFile        string
	ApplicationsFile string
	FoodDir          string
	PlacesDir        string
	EventsDir        string
	UploadsDir       string
}

type AuthConfig struct {
	PasswordSalt string
}

// AdminCredential is one entry of the founder portal allow-list. Secret is
// either plaintext or a bcrypt hash.
type AdminCredential struct {
	Email  string
	Secret string
}

type AdminConfig struct {
	Credentials []AdminCredential
	Token       string // static bearer token
	JWTSecret   string // signs session tokens; empty disables them
	TokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type StorageConfig struct {
	Type          string // local or s3
	MaxUploadSize int64
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type RedisConfig struct {
	Addr     string // empty disables the discovery cache
	Password string
	DB       int
	TTL      time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type BackupConfig struct {
	Schedule string // cron spec, empty disables backups
	Dir      string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dataDir := getEnv("DATA_DIR", ".")
	admins, err := parseAdminCredentials(getEnv("ADMIN_CREDENTIALS", "admin@anangai.com:anang_admin_2024,saurav@gmail.com:saurav@qhacks"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8000"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", ""),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Data: DataConfig{
			Dir:              dataDir,
			UsersFile:        dataPath(dataDir, getEnv("USERS_FILE", "database.txt")),
			ApplicationsFile: dataPath(dataDir, getEnv("APPLICATIONS_FILE", "applications.txt")),
			FoodDir:          dataPath(dataDir, getEnv("FOOD_DIR", "Food")),
			PlacesDir:        dataPath(dataDir, getEnv("PLACES_DIR", "Places")),
			EventsDir:        dataPath(dataDir, getEnv("EVENTS_DIR", "Events")),
			UploadsDir:       dataPath(dataDir, getEnv("UPLOADS_DIR", "uploads")),
		},
		Auth: AuthConfig{
			PasswordSalt: getEnv("PASSWORD_SALT", "anang_ai_partner_2024"),
		},
		Admin: AdminConfig{
			Credentials: admins,
			Token:       getEnv("ADMIN_TOKEN", "anang_founder_portal_token"),
			JWTSecret:   getEnv("ADMIN_JWT_SECRET", ""),
			TokenExpiry: parseDuration(getEnv("ADMIN_TOKEN_EXPIRY", "12h"), 12*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Storage: StorageConfig{
			Type:          strings.ToLower(getEnv("STORAGE_TYPE", "local")),
			MaxUploadSize: int64(parseInt(getEnv("MAX_UPLOAD_SIZE_MB", "10"), 10)) << 20,
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ca-central-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			TTL:      parseDuration(getEnv("CACHE_TTL", "10m"), 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RPS:   parseFloat(getEnv("RATE_LIMIT_RPS", "5"), 5),
			Burst: parseInt(getEnv("RATE_LIMIT_BURST", "10"), 10),
		},
		Backup: BackupConfig{
			Schedule: getEnv("BACKUP_SCHEDULE", ""),
			Dir:      dataPath(dataDir, getEnv("BACKUP_DIR", "backups")),
		},
	}

	if config.Storage.Type != "local" && config.Storage.Type != "s3" {
		return nil, fmt.Errorf("unsupported STORAGE_TYPE %q", config.Storage.Type)
	}
	if config.Storage.Type == "s3" && config.S3.Bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is required when STORAGE_TYPE=s3")
	}

	return config, nil
}

// LogLevel defaults to debug in development and info elsewhere.
func (c *Config) LogLevel() string {
	if c.Log.Level != "" {
		return c.Log.Level
	}
	if c.Server.Environment == "development" {
		return "debug"
	}
	return "info"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// dataPath resolves relative paths against the data directory.
func dataPath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func parseDuration(s string, def time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, def)
		return def
	}
	return duration
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, def)
		return def
	}
	return n
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		log.Printf("Invalid number %s, using default %v", s, def)
		return def
	}
	return f
}

func parseSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parseAdminCredentials reads "email:secret" pairs. The secret runs to the
// end of the pair so it may itself contain colons.
func parseAdminCredentials(s string) ([]AdminCredential, error) {
	var creds []AdminCredential
	for _, pair := range parseSlice(s) {
		email, secret, ok := strings.Cut(pair, ":")
		email = strings.ToLower(strings.TrimSpace(email))
		if !ok || email == "" || secret == "" {
			return nil, fmt.Errorf("invalid ADMIN_CREDENTIALS entry %q", pair)
		}
		creds = append(creds, AdminCredential{Email: email, Secret: secret})
	}
	return creds, nil
}
