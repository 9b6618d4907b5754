package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	GoogleClientID     string
	GoogleClientSecret string
	SessionSecret      []byte
	RedirectURL        string
	DatabasePath       string
	Port               string
	SessionMaxAge      int
	LogLevel           string
	LogFile            string
	Environment        string

	UploadsRoot        string
	UploadsURL         string
	MaxUploadSize      int64
	ScratchDir         string
	DateFormat         string
	AdminEmails        []string
	RateLimitPerMinute int
	ToolsHandoff       bool
}

// LoadConfig reads .env (when present) and the environment. Settings needed
// only by the web server are checked separately by ValidateServer.
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	config := &Config{
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		SessionSecret:      []byte(os.Getenv("SESSION_SECRET")),
	}

	config.RedirectURL = getEnvWithDefault("REDIRECT_URL", "http://localhost:8080/auth/callback")
	config.DatabasePath = getEnvWithDefault("DATABASE_PATH", "./kits.db")
	config.Port = getEnvWithDefault("PORT", "8080")
	config.LogLevel = getEnvWithDefault("LOG_LEVEL", "INFO")
	config.LogFile = os.Getenv("LOG_FILE")
	config.Environment = getEnvWithDefault("ENVIRONMENT", "development")
	config.UploadsRoot = getEnvWithDefault("UPLOADS_ROOT", "./uploads")
	config.UploadsURL = strings.TrimRight(getEnvWithDefault("UPLOADS_URL", "/uploads"), "/")
	config.ScratchDir = getEnvWithDefault("SCRATCH_DIR", os.TempDir())
	config.DateFormat = getEnvWithDefault("DATE_FORMAT", "January 2, 2006")

	var err error
	if config.SessionMaxAge, err = strconv.Atoi(getEnvWithDefault("SESSION_MAX_AGE", "86400")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_MAX_AGE: %v", err)
	}
	if config.MaxUploadSize, err = strconv.ParseInt(getEnvWithDefault("MAX_UPLOAD_SIZE", strconv.Itoa(64<<20)), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE: %v", err)
	}
	if config.RateLimitPerMinute, err = strconv.Atoi(getEnvWithDefault("RATE_LIMIT_PER_MINUTE", "60")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %v", err)
	}
	if config.ToolsHandoff, err = strconv.ParseBool(getEnvWithDefault("TOOLS_HANDOFF", "true")); err != nil {
		return nil, fmt.Errorf("invalid TOOLS_HANDOFF: %v", err)
	}

	for _, email := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		if email = strings.TrimSpace(email); email != "" {
			config.AdminEmails = append(config.AdminEmails, email)
		}
	}

	v := NewValidator()
	v.ValidateRange(config.SessionMaxAge, "SESSION_MAX_AGE", 60, 60*60*24*30)
	v.ValidateRange(config.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE", 1, 10000)
	v.ValidateRequired(config.UploadsRoot, "UPLOADS_ROOT")
	if config.MaxUploadSize <= 0 {
		v.AddError("MAX_UPLOAD_SIZE must be positive")
	}
	for _, email := range config.AdminEmails {
		v.ValidateEmail(email, "ADMIN_EMAILS entry")
	}
	if v.HasErrors() {
		return nil, fmt.Errorf("invalid configuration: %s", v.ErrorString())
	}

	return config, nil
}

// ValidateServer checks the settings the web server needs for Google login and sessions.
func (c *Config) ValidateServer() error {
	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID environment variable is required")
	}
	if c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET environment variable is required")
	}
	if len(c.SessionSecret) == 0 {
		return fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters long")
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func GenerateCSRFToken() (string, error) {
	return GenerateSecureToken(32)
}
