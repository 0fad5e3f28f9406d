// Package config provides centralized default values for the internship portal
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		log.Println("Loading configuration overrides from .env file...")
		if err := godotenv.Load(); err != nil {
			log.Printf("Failed to load .env file: %v", err)
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if valStr := os.Getenv(key); valStr != "" {
		var vals []string
		for _, part := range strings.Split(valStr, ",") {
			if part = strings.TrimSpace(part); part != "" {
				vals = append(vals, part)
			}
		}
		if len(vals) > 0 {
			return vals
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	AllowedOrigins     []string

	// Database
	TursoDatabaseURL  string
	TursoAuthToken    string
	SQLitePath        string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBQueryTimeout    time.Duration

	// Identity
	JWTSecret          string
	StudentEmailDomain string
	StaffEmailDomain   string
	AdminEmails        []string
	AdminPasswordHash  string

	// TTL Configuration
	SessionTTL       time.Duration
	DashboardTTL     time.Duration
	RequestsTTL      time.Duration
	CertificatesTTL  time.Duration
	OpportunitiesTTL time.Duration

	// Upload Configuration
	MediaRoot           string
	MediaBaseURL        string
	UploadMinSizeBytes  int
	UploadMaxSizeBytes  int
	UploadTimeout       time.Duration
	UploadRetryTimeout  time.Duration
	AllowedContentTypes []string

	// Email
	ResendAPIKey     string
	WelcomeEmailFrom string

	// Logging
	LogDirectory    string
	LogJSONFormat   bool
	LogToFile       bool
	VerboseLogging  bool
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"})

	// Database
	TursoDatabaseURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	SQLitePath = getEnvString("SQLITE_PATH", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetime = time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute
	DBQueryTimeout = getEnvDuration("DB_QUERY_TIMEOUT", 5*time.Second)

	// Identity
	JWTSecret = getEnvString("JWT_SECRET", "")
	StudentEmailDomain = getEnvString("STUDENT_EMAIL_DOMAIN", "charusat.edu.in")
	StaffEmailDomain = getEnvString("STAFF_EMAIL_DOMAIN", "charusat.ac.in")
	AdminEmails = getEnvStringSlice("ADMIN_EMAILS", nil)
	AdminPasswordHash = getEnvString("ADMIN_PASSWORD_HASH", "")

	// TTL Configuration
	SessionTTL = getEnvDuration("SESSION_TTL", 60*time.Second)
	DashboardTTL = time.Duration(getEnvInt("DASHBOARD_TTL_MINUTES", 5)) * time.Minute
	RequestsTTL = time.Duration(getEnvInt("REQUESTS_TTL_MINUTES", 2)) * time.Minute
	CertificatesTTL = time.Duration(getEnvInt("CERTIFICATES_TTL_MINUTES", 10)) * time.Minute
	OpportunitiesTTL = time.Duration(getEnvInt("OPPORTUNITIES_TTL_MINUTES", 5)) * time.Minute

	// Upload Configuration
	MediaRoot = getEnvString("MEDIA_ROOT", "media")
	MediaBaseURL = getEnvString("MEDIA_BASE_URL", "/media")
	UploadMinSizeBytes = getEnvInt("UPLOAD_MIN_SIZE_BYTES", 100)
	UploadMaxSizeBytes = getEnvInt("UPLOAD_MAX_SIZE_BYTES", 5*1024*1024)
	UploadTimeout = getEnvDuration("UPLOAD_TIMEOUT", 30*time.Second)
	UploadRetryTimeout = getEnvDuration("UPLOAD_RETRY_TIMEOUT", 10*time.Second)
	AllowedContentTypes = getEnvStringSlice("ALLOWED_CONTENT_TYPES",
		[]string{"application/pdf", "image/png", "image/jpeg", "image/webp"})

	// Email
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	WelcomeEmailFrom = getEnvString("WELCOME_EMAIL_FROM", "portal@charusat.edu.in")

	// Logging
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")
	LogJSONFormat = getEnvBool("LOG_JSON_FORMAT", true)
	LogToFile = getEnvBool("LOG_TO_FILE", true)
	VerboseLogging = getEnvBool("VERBOSE_LOGGING", false)
}
