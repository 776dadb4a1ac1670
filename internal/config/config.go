package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	DBDSN          string
	UploadDir      string
	LogFile        string
	Env            string
	ServiceName    string
	SessionTTL     time.Duration
	MaxUploadBytes int
	AdminEmail     string
	AdminPassword  string
	SeedDemo       bool
	CORSOrigins    string
}

func Load() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		DBDSN:          getEnv("DB_DSN", "storefront.db"), // sqlite file in working dir
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		LogFile:        os.Getenv("LOG_FILE"),
		Env:            getEnv("APP_ENV", "dev"),
		ServiceName:    getEnv("SERVICE_NAME", "storefront"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 30*time.Minute),
		MaxUploadBytes: getEnvInt("MAX_UPLOAD_BYTES", 5<<20),
		AdminEmail:     strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		SeedDemo:       getEnvBool("SEED_DEMO", false),
		CORSOrigins:    getEnv("CORS_ORIGINS", "*"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getEnvDuration accepts Go durations ("45m") or a bare number of minutes.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Minute
	}
	return def
}
