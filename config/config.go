package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/faculty-league/standings"
	"github.com/Dosada05/faculty-league/utils"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	// DatabaseURL пустой: данные хранятся в памяти.
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	LogLevel     slog.Level

	CORSAllowedOrigins []string
	AdminEmails        []string
	SecureCookies      bool
	PostLoginRedirect  string
	RequestTimeout     time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	StatsReversalMode standings.ReversalMode
	SeedDemoData      bool
	// AdminPassword enables password login for the seeded admin account.
	AdminPassword string
}

func getEnvBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	var level slog.Level
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
		}
	}

	mode, err := standings.ParseReversalMode(os.Getenv("STATS_REVERSAL_MODE"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_REVERSAL_MODE environment variable: %w", err)
	}

	timeout := 15 * time.Second
	if raw := os.Getenv("REQUEST_TIMEOUT"); raw != "" {
		if timeout, err = time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT environment variable: %w", err)
		}
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	seed, err := getEnvBool("SEED_DEMO_DATA", databaseURL == "")
	if err != nil {
		return nil, err
	}
	secure, err := getEnvBool("COOKIE_SECURE", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:        databaseURL,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		LogLevel:           level,
		CORSAllowedOrigins: utils.SplitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		AdminEmails:        utils.SplitList(os.Getenv("ADMIN_EMAILS")),
		SecureCookies:      secure,
		PostLoginRedirect:  os.Getenv("POST_LOGIN_REDIRECT"),
		RequestTimeout:     timeout,

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		StatsReversalMode: mode,
		SeedDemoData:      seed,
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
	}

	for _, email := range cfg.AdminEmails {
		if !utils.IsValidEmail(email) {
			return nil, fmt.Errorf("invalid address in ADMIN_EMAILS: %q", email)
		}
	}

	return cfg, nil
}
