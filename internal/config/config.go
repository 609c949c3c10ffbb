package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	AppPort       string
	StoreDriver   string
	DBDSN         string
	JWTSecret     string
	JWTExpiresMin int
	CORSOrigins   string

	RedisAddr     string
	RedisPassword string

	TermsRevision    string
	MessagingWindow  time.Duration
	PlatformFeeCents int64
	WebhookSecret    string

	UploadDir     string
	PublicBaseURL string

	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func Load() Config {
	expires, _ := strconv.Atoi(get("JWT_EXPIRES_MIN", "1440"))
	windowHours, err := strconv.Atoi(get("MESSAGING_WINDOW_HOURS", "24"))
	if err != nil || windowHours <= 0 {
		windowHours = 24
	}
	fee, err := strconv.ParseInt(get("PLATFORM_FEE_CENTS", "500"), 10, 64)
	if err != nil || fee < 0 {
		fee = 500
	}

	driver := strings.ToLower(get("STORE_DRIVER", StorePostgres))
	dsn := get("DB_DSN", "")
	if driver == StorePostgres {
		dsn = must("DB_DSN")
	}

	return Config{
		AppPort:       get("APP_PORT", "8080"),
		StoreDriver:   driver,
		DBDSN:         dsn,
		JWTSecret:     must("JWT_SECRET"),
		JWTExpiresMin: expires,
		CORSOrigins:   get("CORS_ORIGINS", "http://127.0.0.1:3000, http://localhost:3000"),

		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: get("REDIS_PASSWORD", ""),

		TermsRevision:    get("TERMS_REVISION", "v1"),
		MessagingWindow:  time.Duration(windowHours) * time.Hour,
		PlatformFeeCents: fee,
		WebhookSecret:    get("PAYMENT_WEBHOOK_SECRET", ""),

		UploadDir:     get("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: get("PUBLIC_BASE_URL", ""),

		GoogleClientID:  get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:    get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect:  get("GOOGLE_REDIRECT_URL", ""),
		FrontendBaseURL: get("FRONTEND_BASE_URL", "http://localhost:3000"),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
