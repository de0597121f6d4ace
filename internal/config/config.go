package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Fallback policies applied when the gateway status query fails after a verified callback
const (
	CallbackFallbackPending  = "pending"
	CallbackFallbackCallback = "callback"
)

// Gateway holds the merchant credentials and endpoints of the hosted payment gateway
type Gateway struct {
	MerchantID   string
	MerchantKey  string
	Website      string
	ChannelID    string
	IndustryType string
	CallbackURL  string
	Host         string
	Timeout      time.Duration
}

// PaymentURL is the form-post endpoint the redirect page submits to
func (g Gateway) PaymentURL() string {
	return g.Host + "/order/process"
}

// StatusURL is the transaction status API endpoint
func (g Gateway) StatusURL() string {
	return g.Host + "/v3/order/status"
}

// SettlementURL is the on-demand settlement API endpoint
func (g Gateway) SettlementURL() string {
	return g.Host + "/v1/disburse/order/settlement"
}

// SMTP holds outgoing mail settings for receipts
type SMTP struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// WAHA holds the WhatsApp HTTP API settings for receipts
type WAHA struct {
	BaseURL string
	APIKey  string
	Session string
}

// Config is the process configuration, read from the environment
type Config struct {
	Port        string
	Env         string
	APIPrefix   string
	ServerURL   string
	FrontendURL string

	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	Gateway          Gateway
	SessionTTL       time.Duration
	CallbackFallback string

	FirebaseCredentialsPath string
	AdminAuthDisabled       bool

	SMTP SMTP
	WAHA WAHA

	RateLimitRPS float64

	ReconcileRRule  string
	ReconcileMinAge time.Duration
}

// Load reads the configuration from environment variables, applying defaults
func Load() Config {
	env := getEnv("GATEWAY_ENV", "staging")
	host := "https://securegw-stage.paytm.in"
	if env == "production" {
		host = "https://securegw.paytm.in"
	}

	return Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("APP_ENV", "development"),
		APIPrefix:   strings.TrimRight(getEnv("API_PREFIX", "/api"), "/"),
		ServerURL:   strings.TrimRight(os.Getenv("SERVER_URL"), "/"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "transactions.db"),
		RedisURL:    os.Getenv("REDIS_URL"),

		Gateway: Gateway{
			MerchantID:   os.Getenv("GATEWAY_MID"),
			MerchantKey:  os.Getenv("GATEWAY_MERCHANT_KEY"),
			Website:      getEnv("GATEWAY_WEBSITE", "WEBSTAGING"),
			ChannelID:    getEnv("GATEWAY_CHANNEL_ID", "WEB"),
			IndustryType: getEnv("GATEWAY_INDUSTRY_TYPE", "Retail"),
			CallbackURL:  os.Getenv("GATEWAY_CALLBACK_URL"),
			Host:         strings.TrimRight(getEnv("GATEWAY_HOST", host), "/"),
			Timeout:      getDuration("GATEWAY_TIMEOUT", 15*time.Second),
		},
		SessionTTL:       getDuration("SESSION_TTL", 15*time.Minute),
		CallbackFallback: getEnv("CALLBACK_FALLBACK", CallbackFallbackPending),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase-service-account.json"),
		AdminAuthDisabled:       os.Getenv("ADMIN_AUTH_DISABLED") == "true",

		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("EMAIL_FROM"),
		},
		WAHA: WAHA{
			BaseURL: strings.TrimRight(os.Getenv("WAHA_BASE_URL"), "/"),
			APIKey:  os.Getenv("WAHA_API_KEY"),
			Session: getEnv("WAHA_SESSION", "default"),
		},

		RateLimitRPS: getFloat("RATE_LIMIT_RPS", 20),

		ReconcileRRule:  getEnv("RECONCILE_RRULE", "FREQ=MINUTELY;INTERVAL=5"),
		ReconcileMinAge: getDuration("RECONCILE_MIN_AGE", 10*time.Minute),
	}
}

// Validate reports configuration that would make the gateway integration unusable
func (c Config) Validate() error {
	var errs []error
	if c.Gateway.MerchantID == "" {
		errs = append(errs, errors.New("GATEWAY_MID is not set"))
	}
	if c.Gateway.MerchantKey == "" {
		errs = append(errs, errors.New("GATEWAY_MERCHANT_KEY is not set"))
	}
	if c.CallbackFallback != CallbackFallbackPending && c.CallbackFallback != CallbackFallbackCallback {
		errs = append(errs, errors.New("CALLBACK_FALLBACK must be 'pending' or 'callback'"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the app runs with production settings
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}
