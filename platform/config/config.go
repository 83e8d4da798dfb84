// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"eventsite_backend/platform/secrets"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// PricingConfig provides the deposit settings used at checkout time.
type PricingConfig interface {
	GetDefaultDepositPct() decimal.Decimal
	GetCheckoutMinimumDepositMinor() int64
	GetCurrency() string
}

// PaymentConfig provides settings for the hosted checkout provider.
type PaymentConfig interface {
	GetStripeSecretKey() string
	GetStripeWebhookSecret() string
	GetCheckoutSuccessURL() string
	GetCheckoutCancelURL() string
	GetContactPageURL() string
	GetPaymentTimeout() time.Duration
	IsStripeEnabled() bool
}

// RedisConfig provides the Redis connection used for checkout session caching.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// EmailConfig provides settings shared by every email provider.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetQuoteCCList() []string
	GetEmailTimeout() time.Duration
}

// GraphMailConfig provides Microsoft Graph mailbox credentials.
type GraphMailConfig interface {
	GetGraphTenantID() string
	GetGraphClientID() string
	GetGraphClientSecret() string
	GetGraphMailbox() string
	IsGraphMailEnabled() bool
}

// BrevoConfig provides settings for the Brevo transactional API.
type BrevoConfig interface {
	GetBrevoAPIKey() string
	IsBrevoEnabled() bool
}

// SMTPConfig provides settings for the authenticated SMTP relay.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	IsSMTPEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketQuotePDFs() string
	GetMinioBucketBranding() string
	IsMinIOEnabled() bool
}

// BusinessConfig provides the business identity printed on quotes and emails.
type BusinessConfig interface {
	GetBusinessProfile() BusinessProfile
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env            string
	HTTPAddr       string
	DatabaseURL    string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	DefaultDepositPct           decimal.Decimal
	CheckoutMinimumDepositMinor int64
	Currency                    string

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
	ContactPageURL      string
	PaymentTimeout      time.Duration

	RedisURL         string
	RedisTLSInsecure bool

	EmailEnabled     bool
	EmailFromName    string
	EmailFromAddress string
	QuoteCCList      []string
	EmailTimeout     time.Duration

	GraphTenantID     string
	GraphClientID     string
	GraphClientSecret string
	GraphMailbox      string

	BrevoAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinIOMaxFileSize     int64
	MinioBucketQuotePDFs string
	MinioBucketBranding  string

	Business BusinessProfile
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// PricingConfig implementation
func (c *Config) GetDefaultDepositPct() decimal.Decimal { return c.DefaultDepositPct }
func (c *Config) GetCheckoutMinimumDepositMinor() int64 { return c.CheckoutMinimumDepositMinor }
func (c *Config) GetCurrency() string                   { return c.Currency }

// PaymentConfig implementation
func (c *Config) GetStripeSecretKey() string       { return c.StripeSecretKey }
func (c *Config) GetStripeWebhookSecret() string   { return c.StripeWebhookSecret }
func (c *Config) GetCheckoutSuccessURL() string    { return c.CheckoutSuccessURL }
func (c *Config) GetCheckoutCancelURL() string     { return c.CheckoutCancelURL }
func (c *Config) GetContactPageURL() string        { return c.ContactPageURL }
func (c *Config) GetPaymentTimeout() time.Duration { return c.PaymentTimeout }
func (c *Config) IsStripeEnabled() bool            { return c.StripeSecretKey != "" }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool          { return c.EmailEnabled }
func (c *Config) GetEmailFromName() string       { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string    { return c.EmailFromAddress }
func (c *Config) GetQuoteCCList() []string       { return c.QuoteCCList }
func (c *Config) GetEmailTimeout() time.Duration { return c.EmailTimeout }

// GraphMailConfig implementation
func (c *Config) GetGraphTenantID() string     { return c.GraphTenantID }
func (c *Config) GetGraphClientID() string     { return c.GraphClientID }
func (c *Config) GetGraphClientSecret() string { return c.GraphClientSecret }
func (c *Config) GetGraphMailbox() string      { return c.GraphMailbox }
func (c *Config) IsGraphMailEnabled() bool {
	return c.GraphTenantID != "" && c.GraphClientID != "" && c.GraphClientSecret != "" && c.GraphMailbox != ""
}

// BrevoConfig implementation
func (c *Config) GetBrevoAPIKey() string { return c.BrevoAPIKey }
func (c *Config) IsBrevoEnabled() bool   { return c.BrevoAPIKey != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string     { return c.SMTPHost }
func (c *Config) GetSMTPPort() int        { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string { return c.SMTPPassword }
func (c *Config) IsSMTPEnabled() bool     { return c.SMTPHost != "" && c.SMTPUsername != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64      { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketQuotePDFs() string { return c.MinioBucketQuotePDFs }
func (c *Config) GetMinioBucketBranding() string  { return c.MinioBucketBranding }
func (c *Config) IsMinIOEnabled() bool            { return c.MinIOEndpoint != "" }

// BusinessConfig implementation
func (c *Config) GetBusinessProfile() BusinessProfile { return c.Business }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	depositPct, err := decimal.NewFromString(getEnv("CHECKOUT_DEPOSIT_PCT", "0.20"))
	if err != nil {
		return nil, fmt.Errorf("CHECKOUT_DEPOSIT_PCT must be a decimal fraction: %w", err)
	}

	smtpPassword, err := resolveSMTPPassword()
	if err != nil {
		return nil, err
	}

	business, err := LoadBusinessProfile(getEnv("BUSINESS_PROFILE_PATH", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),

		DefaultDepositPct:           depositPct,
		CheckoutMinimumDepositMinor: mustInt64(getEnv("CHECKOUT_MIN_DEPOSIT_CENTS", "5000")),
		Currency:                    strings.ToLower(getEnv("CURRENCY", "usd")),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/quotes/paid"),
		CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/quotes/cancelled"),
		ContactPageURL:      getEnv("CONTACT_PAGE_URL", "http://localhost:3000/contact"),
		PaymentTimeout:      mustDuration(getEnv("PAYMENT_TIMEOUT", "20s")),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),

		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true"),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", business.Name),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", business.Email),
		QuoteCCList:      splitCSV(getEnv("QUOTE_CC_LIST", "")),
		EmailTimeout:     mustDuration(getEnv("EMAIL_TIMEOUT", "15s")),

		GraphTenantID:     getEnv("GRAPH_TENANT_ID", ""),
		GraphClientID:     getEnv("GRAPH_CLIENT_ID", ""),
		GraphClientSecret: getEnv("GRAPH_CLIENT_SECRET", ""),
		GraphMailbox:      getEnv("GRAPH_MAILBOX", ""),

		BrevoAPIKey: getEnv("BREVO_API_KEY", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: smtpPassword,

		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:     mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "26214400")),
		MinioBucketQuotePDFs: getEnv("MINIO_BUCKET_QUOTE_PDFS", "quote-pdfs"),
		MinioBucketBranding:  getEnv("MINIO_BUCKET_BRANDING", "branding"),

		Business: business,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.EmailEnabled && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if c.DefaultDepositPct.IsNegative() || c.DefaultDepositPct.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("CHECKOUT_DEPOSIT_PCT must be between 0 and 1")
	}
	if c.CheckoutMinimumDepositMinor < 0 {
		return fmt.Errorf("CHECKOUT_MIN_DEPOSIT_CENTS cannot be negative")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	return nil
}

// resolveSMTPPassword prefers SMTP_PASSWORD_SEALED (opened with SECRETS_KEY)
// over the plain SMTP_PASSWORD.
func resolveSMTPPassword() (string, error) {
	sealed := getEnv("SMTP_PASSWORD_SEALED", "")
	if sealed == "" {
		return getEnv("SMTP_PASSWORD", ""), nil
	}

	key, err := secrets.ParseKey(getEnv("SECRETS_KEY", ""))
	if err != nil {
		return "", fmt.Errorf("SECRETS_KEY is required for SMTP_PASSWORD_SEALED: %w", err)
	}
	password, err := secrets.Open(sealed, key)
	if err != nil {
		return "", fmt.Errorf("open SMTP_PASSWORD_SEALED: %w", err)
	}
	return password, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
