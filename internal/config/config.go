package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Total policies applied to client-submitted order totals.
const (
	TotalPolicyTrust  = "trust"
	TotalPolicyReject = "reject"
)

// Config is the process-wide configuration, built once at startup and passed
// to every component that needs it.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Mail      MailConfig
	Preview   PreviewConfig
	WhatsApp  WhatsAppConfig
	Orders    OrdersConfig
	Catalogue CatalogueConfig
	RabbitMQ  RabbitMQConfig
}

// AppConfig holds the HTTP surface settings.
type AppConfig struct {
	Port       string
	CORSOrigin string
	AppURL     string // public storefront URL, used in email chrome
	APIURL     string // public URL of this API
}

// ListenAddr returns the address passed to fiber's Listen.
func (a AppConfig) ListenAddr() string {
	if strings.HasPrefix(a.Port, ":") {
		return a.Port
	}
	return ":" + a.Port
}

// DatabaseConfig selects the GORM dialector.
type DatabaseConfig struct {
	Driver string // sqlite | postgres
	URL    string
}

// AuthConfig holds the session token settings.
type AuthConfig struct {
	JWTSecret    string
	SessionTTL   time.Duration
	CookieName   string
	CookieSecure bool
}

// MailConfig holds the transactional email settings.
type MailConfig struct {
	Transport          string // smtp | ses
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPass           string
	From               string
	OwnerEmail         string
	OrderFallbackEmail string
	SESRegion          string
	SESAccessKey       string
	SESSecretKey       string
	LogoPath           string
}

// SMTPConfigured reports whether the SMTP credentials are fully set.
func (m MailConfig) SMTPConfigured() bool {
	return m.SMTPHost != "" && m.SMTPUser != "" && m.SMTPPass != ""
}

// SESConfigured reports whether the SES credentials are fully set.
func (m MailConfig) SESConfigured() bool {
	return m.SESRegion != "" && m.SESAccessKey != "" && m.SESSecretKey != ""
}

// ContactRecipient is the address contact messages are delivered to.
func (m MailConfig) ContactRecipient() string {
	if m.OwnerEmail != "" {
		return m.OwnerEmail
	}
	return m.From
}

// PreviewConfig selects where sandbox email previews are stored.
type PreviewConfig struct {
	Disk       string // local | s3
	Dir        string
	S3Bucket   string
	S3Region   string
	S3Key      string
	S3Secret   string
	S3Endpoint string
	S3URL      string
}

// WhatsAppConfig holds the WhatsApp provider settings.
type WhatsAppConfig struct {
	Provider   string // dev | twilio
	AccountSID string
	AuthToken  string
	From       string
	OwnerTo    string
	APIBase    string
}

// OrdersConfig holds the order placement policy.
type OrdersConfig struct {
	TotalPolicy string
}

// CatalogueConfig holds the catalogue source and cache settings.
type CatalogueConfig struct {
	Path     string
	CacheTTL time.Duration
	RedisURL string
}

// RabbitMQConfig enables order events when URL is set.
type RabbitMQConfig struct {
	URL string
}

// Load reads .env (when present) and the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", "3000")
	v.SetDefault("CORS_ORIGIN", "http://localhost:8080")
	v.SetDefault("APP_URL", "http://localhost:8080")
	v.SetDefault("API_URL", "http://localhost:3000")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "file:./dev.db")
	v.SetDefault("JWT_SECRET", "devsecret")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("MAIL_TRANSPORT", "smtp")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "no-reply@kabro.local")
	v.SetDefault("ORDER_FALLBACK_EMAIL", "client@kabro.local")
	v.SetDefault("PREVIEW_DISK", "local")
	v.SetDefault("PREVIEW_DIR", "storage/previews")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("WHATSAPP_PROVIDER", "dev")
	v.SetDefault("TWILIO_API_BASE", "https://api.twilio.com")
	v.SetDefault("ORDER_TOTAL_POLICY", TotalPolicyTrust)
	v.SetDefault("CATALOGUE_CACHE_TTL", "5m")
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
// Tests use it to inject settings without touching the environment.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Port:       v.GetString("PORT"),
			CORSOrigin: v.GetString("CORS_ORIGIN"),
			AppURL:     strings.TrimRight(v.GetString("APP_URL"), "/"),
			APIURL:     strings.TrimRight(v.GetString("API_URL"), "/"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
			URL:    v.GetString("DATABASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:    v.GetString("JWT_SECRET"),
			SessionTTL:   v.GetDuration("SESSION_TTL"),
			CookieName:   "session",
			CookieSecure: v.GetBool("COOKIE_SECURE"),
		},
		Mail: MailConfig{
			Transport:          strings.ToLower(v.GetString("MAIL_TRANSPORT")),
			SMTPHost:           v.GetString("SMTP_HOST"),
			SMTPPort:           v.GetInt("SMTP_PORT"),
			SMTPUser:           v.GetString("SMTP_USER"),
			SMTPPass:           v.GetString("SMTP_PASS"),
			From:               v.GetString("MAIL_FROM"),
			OwnerEmail:         v.GetString("OWNER_EMAIL"),
			OrderFallbackEmail: v.GetString("ORDER_FALLBACK_EMAIL"),
			SESRegion:          v.GetString("SES_REGION"),
			SESAccessKey:       v.GetString("SES_ACCESS_KEY"),
			SESSecretKey:       v.GetString("SES_SECRET_KEY"),
			LogoPath:           v.GetString("BRAND_LOGO_PATH"),
		},
		Preview: PreviewConfig{
			Disk:       strings.ToLower(v.GetString("PREVIEW_DISK")),
			Dir:        v.GetString("PREVIEW_DIR"),
			S3Bucket:   v.GetString("S3_BUCKET"),
			S3Region:   v.GetString("S3_REGION"),
			S3Key:      v.GetString("S3_KEY"),
			S3Secret:   v.GetString("S3_SECRET"),
			S3Endpoint: v.GetString("S3_ENDPOINT"),
			S3URL:      v.GetString("S3_URL"),
		},
		WhatsApp: WhatsAppConfig{
			Provider:   strings.ToLower(v.GetString("WHATSAPP_PROVIDER")),
			AccountSID: v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:  v.GetString("TWILIO_AUTH_TOKEN"),
			From:       v.GetString("TWILIO_WHATSAPP_FROM"),
			OwnerTo:    v.GetString("OWNER_WHATSAPP"),
			APIBase:    strings.TrimRight(v.GetString("TWILIO_API_BASE"), "/"),
		},
		Orders: OrdersConfig{
			TotalPolicy: strings.ToLower(v.GetString("ORDER_TOTAL_POLICY")),
		},
		Catalogue: CatalogueConfig{
			Path:     v.GetString("CATALOGUE_PATH"),
			CacheTTL: v.GetDuration("CATALOGUE_CACHE_TTL"),
			RedisURL: v.GetString("REDIS_URL"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: v.GetString("RABBITMQ_URL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	switch c.Mail.Transport {
	case "smtp", "ses":
	default:
		return fmt.Errorf("unsupported MAIL_TRANSPORT %q", c.Mail.Transport)
	}
	switch c.Preview.Disk {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported PREVIEW_DISK %q", c.Preview.Disk)
	}
	switch c.Orders.TotalPolicy {
	case TotalPolicyTrust, TotalPolicyReject:
	default:
		return fmt.Errorf("unsupported ORDER_TOTAL_POLICY %q", c.Orders.TotalPolicy)
	}
	for _, origin := range strings.Split(c.App.CORSOrigin, ",") {
		if strings.TrimSpace(origin) == "*" {
			return fmt.Errorf("CORS_ORIGIN cannot be \"*\": session cookies need explicit origins")
		}
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}
