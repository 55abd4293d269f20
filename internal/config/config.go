// Package config provides environment configuration for the API server.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config holds all configuration for the application.
type Config struct {
	// Server
	Port         string        `envconfig:"port" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"server_read_timeout" default:"30s"`
	WriteTimeout time.Duration `envconfig:"server_write_timeout" default:"60s"`

	// Storage; empty means the in-memory store.
	DatabaseURL string `envconfig:"database_url" default:""`

	// Event broker; empty disables event publishing.
	NATSURL string `envconfig:"nats_url" default:""`

	// Dashboard auth
	JWTSecret string `envconfig:"jwt_secret" default:"development-secret-change-in-production"`

	// Webhook intakes
	WebhookVerifyToken string `envconfig:"webhook_verify_token" default:""`
	WebhookSharedToken string `envconfig:"webhook_shared_token" default:""`

	// WhatsApp Cloud API credentials; empty disables outbound delivery.
	WhatsAppAccessToken   string `envconfig:"whatsapp_access_token" default:""`
	WhatsAppPhoneNumberID string `envconfig:"whatsapp_phone_number_id" default:""`

	// Outbound delivery
	SendTimeout time.Duration `envconfig:"send_timeout" default:"10s"`

	// Rate limiting
	RateLimitRequests int           `envconfig:"rate_limit_requests" default:"60"`
	RateLimitWindow   time.Duration `envconfig:"rate_limit_window" default:"1m"`

	// Logging
	LogLevel string `envconfig:"log_level" default:"info"`

	// Tracing
	TracingEnabled  bool   `envconfig:"tracing_enabled" default:"false"`
	TracingEndpoint string `envconfig:"tracing_endpoint" default:"localhost:4318"`
}

// Load reads configuration from the environment, honoring a local .env file.
func Load() (*Config, error) {
	godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, errors.Wrap(err, "process environment")
	}
	return &c, nil
}
