package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderGateway = "gateway"
	ProviderGemini  = "gemini"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"profilegen"`
	// PublicURL is advertised in the agent card; empty means http://localhost:<port>.
	PublicURL string `env:"PUBLIC_URL"`

	TextProvider     string        `env:"TEXT_PROVIDER" envDefault:"gateway"`
	GatewayURL       string        `env:"AI_GATEWAY_URL" envDefault:"https://ai.gateway.lovable.dev/v1/chat/completions"`
	GatewayAPIKey    string        `env:"AI_GATEWAY_API_KEY"`
	GeminiAPIKey     string        `env:"GEMINI_API_KEY"`
	TextModel        string        `env:"TEXT_MODEL" envDefault:"google/gemini-2.5-flash"`
	ImageModel       string        `env:"IMAGE_MODEL" envDefault:"google/gemini-2.5-flash-image"`
	GeminiModel      string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	TextTimeout      time.Duration `env:"TEXT_TIMEOUT" envDefault:"60s"`
	ImageTimeout     time.Duration `env:"IMAGE_TIMEOUT" envDefault:"60s"`
	ImageConcurrency int           `env:"IMAGE_CONCURRENCY" envDefault:"1"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"json"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	OTELEnabled    bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string `env:"OTEL_ENDPOINT"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.TextProvider = strings.ToLower(strings.TrimSpace(cfg.TextProvider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.TextProvider {
	case ProviderGateway:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when TEXT_PROVIDER=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TEXT_PROVIDER %q", c.TextProvider))
	}

	// Images always go through the gateway.
	if c.GatewayAPIKey == "" {
		errs = append(errs, errors.New("AI_GATEWAY_API_KEY is required"))
	}
	if c.TextTimeout <= 0 || c.ImageTimeout <= 0 {
		errs = append(errs, errors.New("TEXT_TIMEOUT and IMAGE_TIMEOUT must be positive"))
	}
	if c.ImageConcurrency < 1 {
		errs = append(errs, errors.New("IMAGE_CONCURRENCY must be at least 1"))
	}

	return errors.Join(errs...)
}

// BaseURL is the externally reachable root of the service.
func (c *Config) BaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	return "http://localhost" + c.Addr()
}

// Addr returns the listen address for Port, accepting both "8080" and ":8080".
func (c *Config) Addr() string {
	if c.Port != "" && !strings.Contains(c.Port, ":") {
		return ":" + c.Port
	}
	return c.Port
}
