package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port               string   `env:"PORT" envDefault:"8080"`
	DatabaseURL        string   `env:"DATABASE_URL,required"`
	RabbitMQURL        string   `env:"RABBITMQ_URL"`
	FrontendURL        string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	JWTSecret          string        `env:"JWT_SECRET,required"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	OnboardingTokenTTL time.Duration `env:"ONBOARDING_TOKEN_TTL" envDefault:"24h"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"10"`

	LeadRateLimit  int           `env:"LEAD_RATE_LIMIT" envDefault:"5"`
	LeadRateWindow time.Duration `env:"LEAD_RATE_WINDOW" envDefault:"1h"`

	Mail MailConfig

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	SweepEnabled  bool          `env:"ONBOARDING_SWEEP_ENABLED" envDefault:"false"`
	SweepInterval time.Duration `env:"ONBOARDING_SWEEP_INTERVAL" envDefault:"1h"`
	SweepGrace    time.Duration `env:"ONBOARDING_SWEEP_GRACE" envDefault:"168h"`

	Admin AdminConfig
}

type MailConfig struct {
	Host     string `env:"MAIL_HOST"`
	Port     int    `env:"MAIL_PORT" envDefault:"587"`
	User     string `env:"MAIL_USER"`
	Password string `env:"MAIL_PASS"`
	From     string `env:"MAIL_FROM"`
}

// AdminConfig seeds the first administrator when both email and password
// are set.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
	Name     string `env:"ADMIN_NAME"`
}

func (a AdminConfig) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (*Config, error) {
	// A missing .env is fine in containers.
	_ = godotenv.Load(files...)
	return Parse()
}

func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.OnboardingTokenTTL <= 0 {
		return fmt.Errorf("ONBOARDING_TOKEN_TTL must be positive")
	}
	if c.LeadRateLimit <= 0 || c.LeadRateWindow <= 0 {
		return fmt.Errorf("LEAD_RATE_LIMIT and LEAD_RATE_WINDOW must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// MailEnabled reports whether outbound email can be sent.
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != ""
}
