package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/kelseyhightower/envconfig"
)

// ErrConfiguration marks a startup configuration the service refuses to run with.
var ErrConfiguration = errors.New("invalid configuration")

type Config struct {
	Env       string `envconfig:"ENV" default:"dev"`         // dev, staging, prod
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`  // debug, info, warn, error
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"` // json, text

	Port                int           `envconfig:"PORT" default:"8080"`
	ShutdownGracePeriod time.Duration `envconfig:"SHUTDOWN_GRACE_PERIOD" default:"10s"`

	DatabaseFile string `envconfig:"CASEDESK_DATABASE_FILE" default:"casedesk.db"`
	PepperFile   string `envconfig:"CASEDESK_PEPPER_FILE" default:"pepper"`

	// JWTSecret is the HS256 key shared by the issuer and validator.
	JWTSecret   string        `envconfig:"CASEDESK_JWT_SECRET"`
	JWTIssuer   string        `envconfig:"CASEDESK_JWT_ISSUER" default:"casedesk"`
	JWTAudience string        `envconfig:"CASEDESK_JWT_AUDIENCE" default:"casedesk-api"`
	TokenTTL    time.Duration `envconfig:"CASEDESK_TOKEN_TTL" default:"2h"`

	// RelaxIssuerAudience skips the iss/aud checks. Refused in prod.
	RelaxIssuerAudience bool `envconfig:"CASEDESK_RELAX_ISSUER_AUDIENCE" default:"false"`

	// Optional: an Admin account created on first start when both are set.
	BootstrapAdminUsername string `envconfig:"CASEDESK_BOOTSTRAP_ADMIN_USERNAME"`
	BootstrapAdminPassword string `envconfig:"CASEDESK_BOOTSTRAP_ADMIN_PASSWORD"`
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool { return c.Env == "prod" }

// Validate rejects settings that would leave tokens forgeable or unusable.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: CASEDESK_JWT_SECRET must be set", ErrConfiguration)
	}
	if len(c.JWTSecret) < jwtx.MinSecretBytes {
		return fmt.Errorf("%w: CASEDESK_JWT_SECRET must be at least %d bytes", ErrConfiguration, jwtx.MinSecretBytes)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: CASEDESK_TOKEN_TTL must be positive, got %s", ErrConfiguration, c.TokenTTL)
	}

	if c.RelaxIssuerAudience {
		if c.IsProduction() {
			return fmt.Errorf("%w: issuer/audience checks cannot be relaxed in prod", ErrConfiguration)
		}
	} else if c.JWTIssuer == "" || c.JWTAudience == "" {
		return fmt.Errorf("%w: CASEDESK_JWT_ISSUER and CASEDESK_JWT_AUDIENCE must be set", ErrConfiguration)
	}

	if (c.BootstrapAdminUsername == "") != (c.BootstrapAdminPassword == "") {
		return fmt.Errorf("%w: bootstrap admin needs both a username and a password", ErrConfiguration)
	}
	return nil
}
