package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr     string `envconfig:"APP_ADDR" default:":6060"`
	TimeZone string `envconfig:"APP_TIMEZONE" default:"UTC"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"./database.db"`

	CognitoRegion       string `envconfig:"COGNITO_REGION"`
	CognitoUserPoolID   string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID     string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoClientSecret string `envconfig:"COGNITO_CLIENT_SECRET"`
	JWKSURL             string `envconfig:"AUTH_JWKS_URL"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL       time.Duration `envconfig:"LOCK_TTL" default:"10s"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"villabook.events"`

	SuperAdminEmails []string `envconfig:"SUPER_ADMIN_EMAILS"`

	SettingsFile string   `envconfig:"SETTINGS_FILE" default:"settings.yaml"`
	CORSOrigins  []string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	return nil
}

// Location is the single reference zone every booking date is expressed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// JWKS returns the key set URL used to verify tokens, derived from the user
// pool unless set explicitly.
func (c *Config) JWKS() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}
	if c.CognitoRegion == "" || c.CognitoUserPoolID == "" {
		return ""
	}
	return c.Issuer() + "/.well-known/jwks.json"
}

// Issuer is the expected iss claim of Cognito tokens, empty when no user pool
// is configured.
func (c *Config) Issuer() string {
	if c.CognitoRegion == "" || c.CognitoUserPoolID == "" {
		return ""
	}
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.CognitoRegion, c.CognitoUserPoolID)
}

// SettingsSeed is the YAML document providing default system settings.
type SettingsSeed struct {
	Settings map[string]string `yaml:"settings"`
}

// LoadSettingsSeed reads the seed file. A missing file yields an empty seed.
// ${VAR} references are expanded from the environment.
func LoadSettingsSeed(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var seed SettingsSeed
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &seed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make(map[string]string, len(seed.Settings))
	for k, v := range seed.Settings {
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
