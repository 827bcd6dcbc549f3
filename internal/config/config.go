// Package config loads the immutable service configuration from a
// YAML file with environment variable overrides. Business logic never
// reads ambient process state; everything is injected from here at
// construction time.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider is one OAuth client registration.
type Provider struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
}

// Configured reports whether the provider's flows can function.
func (p Provider) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.RedirectURI != ""
}

// Config is the full service configuration.
type Config struct {
	App struct {
		// Env: dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// Driver: postgres | memory
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	Service struct {
		// Secret gates the credential exposure endpoint.
		Secret string `yaml:"secret"`
	} `yaml:"service"`

	State struct {
		// SigningKey enables the signed state mode when set.
		SigningKey string        `yaml:"signing_key"`
		TTL        time.Duration `yaml:"ttl"`
	} `yaml:"state"`

	Providers struct {
		Facebook  Provider `yaml:"facebook"`
		YouTube   Provider `yaml:"youtube"`
		X         Provider `yaml:"x"`
		Pinterest Provider `yaml:"pinterest"`
		LinkedIn  Provider `yaml:"linkedin"`
	} `yaml:"providers"`
}

// Load reads the YAML file at path (optional: empty path skips the
// file), applies defaults and environment overrides, and validates.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.State.TTL == 0 {
		c.State.TTL = 15 * time.Minute
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks invariants that would otherwise only surface at
// request time.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("config: storage.dsn is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// ---- env helpers ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides lets environment variables win over the YAML file,
// so secrets can stay out of it.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("SERVICE_SECRET"); ok {
		c.Service.Secret = v
	}
	if v, ok := getEnvStr("STATE_SIGNING_KEY"); ok {
		c.State.SigningKey = v
	}
	if v, ok := getEnvDur("STATE_TTL"); ok {
		c.State.TTL = v
	}

	overrideProvider("FACEBOOK", &c.Providers.Facebook)
	overrideProvider("YOUTUBE", &c.Providers.YouTube)
	overrideProvider("X", &c.Providers.X)
	overrideProvider("PINTEREST", &c.Providers.Pinterest)
	overrideProvider("LINKEDIN", &c.Providers.LinkedIn)
}

func overrideProvider(prefix string, p *Provider) {
	if v, ok := getEnvStr(prefix + "_CLIENT_ID"); ok {
		p.ClientID = v
	}
	if v, ok := getEnvStr(prefix + "_CLIENT_SECRET"); ok {
		p.ClientSecret = v
	}
	if v, ok := getEnvStr(prefix + "_REDIRECT_URI"); ok {
		p.RedirectURI = v
	}
}
