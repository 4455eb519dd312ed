package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr      string `yaml:"listen_addr"`
	Timezone        string `yaml:"timezone"`
	LogLevel        string `yaml:"log_level"`
	AdminEmail      string `yaml:"admin_email"`
	SessionTTL      string `yaml:"session_ttl"`
	SweepSchedule   string `yaml:"sweep_schedule"`   // cron expression for expired session cleanup
	RefreshSchedule string `yaml:"refresh_schedule"` // optional cron expression marking snapshots stale

	Store StoreConfig `yaml:"store"`
	Auth  AuthConfig  `yaml:"auth"`
}

type StoreConfig struct {
	Backend      string `yaml:"backend"` // firestore, sqlite or file
	ProjectID    string `yaml:"project_id"`
	Database     string `yaml:"database"`
	Collection   string `yaml:"collection"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	ProxyURL     string `yaml:"proxy_url"`
	DatabasePath string `yaml:"database_path"`
	FilePath     string `yaml:"file_path"`
}

type AuthConfig struct {
	Provider string `yaml:"provider"` // firebase, oauth2 or static

	// firebase
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`

	// oauth2 resource owner password grant
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	TokenURL     string   `yaml:"token_url"`
	Scopes       []string `yaml:"scopes"`

	// static
	Password string `yaml:"password"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		if os.IsNotExist(err) {
			cfg := defaultConfig()
			cfg.loadEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.loadEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":3040"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.AdminEmail == "" {
		c.AdminEmail = "admin@admin.com"
	}
	if c.SessionTTL == "" {
		c.SessionTTL = "12h"
	}
	if c.SweepSchedule == "" {
		c.SweepSchedule = "@every 10m"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "firestore"
	}
	if c.Store.ProjectID == "" {
		c.Store.ProjectID = "tcc-timetocode"
	}
	if c.Store.Database == "" {
		c.Store.Database = "(default)"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "relatorios"
	}
	if c.Store.DatabasePath == "" {
		c.Store.DatabasePath = "relatorios.db"
	}
	if c.Store.FilePath == "" {
		c.Store.FilePath = "relatorio.json"
	}
	if c.Auth.Provider == "" {
		c.Auth.Provider = "firebase"
	}
}

// loadEnv lets secrets stay out of the config file.
func (c *Config) loadEnv() {
	if v := os.Getenv("TTC_FIREBASE_API_KEY"); v != "" {
		c.Auth.APIKey = v
		if c.Store.APIKey == "" {
			c.Store.APIKey = v
		}
	}
	if v := os.Getenv("TTC_ADMIN_PASSWORD"); v != "" {
		c.Auth.Password = v
	}
	if v := os.Getenv("TTC_OAUTH_CLIENT_SECRET"); v != "" {
		c.Auth.ClientSecret = v
	}
	if v := os.Getenv("TTC_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
}

// Validate rejects settings that would only fail later at request time.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "firestore", "sqlite", "file":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Auth.Provider {
	case "firebase", "oauth2", "static":
	default:
		return fmt.Errorf("unknown auth provider %q", c.Auth.Provider)
	}
	if c.Auth.Provider == "oauth2" && c.Auth.TokenURL == "" {
		return fmt.Errorf("auth.token_url is required for the oauth2 provider")
	}
	if _, err := time.ParseDuration(c.SessionTTL); err != nil {
		return fmt.Errorf("invalid session_ttl %q: %w", c.SessionTTL, err)
	}
	return nil
}

func (c *Config) GetTimezone() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

func (c *Config) GetLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
