package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. WORKTIME_DB_PATH.
const EnvPrefix = "WORKTIME"

// Config is the root configuration for worktime, stored in
// ~/.worktime/config.yaml and overridable through WORKTIME_* variables.
type Config struct {
	Server  ServerConfig  `yaml:"server" split_words:"true"`
	DB      DBConfig      `yaml:"db" split_words:"true"`
	Log     LogConfig     `yaml:"log" split_words:"true"`
	Auth    AuthConfig    `yaml:"auth" split_words:"true"`
	Report  ReportConfig  `yaml:"report" split_words:"true"`
	CLI     CLIConfig     `yaml:"cli" split_words:"true"`
	Outlook OutlookConfig `yaml:"outlook" split_words:"true"`
}

// ServerConfig configures the REST server.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr" split_words:"true"`
	CORSOrigins     string        `yaml:"cors_origins" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
}

// DBConfig locates the SQLite database. An empty path means ~/.worktime/worktime.db.
type DBConfig struct {
	Path string `yaml:"path" split_words:"true"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"` // "json" or "console"
}

// AuthConfig configures how callers are identified.
type AuthConfig struct {
	// Mode is "none" (trust X-User-ID, local development) or "jwt".
	Mode string `yaml:"mode" split_words:"true"`
	// JWTSecret is the HS256 secret shared with the identity provider.
	JWTSecret string `yaml:"jwt_secret" split_words:"true"`
	// Issuer, when set, must match the token's iss claim.
	Issuer string `yaml:"issuer" split_words:"true"`
	// AdminUsers are user IDs promoted to admin on sight.
	AdminUsers []string `yaml:"admin_users" split_words:"true"`
}

// ReportConfig configures aggregation.
type ReportConfig struct {
	// Timezone is the IANA zone for day boundaries. Empty means the local zone.
	Timezone string `yaml:"timezone" split_words:"true"`
	// LongDayThresholdHours flags days worked longer than this.
	LongDayThresholdHours float64 `yaml:"long_day_threshold_hours" split_words:"true"`
}

// CLIConfig configures the local command-line commands.
type CLIConfig struct {
	UserID string `yaml:"user_id" split_words:"true"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar sync settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `yaml:"tenant_id" split_words:"true"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `yaml:"client_id" split_words:"true"`
	// DefaultProject is the project name assigned to imported Outlook events.
	DefaultProject string `yaml:"default_project" split_words:"true"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Berlin"). Empty = UTC.
	Timezone string `yaml:"timezone" split_words:"true"`
}

const (
	// DefaultTenantID is the Microsoft "common" tenant (supports personal and
	// multi-tenant organisational accounts without additional registration).
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID.
	// It supports device code flow without a client secret and requires no
	// app registration.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	// DefaultProject is the project name used for imported events.
	DefaultProject = "Meetings"
	// DefaultUserID identifies the local CLI user.
	DefaultUserID = "local"
	// DefaultLongDayThresholdHours flags days above ten hours.
	DefaultLongDayThresholdHours = 10
)

// Default returns a Config pre-filled with the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Auth: AuthConfig{
			Mode: "none",
		},
		Report: ReportConfig{
			LongDayThresholdHours: DefaultLongDayThresholdHours,
		},
		CLI: CLIConfig{
			UserID: DefaultUserID,
		},
		Outlook: OutlookConfig{
			TenantID:       DefaultTenantID,
			ClientID:       DefaultClientID,
			DefaultProject: DefaultProject,
		},
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# worktime configuration - ~/.worktime/config.yaml
#
# All settings are optional; the defaults shown below work out of the box.
# Every key can be overridden from the environment, e.g. WORKTIME_DB_PATH
# or WORKTIME_AUTH_MODE.

server:
  # Address the REST server listens on (worktime serve).
  listen_addr: ":8080"
  # Comma-separated CORS origins; empty disables CORS.
  cors_origins: ""
  shutdown_timeout: 10s

db:
  # SQLite database file. Empty means ~/.worktime/worktime.db.
  path: ""

log:
  # trace, debug, info, warn, error
  level: info
  # console (human readable) or json
  format: console

auth:
  # none - trust the X-User-ID header (local development only)
  # jwt  - verify HS256 bearer tokens from the identity provider
  mode: none
  jwt_secret: ""
  issuer: ""
  # User IDs promoted to admin when they first call the API.
  admin_users: []

report:
  # IANA timezone for day boundaries, e.g. "Europe/Berlin". Empty = local.
  timezone: ""
  # Days worked longer than this many hours are flagged.
  long_day_threshold_hours: 10

cli:
  # User the local commands (start, stop, report, ...) act as.
  user_id: local

# Microsoft Graph / Outlook calendar sync
outlook:
  # "common" for personal accounts and any organisation, or a tenant GUID.
  tenant_id: common
  # The built-in value is the public Azure CLI app; no registration needed.
  client_id: 04b07795-8542-4c4a-95af-30b2c573d5ab
  # Project assigned to imported events (override: worktime outlook sync --project).
  default_project: Meetings
  # IANA timezone for event times. Empty = UTC.
  timezone: ""
`

// DefaultPath returns the path to ~/.worktime/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".worktime", "config.yaml"), nil
}

// Load reads the config file at path, creating it with annotated defaults on
// first run, and then applies WORKTIME_* environment overrides. An empty path
// means DefaultPath. The second return value reports whether the file was
// created.
func Load(path string) (Config, bool, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, false, err
		}
		path = p
	}

	created := false
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr == nil {
			created = true
		}
	case err != nil:
		return cfg, false, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Default(), false, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, created, fmt.Errorf("reading environment: %w", err)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, created, err
	}
	return cfg, created, nil
}

// fillDefaults restores built-in defaults for fields a partial file blanked.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = d.Server.ListenAddr
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = d.Auth.Mode
	}
	if c.Report.LongDayThresholdHours < 0 {
		c.Report.LongDayThresholdHours = d.Report.LongDayThresholdHours
	}
	if c.CLI.UserID == "" {
		c.CLI.UserID = d.CLI.UserID
	}
	if c.Outlook.TenantID == "" {
		c.Outlook.TenantID = DefaultTenantID
	}
	if c.Outlook.ClientID == "" {
		c.Outlook.ClientID = DefaultClientID
	}
	if c.Outlook.DefaultProject == "" {
		c.Outlook.DefaultProject = DefaultProject
	}
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.Auth.Mode {
	case "none":
	case "jwt":
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 bytes in jwt mode")
		}
	default:
		return fmt.Errorf("unknown auth.mode %q (want none or jwt)", c.Auth.Mode)
	}
	if c.Report.Timezone != "" {
		if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
			return fmt.Errorf("invalid report.timezone %q: %w", c.Report.Timezone, err)
		}
	}
	return nil
}

// Location returns the report timezone, or time.Local when unset.
func (c Config) Location() *time.Location {
	if c.Report.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
