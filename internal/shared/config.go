package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const defaultOutboundTimeout = 15 * time.Second

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Ledger      LedgerConfig      `toml:"ledger"`
	Credentials CredentialsConfig `toml:"credentials"`
	Deploy      DeployConfig      `toml:"deploy"`
	Sweep       SweepConfig       `toml:"sweep"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host             string `toml:"host"`
	Port             int    `toml:"port"`
	LogLevel         string `toml:"log_level"`
	ClientVersion    string `toml:"client_version"`
	MinClientVersion string `toml:"min_client_version"`
	OutboundTimeout  string `toml:"outbound_timeout"`
	AdminPassword    string `toml:"admin_password"`
}

// Addr returns host:port for [http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout parses OutboundTimeout, falling back to 15s when unset or invalid.
func (s ServerConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(s.OutboundTimeout)
	if err != nil || d <= 0 {
		return defaultOutboundTimeout
	}
	return d
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LedgerConfig selects the unsupported ledger backend.
type LedgerConfig struct {
	Backend string `toml:"backend"` // "file" or "sqlite"
	Path    string `toml:"path"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Genius  GeniusConfig  `toml:"genius"`
	GitHub  GitHubConfig  `toml:"github"`
	Discord DiscordConfig `toml:"discord"`
}

// SpotifyConfig contains Spotify client-credentials settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
	APIURL       string `toml:"api_url"`
}

// GeniusConfig contains the Genius API access token.
type GeniusConfig struct {
	AccessToken string `toml:"access_token"`
	APIURL      string `toml:"api_url"`
}

// GitHubConfig contains GitHub App credentials and the repository issues are filed against.
type GitHubConfig struct {
	AppID          string `toml:"app_id"`
	InstallationID string `toml:"installation_id"`
	PrivateKeyPath string `toml:"private_key_path"`
	WebhookSecret  string `toml:"webhook_secret"`
	APIURL         string `toml:"api_url"`
	Owner          string `toml:"owner"`
	Repo           string `toml:"repo"`
	IssueLabel     string `toml:"issue_label"`
}

// DiscordConfig contains the deploy announcement webhook.
type DiscordConfig struct {
	WebhookURL string `toml:"webhook_url"`
}

// DeployConfig describes the working copy updated by push webhooks.
type DeployConfig struct {
	Branch      string `toml:"branch"`
	WorkingCopy string `toml:"working_copy"`
	PublicURL   string `toml:"public_url"`
}

// SweepConfig tunes the ledger sweep worker pool.
type SweepConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	switch c.Ledger.Backend {
	case "file":
		if c.Ledger.Path == "" {
			return fmt.Errorf("%w: ledger.path is required for the file backend", ErrInvalidConfig)
		}
	case "sqlite":
	default:
		return fmt.Errorf("%w: unknown ledger backend %q", ErrInvalidConfig, c.Ledger.Backend)
	}
	if c.Server.AdminPassword == "" {
		return fmt.Errorf("%w: server.admin_password", ErrMissingCredentials)
	}
	if c.Credentials.GitHub.WebhookSecret == "" {
		return fmt.Errorf("%w: credentials.github.webhook_secret", ErrMissingCredentials)
	}
	return nil
}
