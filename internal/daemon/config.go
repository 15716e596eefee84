// Package daemon holds the service configuration.
// Config is read from ~/.scryptex/config.toml (or --config), then
// SCRYPTEX_* environment variables override individual keys.
package daemon

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/scryptex/scryptex/internal/domain"
)

// Config is the top-level configuration.
type Config struct {
	API           APIConfig           `toml:"api"`
	Ledger        LedgerConfig        `toml:"ledger"`
	Storage       StorageConfig       `toml:"storage"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	DefaultUserID   string `toml:"default_user_id"`
	RateLimitPerMin int    `toml:"rate_limit_per_min"` // 0 disables
	Metrics         bool   `toml:"metrics"`
}

// LedgerConfig configures credit and referral policy.
type LedgerConfig struct {
	SignupGrant      int64    `toml:"signup_grant"`
	ReferralReward   int64    `toml:"referral_reward"`
	ReferralLinkBase string   `toml:"referral_link_base"`
	DedupReferrals   bool     `toml:"dedup_referrals"`
	SeedUsers        []string `toml:"seed_users"` // registered at boot when absent
}

// StorageConfig configures the journal location.
type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

// NotificationsConfig bounds the notification feed.
type NotificationsConfig struct {
	MaxPerUser   int `toml:"max_per_user"`
	DefaultLimit int `toml:"default_limit"`
}

// Home returns the Scryptex home directory: $SCRYPTEX_HOME or ~/.scryptex.
func Home() string {
	if h := os.Getenv("SCRYPTEX_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scryptex"
	}
	return filepath.Join(home, ".scryptex")
}

// DefaultConfigPath returns the config file location under Home.
func DefaultConfigPath() string {
	return filepath.Join(Home(), "config.toml")
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	policy := domain.DefaultReferralPolicy()
	return Config{
		API: APIConfig{
			Host:            "127.0.0.1",
			Port:            8000,
			DefaultUserID:   "user_1",
			RateLimitPerMin: 120,
			Metrics:         true,
		},
		Ledger: LedgerConfig{
			SignupGrant:      policy.SignupGrant,
			ReferralReward:   policy.Reward,
			ReferralLinkBase: policy.LinkBase,
			DedupReferrals:   policy.DedupReferrals,
			SeedUsers:        []string{"user_1"},
		},
		Storage: StorageConfig{
			DataDir: filepath.Join(Home(), "data"),
		},
		Notifications: NotificationsConfig{
			MaxPerUser:   100,
			DefaultLimit: 5,
		},
	}
}

// LoadConfig reads path over the defaults and applies env overrides.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides keys from SCRYPTEX_* variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("SCRYPTEX_HOST"); v != "" {
		c.API.Host = v
	}
	if v := os.Getenv("SCRYPTEX_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCRYPTEX_PORT: %w", err)
		}
		c.API.Port = port
	}
	if v := os.Getenv("SCRYPTEX_DEFAULT_USER"); v != "" {
		c.API.DefaultUserID = v
	}
	if v := os.Getenv("SCRYPTEX_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("SCRYPTEX_DEDUP_REFERRALS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SCRYPTEX_DEDUP_REFERRALS: %w", err)
		}
		c.Ledger.DedupReferrals = b
	}
	return nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.API.RateLimitPerMin < 0 {
		return errors.New("api.rate_limit_per_min must not be negative")
	}
	if c.Ledger.SignupGrant < 0 {
		return errors.New("ledger.signup_grant must not be negative")
	}
	if c.Ledger.ReferralReward < 0 {
		return errors.New("ledger.referral_reward must not be negative")
	}
	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	return nil
}

// Address returns host:port for the HTTP listener.
func (c Config) Address() string {
	return net.JoinHostPort(c.API.Host, strconv.Itoa(c.API.Port))
}

// ReferralPolicy converts the ledger section to the domain policy.
func (c Config) ReferralPolicy() domain.ReferralPolicy {
	return domain.ReferralPolicy{
		SignupGrant:    c.Ledger.SignupGrant,
		Reward:         c.Ledger.ReferralReward,
		LinkBase:       c.Ledger.ReferralLinkBase,
		DedupReferrals: c.Ledger.DedupReferrals,
	}
}

// Encode writes the configuration as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
