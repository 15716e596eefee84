package daemon

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8000 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8000)
	}
	if cfg.API.DefaultUserID != "user_1" {
		t.Errorf("API.DefaultUserID = %q, want %q", cfg.API.DefaultUserID, "user_1")
	}
	if cfg.Ledger.SignupGrant != 20 {
		t.Errorf("Ledger.SignupGrant = %d, want %d", cfg.Ledger.SignupGrant, 20)
	}
	if cfg.Ledger.ReferralReward != 10 {
		t.Errorf("Ledger.ReferralReward = %d, want %d", cfg.Ledger.ReferralReward, 10)
	}
	if cfg.Ledger.DedupReferrals {
		t.Error("Ledger.DedupReferrals should be false by default")
	}
	if cfg.Notifications.DefaultLimit != 5 {
		t.Errorf("Notifications.DefaultLimit = %d, want %d", cfg.Notifications.DefaultLimit, 5)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Errorf("missing file should yield defaults, got port %d", cfg.API.Port)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[api]
port = 9100

[ledger]
referral_reward = 25
dedup_referrals = true
seed_users = ["alice", "bob"]
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 9100 {
		t.Errorf("API.Port = %d, want 9100", cfg.API.Port)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("unset keys should keep defaults, Host = %q", cfg.API.Host)
	}
	policy := cfg.ReferralPolicy()
	if policy.Reward != 25 || !policy.DedupReferrals || policy.SignupGrant != 20 {
		t.Errorf("ReferralPolicy() = %+v", policy)
	}
	if len(cfg.Ledger.SeedUsers) != 2 {
		t.Errorf("SeedUsers = %v", cfg.Ledger.SeedUsers)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad toml", "[api\nport="},
		{"port out of range", "[api]\nport = 70000"},
		{"negative reward", "[ledger]\nreferral_reward = -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte(tt.data), 0600)
			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig() should fail")
			}
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SCRYPTEX_PORT", "9999")
	t.Setenv("SCRYPTEX_DATA_DIR", dir)
	t.Setenv("SCRYPTEX_DEDUP_REFERRALS", "true")
	t.Setenv("SCRYPTEX_DEFAULT_USER", "demo")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 9999 || cfg.Storage.DataDir != dir || !cfg.Ledger.DedupReferrals || cfg.API.DefaultUserID != "demo" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.Address() != "127.0.0.1:9999" {
		t.Errorf("Address() = %q", cfg.Address())
	}

	t.Setenv("SCRYPTEX_PORT", "abc")
	if _, err := LoadConfig(""); err == nil {
		t.Error("non-numeric SCRYPTEX_PORT should fail")
	}
}

func TestHome_EnvOverride(t *testing.T) {
	t.Setenv("SCRYPTEX_HOME", "/tmp/scx")
	if Home() != "/tmp/scx" {
		t.Errorf("Home() = %q", Home())
	}
	if DefaultConfigPath() != filepath.Join("/tmp/scx", "config.toml") {
		t.Errorf("DefaultConfigPath() = %q", DefaultConfigPath())
	}
}

func TestConfig_Encode_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ledger.ReferralReward = 42

	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if !strings.Contains(buf.String(), "[ledger]") {
		t.Errorf("output missing [ledger] section:\n%s", buf.String())
	}

	var decoded Config
	if _, err := toml.Decode(buf.String(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Ledger.ReferralReward != 42 {
		t.Errorf("ReferralReward = %d, want 42", decoded.Ledger.ReferralReward)
	}
}
