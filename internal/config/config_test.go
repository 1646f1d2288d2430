package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	origEmbeddedEnv := embeddedEnv
	embeddedEnv = ""
	defer func() { embeddedEnv = origEmbeddedEnv }()

	for _, key := range []string{"DATA_DIR", "LEDGER_FILE", "TICKET_PREFIX", "TICKET_START", "VOICE_GENDER", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "users_data.csv", cfg.LedgerFile)
	assert.Equal(t, "users.csv", cfg.UsersFile)
	assert.Equal(t, "TCKT", cfg.TicketPrefix)
	assert.Equal(t, 1001, cfg.TicketStart)
	assert.Equal(t, "female", cfg.VoiceGender)
	assert.Equal(t, 30*time.Second, cfg.ReceiptTimeout)
	assert.False(t, cfg.DebugMode)
}

func TestLoadConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("LEDGER_FILE", "tickets.csv")
	t.Setenv("TICKET_PREFIX", "CMP")
	t.Setenv("TICKET_START", "500")
	t.Setenv("RECEIPT_TIMEOUT", "5s")
	t.Setenv("DEBUG_MODE", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "tickets.csv"), cfg.LedgerPath())
	assert.Equal(t, filepath.Join(dir, "users.csv"), cfg.UsersPath())
	assert.Equal(t, "CMP", cfg.TicketPrefix)
	assert.Equal(t, 500, cfg.TicketStart)
	assert.Equal(t, 5*time.Second, cfg.ReceiptTimeout)
	assert.True(t, cfg.DebugMode)
	assert.Empty(t, cfg.DepartmentsPath())
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LedgerFile:     "users_data.csv",
			UsersFile:      "users.csv",
			TicketPrefix:   "TCKT",
			TicketStart:    1001,
			VoiceGender:    "female",
			LogFormat:      "text",
			ReceiptTimeout: time.Second,
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		expectErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty prefix", func(c *Config) { c.TicketPrefix = "" }, true},
		{"prefix ending in digit", func(c *Config) { c.TicketPrefix = "T1" }, true},
		{"zero start", func(c *Config) { c.TicketStart = 0 }, true},
		{"unknown gender", func(c *Config) { c.VoiceGender = "robot" }, true},
		{"json logs", func(c *Config) { c.LogFormat = "json" }, false},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"missing ledger", func(c *Config) { c.LedgerFile = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CD_TEST_INT", "25")
	t.Setenv("CD_TEST_BAD_INT", "notanumber")
	t.Setenv("CD_TEST_DURATION", "90s")

	assert.Equal(t, 25, getEnvInt("CD_TEST_INT", 10))
	assert.Equal(t, 10, getEnvInt("CD_TEST_BAD_INT", 10))
	assert.Equal(t, 10, getEnvInt("CD_TEST_UNSET_INT", 10))
	assert.Equal(t, 90*time.Second, getEnvDuration("CD_TEST_DURATION", time.Second))
	assert.Equal(t, "fallback", getEnvOrDefault("CD_TEST_UNSET", "fallback"))
}

func TestResolveKeepsAbsolutePaths(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "ledger.csv")
	cfg := &Config{DataDir: "/srv/data", LedgerFile: abs}
	assert.Equal(t, abs, cfg.LedgerPath())
}
