// Package config provides configuration management for the complaint desk.
//
// This package handles loading configuration from environment variables,
// validating settings, and providing sensible defaults. Configuration is
// loaded once at startup and passed explicitly to every component.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (highest priority)
//  2. External .env file in the working directory
//  3. Embedded .env file (fallback, included in binary)
//  4. Hard-coded defaults (lowest priority)
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// embeddedEnv contains the .env template embedded at build time.
//
// The template only carries commented defaults, so the binary behaves the
// same with or without it. Operators override values with a local .env or
// real environment variables.
//
//go:embed .env
var embeddedEnv string

// Config holds all application configuration.
type Config struct {
	// Storage locations
	DataDir         string // Directory holding the data files
	LedgerFile      string // Unified complaints/tickets CSV
	UsersFile       string // Signup/login CSV
	DepartmentsFile string // Optional YAML department rule table

	// Ticket numbering
	TicketPrefix string // Fixed identifier prefix, e.g. "TCKT"
	TicketStart  int    // First number issued on an empty ledger

	// Voice dialogue
	Language              string // Target language for spoken prompts ("" = English)
	GoogleTranslateAPIKey string // Enables prompt translation when set
	VoiceGender           string // "female" or "male"
	TTSCommand            string // Explicit text-to-speech command, overrides probing
	STTCommand            string // Speech-to-text command; stdout is the transcript

	// Telegram new-ticket notifications (optional)
	TelegramBotToken string
	TelegramChatID   string

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json
	LogFile   string // Log destination for the form TUI

	// Receipts
	ChromePath     string        // Chrome/Chromium binary, probed when empty
	ReceiptTimeout time.Duration // Upper bound for rendering one PDF

	HTTPTimeout time.Duration // Timeout for outbound HTTP collaborators

	// Debug mode - notifications are logged instead of sent
	DebugMode bool
}

// LoadConfig loads configuration from environment variables with defaults.
//
// Loading process:
//  1. Parse embedded .env file and set as fallback environment variables
//  2. Try to load external .env file (does not override real env vars)
//  3. Read environment variables, applying defaults for missing values
//  4. Validate
func LoadConfig() (*Config, error) {
	envMap, err := godotenv.Unmarshal(embeddedEnv)
	if err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	_ = godotenv.Load()

	cfg := &Config{
		DataDir:         getEnvOrDefault("DATA_DIR", "."),
		LedgerFile:      getEnvOrDefault("LEDGER_FILE", "users_data.csv"),
		UsersFile:       getEnvOrDefault("USERS_FILE", "users.csv"),
		DepartmentsFile: os.Getenv("DEPARTMENTS_FILE"),

		TicketPrefix: getEnvOrDefault("TICKET_PREFIX", "TCKT"),
		TicketStart:  getEnvInt("TICKET_START", 1001),

		Language:              os.Getenv("VOICE_LANGUAGE"),
		GoogleTranslateAPIKey: os.Getenv("GOOGLE_TRANSLATE_API_KEY"),
		VoiceGender:           getEnvOrDefault("VOICE_GENDER", "female"),
		TTSCommand:            os.Getenv("TTS_COMMAND"),
		STTCommand:            os.Getenv("STT_COMMAND"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
		LogFile:   getEnvOrDefault("LOG_FILE", "complaintdesk.log"),

		ChromePath:     os.Getenv("CHROME_PATH"),
		ReceiptTimeout: getEnvDuration("RECEIPT_TIMEOUT", 30*time.Second),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		DebugMode: getEnvOrDefault("DEBUG_MODE", "false") == "true",
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are sensible.
func (c *Config) Validate() error {
	if c.LedgerFile == "" {
		return fmt.Errorf("LEDGER_FILE cannot be empty")
	}
	if c.UsersFile == "" {
		return fmt.Errorf("USERS_FILE cannot be empty")
	}
	if c.TicketPrefix == "" {
		return fmt.Errorf("TICKET_PREFIX cannot be empty")
	}
	if last := c.TicketPrefix[len(c.TicketPrefix)-1]; last >= '0' && last <= '9' {
		return fmt.Errorf("TICKET_PREFIX must not end with a digit, got %q", c.TicketPrefix)
	}
	if c.TicketStart < 1 {
		return fmt.Errorf("TICKET_START must be at least 1, got %d", c.TicketStart)
	}
	switch c.VoiceGender {
	case "female", "male":
	default:
		return fmt.Errorf("VOICE_GENDER must be female or male, got %q", c.VoiceGender)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.ReceiptTimeout <= 0 {
		return fmt.Errorf("RECEIPT_TIMEOUT must be positive, got %v", c.ReceiptTimeout)
	}
	return nil
}

// LedgerPath returns the ledger location resolved against DataDir.
func (c *Config) LedgerPath() string {
	return c.resolve(c.LedgerFile)
}

// UsersPath returns the users file location resolved against DataDir.
func (c *Config) UsersPath() string {
	return c.resolve(c.UsersFile)
}

// DepartmentsPath returns the department table location, or "" when unset.
func (c *Config) DepartmentsPath() string {
	if c.DepartmentsFile == "" {
		return ""
	}
	return c.resolve(c.DepartmentsFile)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) || c.DataDir == "" {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// Helper functions for environment variable parsing

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an integer or a default if not set/invalid
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default if not set/invalid.
//
// Accepts standard Go duration strings like "5s", "10m", "1h30m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
