package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Backend API
	APIURL       string
	APITimeout   time.Duration
	APIRateLimit float64
	CacheTTL     time.Duration

	// Notifications
	WSURL            string
	NotifyMaxRetries int
	NotifyBaseDelay  time.Duration

	// Local console server
	Port string

	// Database
	SessionDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string

	// Google Sheets
	GoogleSpreadsheetID   string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
	GoogleSheetName       string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		APIURL:       getEnv("API_URL", "http://localhost:8001"),
		APITimeout:   getEnvDuration("API_TIMEOUT", 30*time.Second),
		APIRateLimit: getEnvFloat("API_RATE_LIMIT", 10),
		CacheTTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),

		WSURL:            getEnv("WS_URL", "ws://localhost:8000/ws"),
		NotifyMaxRetries: getEnvInt("NOTIFY_MAX_RETRIES", 5),
		NotifyBaseDelay:  getEnvDuration("NOTIFY_BASE_DELAY", time.Second),

		Port:          getEnv("PORT", "8082"),
		SessionDBPath: getEnv("SESSION_DB_PATH", "./data/offertory.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "offertory"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Offerings"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// SheetsEnabled reports whether tally export to Google Sheets is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if u, err := url.Parse(c.APIURL); err != nil || c.APIURL == "" {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s'", c.APIURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if u, err := url.Parse(c.WSURL); err != nil || c.WSURL == "" {
		errors = append(errors, fmt.Sprintf("invalid WebSocket URL '%s'", c.WSURL))
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		errors = append(errors, fmt.Sprintf("invalid WebSocket URL scheme '%s': must be 'ws' or 'wss'", u.Scheme))
	}

	if c.APITimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be positive", c.APITimeout))
	}
	if c.APIRateLimit <= 0 {
		errors = append(errors, fmt.Sprintf("invalid API rate limit %v: must be positive", c.APIRateLimit))
	}

	if c.NotifyMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("invalid notify max retries %d: must not be negative", c.NotifyMaxRetries))
	}
	if c.NotifyBaseDelay < 10*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid notify base delay %v: must be at least 10ms", c.NotifyBaseDelay))
	}

	if c.SessionDBPath == "" {
		errors = append(errors, "session database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SessionDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create session database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// AMQP is optional; when set it must be well formed.
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsEnabled() {
		hasFile := c.GoogleCredentialsFile != ""
		hasJSON := c.GoogleCredentialsJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for sheets export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
