package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	ReminderAllOrNothing = "all-or-nothing"
	ReminderBestEffort   = "best-effort"
)

type Config struct {
	Environment    string
	Port           string
	LogLevel       zerolog.Level
	RequestTimeout time.Duration
	AllowedOrigins []string

	Mongo    MongoConfig
	Reminder ReminderConfig

	// malformed lists variables that were set but could not be parsed.
	malformed []string
}

type MongoConfig struct {
	URI  string
	Name string
}

type ReminderConfig struct {
	Policy      string
	Concurrency int
	Retries     int

	MailRelayURL string
	MailFrom     string
	Locale       string
	Timezone     string
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads the configuration from the environment. A .env file in the working
// directory is loaded first when present; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	var malformed []string
	cfg := &Config{
		Environment:    getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		LogLevel:       level,
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second, &malformed),
		AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		Mongo: MongoConfig{
			URI:  getEnv("MONGODB_URI", ""),
			Name: getEnv("MONGODB_NAME", "club-events"),
		},
		Reminder: ReminderConfig{
			Policy:       getEnv("REMINDER_POLICY", ReminderAllOrNothing),
			Concurrency:  getEnvAsInt("REMINDER_CONCURRENCY", 8, &malformed),
			Retries:      getEnvAsInt("REMINDER_RETRIES", 3, &malformed),
			MailRelayURL: getEnv("MAIL_RELAY_URL", ""),
			MailFrom:     getEnv("MAIL_FROM", "no-reply@campus.local"),
			Locale:       getEnv("MAIL_LOCALE", "en_US"),
			Timezone:     getEnv("MAIL_TIMEZONE", "UTC"),
		},
	}
	cfg.malformed = malformed

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	errors := append([]string(nil), c.malformed...)

	if c.Mongo.URI == "" {
		errors = append(errors, "MONGODB_URI is required")
	}
	if c.Reminder.Policy != ReminderAllOrNothing && c.Reminder.Policy != ReminderBestEffort {
		errors = append(errors, fmt.Sprintf("REMINDER_POLICY must be %q or %q", ReminderAllOrNothing, ReminderBestEffort))
	}
	if c.Reminder.Concurrency < 1 {
		errors = append(errors, "REMINDER_CONCURRENCY must be positive")
	}
	if c.Reminder.Retries < 1 {
		errors = append(errors, "REMINDER_RETRIES must be positive")
	}
	if _, err := time.LoadLocation(c.Reminder.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("MAIL_TIMEZONE %q is not a known time zone", c.Reminder.Timezone))
	}
	if c.RequestTimeout <= 0 {
		errors = append(errors, "REQUEST_TIMEOUT must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errors, ", "))
	}

	return nil
}

func getEnv(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int, malformed *[]string) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		*malformed = append(*malformed, fmt.Sprintf("%s must be an integer, got %q", key, raw))
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration, malformed *[]string) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		*malformed = append(*malformed, fmt.Sprintf("%s must be a duration like 10s, got %q", key, raw))
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}
