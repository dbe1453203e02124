package app

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseFile    string // Optional: path to SQLite directory database (default: ./rollcall.db)
	CredentialsFile string // Optional: path to the bbolt credential store (default: ./credentials.db)
	PepperFile      string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	DeviceKeyFile   string // Optional: path to the device key the session blob is sealed with (default: ./device.key)
	SeedFile        string // Optional: YAML directory seed applied at startup

	SessionMaxAge  time.Duration // Optional: session lifetime measured from sign-in (default: 7 days)
	ResetTTL       time.Duration // Optional: lifetime of reset codes and tokens (default: 30m)
	RequestTimeout time.Duration // Optional: bound on every service operation (default: 10s)

	BootstrapEnabled  bool   // Optional: allow the configured admin fallback (default: on outside prod when a password is set)
	BootstrapUsername string // Optional: bootstrap admin username (default: admin)
	BootstrapPassword string // Required when bootstrap is enabled

	MailBackend    string // Optional: console, sendgrid or none (default: console, none in prod)
	SendGridAPIKey string // Required for the sendgrid backend
	MailFrom       string // Optional: sender address (default: rollcall <no-reply@rollcall.local>)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadConfig reads the environment, after overlaying a .env file from the
// working directory when one exists. Variables already set win over .env.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}

	env := getEnvOrDefault("ENV", "dev")
	bootstrapPassword := os.Getenv("ROLLCALL_BOOTSTRAP_PASSWORD")

	cfg := Config{
		DatabaseFile:    getEnvOrDefault("ROLLCALL_DATABASE_FILE", "rollcall.db"),
		CredentialsFile: getEnvOrDefault("ROLLCALL_CREDENTIALS_FILE", "credentials.db"),
		PepperFile:      getEnvOrDefault("ROLLCALL_PEPPER_FILE", "pepper"),
		DeviceKeyFile:   getEnvOrDefault("ROLLCALL_DEVICE_KEY_FILE", "device.key"),
		SeedFile:        os.Getenv("ROLLCALL_SEED_FILE"),

		SessionMaxAge:  getEnvDurationOrDefault("ROLLCALL_SESSION_MAX_AGE", 7*24*time.Hour),
		ResetTTL:       getEnvDurationOrDefault("ROLLCALL_RESET_TTL", 30*time.Minute),
		RequestTimeout: getEnvDurationOrDefault("ROLLCALL_REQUEST_TIMEOUT", 10*time.Second),

		// Off in prod unless asked for, and off anywhere without a password.
		BootstrapEnabled:  getEnvBoolOrDefault("ROLLCALL_BOOTSTRAP_ENABLED", env != "prod" && bootstrapPassword != ""),
		BootstrapUsername: getEnvOrDefault("ROLLCALL_BOOTSTRAP_USERNAME", "admin"),
		BootstrapPassword: bootstrapPassword,

		// Console logs live reset secrets, so prod has to opt in.
		MailBackend:    strings.ToLower(getEnvOrDefault("ROLLCALL_MAIL_BACKEND", defaultMailBackend(env))),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getEnvOrDefault("ROLLCALL_MAIL_FROM", "rollcall <no-reply@rollcall.local>"),

		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func defaultMailBackend(env string) string {
	if env == "prod" {
		return "none"
	}
	return "console"
}
