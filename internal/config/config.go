package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	MailDriverSMTP = "smtp"
	MailDriverLog  = "log"
)

// Config is the full runtime configuration, read once at startup.
type Config struct {
	Port        int
	CORSOrigins []string
	Database    DatabaseConfig
	Session     SessionConfig
	Mail        MailConfig
	Log         LogConfig

	// Warnings collects values that were invalid and replaced by defaults.
	// They are logged once the logger exists.
	Warnings []string
}

type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	Username string
	Password string
	Database string
	DSN      string
}

type SessionConfig struct {
	Secret string
	Secure bool
}

type MailConfig struct {
	Driver        string
	Server        string
	Port          int
	UseTLS        bool
	UseSSL        bool
	Username      string
	Password      string
	DefaultSender string
	Timeout       time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// DefaultSessionSecret is used when SESSION_SECRET is unset. Only suitable for development.
const DefaultSessionSecret = "super-secret-key"

// Load reads the configuration from the environment (and .env, via autoload).
func Load() (Config, error) {
	var cfg Config

	cfg.Port = cfg.intVar("PORT", 8080)
	cfg.CORSOrigins = listVar("CORS_ALLOWED_ORIGINS", []string{"https://*", "http://*"})

	cfg.Database = DatabaseConfig{
		Driver:   strings.ToLower(stringVar("DB_DRIVER", DriverSQLite)),
		Path:     stringVar("DB_PATH", "tasks.db"),
		Host:     stringVar("DB_HOST", "localhost"),
		Port:     stringVar("DB_PORT", "5432"),
		Username: os.Getenv("DB_USERNAME"),
		Password: os.Getenv("DB_PASSWORD"),
		Database: os.Getenv("DB_DATABASE"),
		DSN:      os.Getenv("DB_DSN"),
	}
	if cfg.Database.Driver != DriverSQLite && cfg.Database.Driver != DriverPostgres {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	cfg.Session = SessionConfig{
		Secret: stringVar("SESSION_SECRET", DefaultSessionSecret),
		Secure: cfg.boolVar("SESSION_SECURE", false),
	}
	if cfg.Session.Secret == DefaultSessionSecret {
		cfg.Warnings = append(cfg.Warnings, "SESSION_SECRET is not set, using the development default")
	}

	cfg.Mail = MailConfig{
		Driver:        strings.ToLower(stringVar("MAIL_DRIVER", MailDriverSMTP)),
		Server:        stringVar("MAIL_SERVER", "smtp.gmail.com"),
		Port:          cfg.intVar("MAIL_PORT", 587),
		UseTLS:        cfg.boolVar("MAIL_USE_TLS", true),
		UseSSL:        cfg.boolVar("MAIL_USE_SSL", false),
		Username:      os.Getenv("MAIL_USERNAME"),
		Password:      os.Getenv("MAIL_PASSWORD"),
		DefaultSender: os.Getenv("MAIL_DEFAULT_SENDER"),
		Timeout:       cfg.durationVar("MAIL_TIMEOUT", 10*time.Second),
	}
	if cfg.Mail.DefaultSender == "" {
		cfg.Mail.DefaultSender = cfg.Mail.Username
	}
	if cfg.Mail.Driver != MailDriverSMTP && cfg.Mail.Driver != MailDriverLog {
		return Config{}, fmt.Errorf("unsupported MAIL_DRIVER %q", cfg.Mail.Driver)
	}

	cfg.Log = LogConfig{
		Level:  stringVar("LOG_LEVEL", "info"),
		Format: stringVar("LOG_FORMAT", "json"),
	}

	return cfg, nil
}

// PostgresDSN builds the connection string from the individual DB_* values
// unless DB_DSN overrides it.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.Username, d.Password, d.Database, d.Port)
}

func stringVar(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func listVar(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) intVar(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid %s %q, using default %d", key, v, def))
		return def
	}
	return n
}

func (c *Config) boolVar(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid %s %q, using default %t", key, v, def))
		return def
	}
	return b
}

func (c *Config) durationVar(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid %s %q, using default %s", key, v, def))
		return def
	}
	return d
}
