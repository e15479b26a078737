package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Session  SessionConfig
	Mail     MailConfig
	Notify   NotifyConfig
	GitHub   GitHubConfig
	Site     SiteConfig
}

type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Path             string
	MessageMaxLength int
}

type SessionConfig struct {
	Secret string
	Secure bool
}

// MailConfig holds the outbound SMTP account used for contact notifications.
// An empty Host disables real delivery.
type MailConfig struct {
	Host      string
	Port      int
	From      string
	Password  string
	Recipient string
}

type NotifyConfig struct {
	Timeout       time.Duration
	RetryInterval time.Duration
}

type GitHubConfig struct {
	Username string
	Token    string
}

type SiteConfig struct {
	Name    string
	BlogURL string
}

const defaultSessionSecret = "default-secret-key"

// Load reads the given env files (".env" when none are given) and then the
// process environment. Missing env files are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 15),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			Path:             getEnv("DB_PATH", "./contact.db"),
			MessageMaxLength: getEnvAsInt("CONTACT_MESSAGE_MAX_LENGTH", 10000),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", defaultSessionSecret),
			Secure: getEnvAsBool("SESSION_SECURE", false),
		},
		Mail: MailConfig{
			Host:      getEnv("MAIL_HOST", "smtp.gmail.com"),
			Port:      getEnvAsInt("MAIL_PORT", 465),
			From:      getEnv("SERVER_EMAIL_ADDRESS", ""),
			Password:  getEnv("SERVER_EMAIL_PASSWORD", ""),
			Recipient: getEnv("CONTACT_EMAIL_ADDRESS", ""),
		},
		Notify: NotifyConfig{
			Timeout:       getEnvAsDuration("NOTIFY_TIMEOUT", 30*time.Second),
			RetryInterval: getEnvAsDuration("NOTIFY_RETRY_INTERVAL", 0),
		},
		GitHub: GitHubConfig{
			Username: getEnv("GITHUB_USERNAME", ""),
			Token:    getEnv("GITHUB_TOKEN", ""),
		},
		Site: SiteConfig{
			Name:    getEnv("SITE_NAME", "toonarmycaptain.com"),
			BlogURL: getEnv("BLOG_URL", ""),
		},
	}

	if err := cfg.validateStorage(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks everything the web server relies on. Load only checks the
// storage settings, which the admin CLI also needs.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if c.Server.Mode == "release" && c.Session.Secret == defaultSessionSecret {
		return errors.New("SESSION_SECRET must be set in release mode")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Database.MessageMaxLength <= 0 {
		return fmt.Errorf("CONTACT_MESSAGE_MAX_LENGTH must be positive, got %d", c.Database.MessageMaxLength)
	}
	if c.Database.Path == "" {
		return errors.New("DB_PATH must not be empty")
	}
	return nil
}

// MailEnabled reports whether notifications go through a real SMTP server.
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != "" && c.Mail.From != "" && c.Mail.Recipient != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
