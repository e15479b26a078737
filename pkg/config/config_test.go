package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "test")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "./contact.db", cfg.Database.Path)
	assert.Equal(t, 10000, cfg.Database.MessageMaxLength)
	assert.Equal(t, "smtp.gmail.com", cfg.Mail.Host)
	assert.Equal(t, 465, cfg.Mail.Port)
	assert.Equal(t, 30*time.Second, cfg.Notify.Timeout)
	assert.Zero(t, cfg.Notify.RetryInterval)
	assert.Equal(t, "toonarmycaptain.com", cfg.Site.Name)
}

func TestLoadFromEnvFile(t *testing.T) {
	t.Setenv("GIN_MODE", "test")

	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "CONTACT_MESSAGE_MAX_LENGTH=31415\n" +
		"DB_PATH=/tmp/contact-test.db\n" +
		"NOTIFY_RETRY_INTERVAL=90\n" +
		"NOTIFY_TIMEOUT=5s\n" +
		"SESSION_SECURE=true\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, key := range []string{"CONTACT_MESSAGE_MAX_LENGTH", "DB_PATH", "NOTIFY_RETRY_INTERVAL", "NOTIFY_TIMEOUT", "SESSION_SECURE"} {
			os.Unsetenv(key)
		}
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, 31415, cfg.Database.MessageMaxLength)
	assert.Equal(t, "/tmp/contact-test.db", cfg.Database.Path)
	assert.Equal(t, 90*time.Second, cfg.Notify.RetryInterval)
	assert.Equal(t, 5*time.Second, cfg.Notify.Timeout)
	assert.True(t, cfg.Session.Secure)
}

func TestLoadDoesNotRequireSessionSecret(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("SESSION_SECRET", defaultSessionSecret)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate(), "Server startup still rejects the default secret")
}

func TestValidate(t *testing.T) {
	t.Run("Non-positive message length", func(t *testing.T) {
		cfg := &Config{Database: DatabaseConfig{Path: "x.db", MessageMaxLength: 0}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("Default secret in release mode", func(t *testing.T) {
		cfg := &Config{
			Server:   ServerConfig{Mode: "release"},
			Database: DatabaseConfig{Path: "x.db", MessageMaxLength: 10},
			Session:  SessionConfig{Secret: defaultSessionSecret},
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("Valid", func(t *testing.T) {
		cfg := &Config{
			Server:   ServerConfig{Mode: "release"},
			Database: DatabaseConfig{Path: "x.db", MessageMaxLength: 10},
			Session:  SessionConfig{Secret: "not-the-default"},
		}
		assert.NoError(t, cfg.Validate())
	})
}

func TestMailEnabled(t *testing.T) {
	cfg := &Config{Mail: MailConfig{Host: "smtp.example.com", From: "site@example.com", Recipient: "me@example.com"}}
	assert.True(t, cfg.MailEnabled())

	cfg.Mail.Host = ""
	assert.False(t, cfg.MailEnabled())
}
