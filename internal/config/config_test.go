package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:           "development",
			Port:          "3000",
			JWTSecret:     "secure-secret-at-least-32-chars-long",
			DBPassword:    "secure-password",
			DBSSLMode:     "disable",
			ItunesBaseURL: "https://itunes.apple.com",
		}
	}

	t.Run("Valid development config", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("Missing port", func(t *testing.T) {
		c := base()
		c.Port = ""
		assert.Error(t, c.Validate())
	})

	t.Run("Missing JWT secret", func(t *testing.T) {
		c := base()
		c.JWTSecret = ""
		assert.Error(t, c.Validate())
	})

	t.Run("Missing upstream base URL", func(t *testing.T) {
		c := base()
		c.ItunesBaseURL = ""
		assert.Error(t, c.Validate())
	})

	t.Run("Production with default secret", func(t *testing.T) {
		c := base()
		c.Env = "production"
		c.DBSSLMode = "require"
		c.JWTSecret = "your-secret-key-change-in-production"
		assert.Error(t, c.Validate())
	})

	t.Run("Production with disabled SSL", func(t *testing.T) {
		c := base()
		c.Env = "production"
		assert.Error(t, c.Validate())
	})

	t.Run("Production valid", func(t *testing.T) {
		c := base()
		c.Env = "production"
		c.DBSSLMode = "verify-full"
		assert.NoError(t, c.Validate())
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "3000", c.Port)
	assert.Equal(t, "https://itunes.apple.com", c.ItunesBaseURL)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.False(t, c.MailEnabled())
}

func TestLoadConfig_SSLModeNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
}

func TestConfig_MailEnabled(t *testing.T) {
	c := &Config{SMTPHost: "smtp.example.com", SMTPUser: "mailer"}
	assert.True(t, c.MailEnabled())

	c.SMTPUser = ""
	assert.False(t, c.MailEnabled())
}
