package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("set default option", func(t *testing.T) {
		c := NewConfig()

		require.Equal(t, "localhost:8000", c.ListenAddr, "default listen address not set")
		require.Equal(t, "info", c.LogLevel, "default log level not set")
		require.Equal(t, "production", c.Environment, "default environment not set")
		require.Equal(t, "delivery_database", c.MongoDatabase, "default database not set")
		require.Equal(t, "refresh-id", c.RefreshSubject, "default refresh subject not set")
		require.Equal(t, 10*time.Minute, c.CleanupInterval, "default cleanup interval not set")
		require.Equal(t, "", c.MongoURI, "mongo URI should be empty by default")
		require.Equal(t, "", c.PrivateKeyPath, "private key should be empty by default")
	})

	t.Run("load env", func(t *testing.T) {
		c := NewConfig()
		getenv := func(key string) string {
			switch key {
			case "LISTEN_ADDRESS":
				return "localhost:9000"
			case "LOG_LEVEL":
				return "debug"
			case "MONGODB_URI":
				return "mongodb://localhost:27017"
			case "MONGODB_DATABASE":
				return "test"
			case "PRIVATE_KEY_PATH":
				return "/keys/private.pem"
			case "PUBLIC_KEY_PATH":
				return "/keys/public.pem"
			case "REFRESH_SUBJECT":
				return "username"
			case "SESSION_CLEANUP_INTERVAL":
				return "1m"
			default:
				return ""
			}
		}

		err := c.LoadEnv(getenv)

		require.NoError(t, err)
		require.Equal(t, "localhost:9000", c.ListenAddr)
		require.Equal(t, "debug", c.LogLevel)
		require.Equal(t, "mongodb://localhost:27017", c.MongoURI)
		require.Equal(t, "test", c.MongoDatabase)
		require.Equal(t, "/keys/private.pem", c.PrivateKeyPath)
		require.Equal(t, "/keys/public.pem", c.PublicKeyPath)
		require.Equal(t, "username", c.RefreshSubject)
		require.Equal(t, time.Minute, c.CleanupInterval)
		require.Equal(t, "production", c.Environment, "not set env must not change option")
	})

	t.Run("load env invalid duration", func(t *testing.T) {
		c := NewConfig()

		err := c.LoadEnv(func(key string) string {
			if key == "SESSION_CLEANUP_INTERVAL" {
				return "often"
			}
			return ""
		})

		require.Error(t, err)
		require.Contains(t, err.Error(), "SESSION_CLEANUP_INTERVAL")
	})

	t.Run("load dot env", func(t *testing.T) {
		dir := t.TempDir()
		err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MONGODB_URI=mongodb://dotenv:27017\nLOG_LEVEL=warn\n"), 0o644)
		require.NoError(t, err)
		c := NewConfig()

		err = c.LoadDotEnv(func() (string, error) { return dir, nil })

		require.NoError(t, err)
		require.Equal(t, "mongodb://dotenv:27017", c.MongoURI)
		require.Equal(t, "warn", c.LogLevel)
	})

	t.Run("no dot env is ok", func(t *testing.T) {
		c := NewConfig()

		err := c.LoadDotEnv(func() (string, error) { return t.TempDir(), nil })

		require.NoError(t, err)
	})

	t.Run("parse flags", func(t *testing.T) {
		t.Run("valid flags", func(t *testing.T) {
			tests := []struct {
				name  string
				flags []string
			}{
				{
					name: "short",
					flags: []string{
						"-a", "localhost:9000",
						"-l", "debug",
						"-e", "dev",
						"-d", "mongodb://localhost:27017",
						"-n", "test",
						"--private-key", "/keys/private.pem",
						"--public-key", "/keys/public.pem",
					},
				},
				{
					name: "long",
					flags: []string{
						"--address", "localhost:9000",
						"--log-level", "debug",
						"--environment", "dev",
						"--database", "mongodb://localhost:27017",
						"--database-name", "test",
						"--private-key", "/keys/private.pem",
						"--public-key", "/keys/public.pem",
					},
				},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					c := NewConfig()

					err := c.ParseFlags(tt.flags)

					require.NoError(t, err, "correct flags must pursed without error")
					require.Equal(t, "localhost:9000", c.ListenAddr)
					require.Equal(t, "debug", c.LogLevel)
					require.Equal(t, "dev", c.Environment)
					require.Equal(t, "mongodb://localhost:27017", c.MongoURI)
					require.Equal(t, "test", c.MongoDatabase)
					require.Equal(t, "/keys/private.pem", c.PrivateKeyPath)
					require.Equal(t, "/keys/public.pem", c.PublicKeyPath)
					require.NoError(t, c.Validate())
				})
			}
		})

		t.Run("session flags", func(t *testing.T) {
			c := NewConfig()

			err := c.ParseFlags([]string{"--refresh-subject", "username", "--cleanup-interval", "30s"})

			require.NoError(t, err)
			require.Equal(t, "username", c.RefreshSubject)
			require.Equal(t, 30*time.Second, c.CleanupInterval)
		})

		t.Run("invalid flags", func(t *testing.T) {
			c := NewConfig()

			err := c.ParseFlags([]string{
				"--invalid-flag", "value",
			})

			require.Error(t, err, "invalid flag should return an error")
		})
	})

	t.Run("validate", func(t *testing.T) {
		valid := func() *Config {
			c := NewConfig()
			c.MongoURI = "mongodb://localhost:27017"
			c.PrivateKeyPath = "/keys/private.pem"
			c.PublicKeyPath = "/keys/public.pem"
			return c
		}

		require.NoError(t, valid().Validate())

		tests := []struct {
			name   string
			modify func(c *Config)
		}{
			{"no private key", func(c *Config) { c.PrivateKeyPath = "" }},
			{"no public key", func(c *Config) { c.PublicKeyPath = "" }},
			{"no mongo", func(c *Config) { c.MongoURI = "" }},
			{"unknown refresh subject", func(c *Config) { c.RefreshSubject = "email" }},
			{"zero cleanup interval", func(c *Config) { c.CleanupInterval = 0 }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := valid()
				tt.modify(c)

				require.Error(t, c.Validate())
			})
		}
	})
}
