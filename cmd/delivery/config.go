package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/delivery/internal/db"
	"github.com/nkiryanov/delivery/internal/logger"
	"github.com/nkiryanov/delivery/internal/service/auth"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultRefreshSubject  = string(auth.RefreshSubjectID)
	defaultCleanupInterval = 10 * time.Minute
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the delivery service will be run
	ListenAddr string

	// Mongo to connect to and database with the user collection
	MongoURI      string
	MongoDatabase string

	// PEM files with P-256 key pair to sign and verify access tokens
	PrivateKeyPath string
	PublicKeyPath  string

	// Subject of access tokens issued on refresh: 'refresh-id' or 'username'
	RefreshSubject string

	// How often expired sessions are removed
	CleanupInterval time.Duration

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		MongoDatabase:   db.DefaultDatabase,
		RefreshSubject:  defaultRefreshSubject,
		CleanupInterval: defaultCleanupInterval,
		Environment:     defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"LISTEN_ADDRESS":           setString(&c.ListenAddr),
		"MONGODB_URI":              setString(&c.MongoURI),
		"MONGODB_DATABASE":         setString(&c.MongoDatabase),
		"PRIVATE_KEY_PATH":         setString(&c.PrivateKeyPath),
		"PUBLIC_KEY_PATH":          setString(&c.PublicKeyPath),
		"REFRESH_SUBJECT":          setString(&c.RefreshSubject),
		"SESSION_CLEANUP_INTERVAL": setDuration(&c.CleanupInterval),
		"LOG_LEVEL":                setString(&c.LogLevel),
		"ENVIRONMENT":              setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s. Err: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("delivery", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.MongoURI, "database", "d", c.MongoURI, "Mongo connection string")
	fs.StringVarP(&c.MongoDatabase, "database-name", "n", c.MongoDatabase, "Mongo database name")
	fs.StringVar(&c.PrivateKeyPath, "private-key", c.PrivateKeyPath, "Path to PEM encoded P-256 private key")
	fs.StringVar(&c.PublicKeyPath, "public-key", c.PublicKeyPath, "Path to PEM encoded P-256 public key")
	fs.StringVar(&c.RefreshSubject, "refresh-subject", c.RefreshSubject, "Subject of access tokens issued on refresh (refresh-id, username)")
	fs.DurationVar(&c.CleanupInterval, "cleanup-interval", c.CleanupInterval, "How often expired sessions are removed")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

// Check the options required to start
func (c *Config) Validate() error {
	var errs []error

	if c.PrivateKeyPath == "" || c.PublicKeyPath == "" {
		errs = append(errs, errors.New("private and public key paths are required"))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("mongo connection string is required"))
	}
	if _, err := auth.ParseRefreshSubject(c.RefreshSubject); err != nil {
		errs = append(errs, err)
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, errors.New("cleanup interval must be positive"))
	}

	return errors.Join(errs...)
}
