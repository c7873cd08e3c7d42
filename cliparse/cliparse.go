package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseType   string
	LocalStorePath string
	SessionSecret  string
	CatalogPath    string
	EnvFile        string
}

// Remote reports whether a remote store is configured.
func (c Config) Remote() bool {
	return c.DatabaseURL != ""
}

// ParseFlags validates flags and fills the rest from the environment.
// Values in the env file never override variables already set.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	flags := flag.NewFlagSet("arion", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	flags.IntVar(&cfg.Port, "p", 0, "Server port")
	flags.StringVar(&cfg.DatabaseURL, "d", "", "Remote database URL (empty runs local-only)")
	flags.StringVar(&cfg.DatabaseType, "t", "", "Remote database type (postgres or sqlite)")
	flags.StringVar(&cfg.LocalStorePath, "local", "", "Device store path")
	flags.StringVar(&cfg.CatalogPath, "catalog", "", "Badge catalog YAML (empty uses the built-in catalog)")
	flags.StringVar(&cfg.EnvFile, "env", ".env", "Env file to load")

	// Secrets (prefer env variables, but allow CLI for dev)
	flags.StringVar(&cfg.SessionSecret, "session-secret", "", "Session token secret (prefer env)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", cfg.EnvFile, err)
		}
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d out of range", cfg.Port)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "postgres"
		}
	}
	if cfg.DatabaseType != "postgres" && cfg.DatabaseType != "sqlite" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.LocalStorePath == "" {
		cfg.LocalStorePath = os.Getenv("LOCAL_STORE_PATH")
		if cfg.LocalStorePath == "" {
			cfg.LocalStorePath = "arion-local.db"
		}
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = os.Getenv("CATALOG_PATH")
	}

	// Secrets - required once accounts are served
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.Remote() && cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required when DATABASE_URL is set")
	}

	return cfg, nil
}
