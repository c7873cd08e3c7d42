// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Remote store connection string (empty runs local-only)
  - DatabaseType: postgres (default) or sqlite
  - LocalStorePath: Device store file (default: arion-local.db)
  - SessionSecret: Session token secret (required with DatabaseURL)
  - CatalogPath: Badge catalog YAML (empty uses the built-in catalog)

# CLI Flags

	-p               Server port
	-d               Remote database URL
	-t               Remote database type
	-local           Device store path
	-catalog         Badge catalog path
	-session-secret  Session token secret
	-env             Env file to load (default: .env)

# Environment Variables

Flags fall back to environment variables:

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	LOCAL_STORE_PATH → -local
	CATALOG_PATH     → -catalog
	SESSION_SECRET   → -session-secret

CLI flags take precedence over environment variables. The env file is read
with godotenv before the fallback and never overrides variables that are
already set. A missing env file is not an error.
*/
package cliparse
