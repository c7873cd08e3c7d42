// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Arion loyalty API server.

Biblioteca Universal Arion funds translations of classical works through
collective and individual contributions. This server keeps each patron's
loyalty ledger: points, levels, badges, favorites and the pledge cart.

# Starting the Server

Without a database the server runs local-only, keeping one device profile in
an embedded SQLite file:

	go run main.go

With a remote store, accounts and bearer tokens are enabled:

	DATABASE_URL=postgres://... SESSION_SECRET=... go run main.go

Or with flags:

	go run main.go -p 3318 -d "postgres://..." -session-secret "..."

# Configuration

  - PORT (-p): Server port (default: 3318)
  - DATABASE_URL (-d): Remote store connection string; enables accounts
  - DATABASE_TYPE (-t): postgres or sqlite (default: postgres)
  - LOCAL_STORE_PATH (-local): Device store file (default: arion-local.db)
  - SESSION_SECRET (-session-secret): Token signing key, required with DATABASE_URL
  - CATALOG_PATH (-catalog): YAML badge catalog replacing the built-in one

Values may also come from a .env file (-env).

# Architecture

  - loyalty: Level table, badge catalog and point rules
  - store: Profile store over a local or remote adapter, with a per-kind cache
  - local, remote: Device key-value store and SQL row client
  - ledger: Contribution processor (points, stats, badges, events)
  - migration: One-time copy of device history on first remote sign-in
  - auth: Accounts, password hashing and session tokens
  - events: Badge and level notifications
  - handlers, router, middleware: HTTP surface
  - db: Remote schema
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
