// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed by the remote store.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The statements stay within the subset shared by Postgres and SQLite.
const schema = `
-- Accounts
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

-- Profiles
CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    surname TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    newsletter BOOLEAN NOT NULL DEFAULT FALSE,
    public BOOLEAN NOT NULL DEFAULT TRUE,
    member_number INTEGER NOT NULL DEFAULT 0,
    total_contributed BIGINT NOT NULL DEFAULT 0 CHECK (total_contributed >= 0),
    points_total INTEGER NOT NULL DEFAULT 0 CHECK (points_total >= 0),
    level INTEGER NOT NULL DEFAULT 1,
    title TEXT NOT NULL DEFAULT '',
    contribution_count INTEGER NOT NULL DEFAULT 0,
    distinct_works_count INTEGER NOT NULL DEFAULT 0,
    fully_funded_count INTEGER NOT NULL DEFAULT 0,
    longest_streak_days INTEGER NOT NULL DEFAULT 0,
    vote_count INTEGER NOT NULL DEFAULT 0,
    proposal_count INTEGER NOT NULL DEFAULT 0,
    share_count INTEGER NOT NULL DEFAULT 0,
    correction_count INTEGER NOT NULL DEFAULT 0,
    works_read_count INTEGER NOT NULL DEFAULT 0,
    version BIGINT NOT NULL DEFAULT 1,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_points ON profiles(points_total);

-- Contributions
CREATE TABLE IF NOT EXISTS contributions (
    id TEXT NOT NULL,
    profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    work_id TEXT NOT NULL,
    work_title TEXT NOT NULL DEFAULT '',
    amount BIGINT NOT NULL CHECK (amount > 0),
    kind TEXT NOT NULL CHECK (kind IN ('individual', 'collective')),
    created_at TIMESTAMPTZ NOT NULL,
    -- client ids are only unique per profile
    PRIMARY KEY (profile_id, id),
    UNIQUE (profile_id, work_id, created_at)
);

CREATE INDEX IF NOT EXISTS idx_contributions_profile_id ON contributions(profile_id);

-- Earned badges
CREATE TABLE IF NOT EXISTS earned_badges (
    profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    badge_id TEXT NOT NULL,
    earned_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (profile_id, badge_id)
);

-- Favorites
CREATE TABLE IF NOT EXISTS favorites (
    profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    work_id TEXT NOT NULL,
    work_title TEXT NOT NULL DEFAULT '',
    work_author TEXT NOT NULL DEFAULT '',
    added_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (profile_id, work_id)
);

-- Cart
CREATE TABLE IF NOT EXISTS cart_items (
    id TEXT PRIMARY KEY,
    profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    work_id TEXT NOT NULL,
    work_title TEXT NOT NULL DEFAULT '',
    work_author TEXT NOT NULL DEFAULT '',
    amount BIGINT NOT NULL CHECK (amount > 0),
    kind TEXT NOT NULL CHECK (kind IN ('individual', 'collective')),
    added_at TIMESTAMPTZ NOT NULL,
    UNIQUE (profile_id, work_id)
);

CREATE INDEX IF NOT EXISTS idx_cart_items_profile_id ON cart_items(profile_id);
`
