// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles remote store schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(client.DB()); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same statements run on Postgres and on SQLite.

# Tables

  - accounts: Remote sign-in credentials (bcrypt hashes)
  - profiles: Display fields, loyalty aggregates and a version counter
  - contributions: Immutable monetary pledges
  - earned_badges: One row per (profile, badge)
  - favorites: Saved works
  - cart_items: Pending pledges, one per (profile, work)

# Relationships

	profiles 1──* contributions
	profiles 1──* earned_badges
	profiles 1──* favorites
	profiles 1──* cart_items

All foreign keys use ON DELETE CASCADE.

# Natural keys

contributions has UNIQUE (profile_id, work_id, created_at) so a replayed
migration cannot insert the same pledge twice even under a new id.
*/
package db
