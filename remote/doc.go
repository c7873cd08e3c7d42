// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package remote is a small row-store client over a relational backend.

It exposes the four operations the ledger needs from the remote service:

	rows, err := c.Get(ctx, "contributions", remote.Filter{"profile_id": id}, remote.Query{OrderBy: "created_at"})
	row, err := c.Insert(ctx, "earned_badges", remote.Row{"profile_id": id, "badge_id": "primera-gota", ...})
	n, err := c.Update(ctx, "profiles", remote.Row{"name": "Anna"}, remote.Filter{"id": id})
	n, err := c.Delete(ctx, "favorites", remote.Filter{"profile_id": id, "work_id": w})

Filters are equality matches joined with AND. Table and column names must be
plain lowercase identifiers; values are always bound as parameters.

# Drivers

Open accepts "postgres" (github.com/lib/pq) or "sqlite" (modernc.org/sqlite).
SQLite is used for development and tests; timestamps are stored as fixed-width
UTC text so ordering and equality match Postgres.

# Errors

Driver errors are classified so callers can tell them apart:

  - ErrUniqueViolation: a UNIQUE or PRIMARY KEY constraint rejected the write
  - ErrUnavailable: the backend could not be reached or is busy

Anything else (bad identifiers, check constraints) is returned wrapped but
unclassified.
*/
package remote
