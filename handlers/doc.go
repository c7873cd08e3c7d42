// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Arion loyalty API.

# Handler Types

Each handler is a struct built around the contribution processor:

  - ProfileHandler: Registration, profile overview, contributions, activities
  - CollectionHandler: Favorites, cart and checkout
  - CatalogHandler: Level table and public badge catalog
  - AuthHandler: Remote sign-up, sign-in and the device session

Handlers are created via constructor functions:

	profileHandler := handlers.NewProfileHandler(proc)

# Profile Overview

GET /profiles/{id} reads the profile, its badges and its contribution
history concurrently and answers with level progress, earned badges,
progress toward the next public badges and the most recent contributions.

# Contributions

	POST /profiles/{id}/contributions → RecordContribution (201, or 200 on replay)
	POST /profiles/{id}/activities    → RecordActivity
	POST /profiles/{id}/reconcile     → Reconcile

A contribution carrying a client id is idempotent: posting it again answers
200 with replayed set and leaves the points untouched.

# Errors

Domain errors are reported through middleware.WriteError:

	store unavailable       → 503
	invalid input           → 400
	not found               → 404
	duplicate or conflict   → 409
	bad credentials / token → 401
*/
package handlers
