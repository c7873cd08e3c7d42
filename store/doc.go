// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the dual-backend persistence layer for profiles and their
collections.

A ProfileStore is built once at startup around exactly one Adapter and passed
to every consumer:

	profiles := store.New(store.NewRemoteAdapter(client)) // remote configured
	profiles := store.New(store.NewLocalAdapter(kv))      // device only

The choice is fixed for the process. A remote failure is returned to the
caller as ErrStoreUnavailable; it never falls back to local state.

# Cache

ProfileStore keeps one cached value per resource kind (profile, contributions,
badges, favorites, cart, ranking) tagged with the profile id it belongs to.
A successful write clears the entry of its kind; the next read goes to the
adapter. Writers are not serialized here. Profile updates carry an expected
version instead, and adapters reject stale writes with ErrConflict.

# Errors

  - ErrStoreUnavailable: backend unreachable, retryable
  - ErrDuplicateEntry: uniqueness rule rejected the write
  - ErrNotFound: no such profile or collection entry
  - ErrConflict: profile version moved since it was read
*/
package store
