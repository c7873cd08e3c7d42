// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import "errors"

var (
	// ErrStoreUnavailable means the active backend could not be reached.
	// It is retryable and never silently swallowed.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDuplicateEntry means a uniqueness rule rejected the write.
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrNotFound       = errors.New("not found")
	// ErrConflict means the profile version changed since it was read.
	ErrConflict = errors.New("version conflict")
)
