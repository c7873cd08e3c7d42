// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/polTorrent/biblioteca-universal-arion/auth"
	"github.com/polTorrent/biblioteca-universal-arion/ledger"
	"github.com/polTorrent/biblioteca-universal-arion/migration"
	"github.com/polTorrent/biblioteca-universal-arion/store"
)

// StatusFor maps a domain error to the HTTP status it is reported with.
// Availability wins over everything else so callers know to retry.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrStoreUnavailable), errors.Is(err, migration.ErrMigrationIncomplete):
		return http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrInvalidInput), errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateEntry), errors.Is(err, store.ErrConflict), errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// WriteError reports err with the status from StatusFor. Internal errors are
// logged and answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		ErrorResponse(w, status, "internal error")
		return
	}
	if status == http.StatusServiceUnavailable {
		slog.Warn("store unavailable", "path", r.URL.Path, "error", err)
	}
	ErrorResponse(w, status, err.Error())
}
