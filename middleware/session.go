// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/polTorrent/biblioteca-universal-arion/auth"
)

type sessionKey struct{}

// TokenValidator checks session tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RequireOwner requires a bearer token for the profile named by the {id}
// path value. A nil validator disables the check, which is how local-only
// mode runs.
func RequireOwner(v TokenValidator, next http.HandlerFunc) http.HandlerFunc {
	if v == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			ErrorResponse(w, http.StatusUnauthorized, "authorization header required")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			ErrorResponse(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		claims, err := v.Validate(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				ErrorResponse(w, http.StatusUnauthorized, "token has expired")
			} else {
				ErrorResponse(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}
		if id := r.PathValue("id"); id != "" && id != claims.ProfileID {
			ErrorResponse(w, http.StatusForbidden, "token does not belong to this profile")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, claims)))
	}
}

// SessionFrom returns the claims stored by RequireOwner.
func SessionFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(sessionKey{}).(*auth.Claims)
	return claims, ok
}
