// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, client) and completion (status, duration_ms).

# Sessions

RequireOwner guards /profiles/{id} routes when accounts are enabled. The
bearer token must validate and name the same profile as the path:

	mux.HandleFunc("GET /profiles/{id}", middleware.RequireOwner(tokens, handler))

A nil validator lets every request through. Claims are available to the
handler through SessionFrom.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PATCH, DELETE, OPTIONS with headers
Content-Type and Authorization.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.WriteError(w, r, err)

WriteError maps domain errors to status codes (see StatusFor).

Parse JSON request bodies:

	var req models.RecordContributionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
