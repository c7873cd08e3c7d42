// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Arion loyalty API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(router.Services{Processor: proc, Accounts: accounts, Device: device})

Accounts is nil on a local-only device. In that mode POST /profiles
registers the device profile and profile routes need no token. With
accounts, profiles come from sign-up and every /profiles/{id} route requires
a bearer token issued to that profile.

# Endpoints

Health and catalog:

	GET /health
	GET /levels
	GET /badges[?category=]
	GET /ranking[?limit=]

Profiles:

	POST  /profiles                     - Local registration
	GET   /profiles/{id}                - Overview
	PATCH /profiles/{id}                - Edit display fields
	GET   /profiles/{id}/contributions  - History
	POST  /profiles/{id}/contributions  - Record a pledge
	GET   /profiles/{id}/badges         - Earned badges
	POST  /profiles/{id}/activities     - Record an activity
	POST  /profiles/{id}/reconcile      - Re-derive aggregates

Favorites and cart:

	GET/POST /profiles/{id}/favorites
	DELETE   /profiles/{id}/favorites/{work}
	GET/POST /profiles/{id}/cart
	DELETE   /profiles/{id}/cart/{item}
	POST     /profiles/{id}/cart/checkout

Accounts:

	POST /auth/signup
	POST /auth/signin
	POST /auth/signout
	GET  /auth/session
*/
package router
