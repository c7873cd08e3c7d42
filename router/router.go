// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/polTorrent/biblioteca-universal-arion/auth"
	"github.com/polTorrent/biblioteca-universal-arion/handlers"
	"github.com/polTorrent/biblioteca-universal-arion/ledger"
	"github.com/polTorrent/biblioteca-universal-arion/middleware"
)

// Services are the components the API is built from. Accounts is nil when
// the device runs local-only.
type Services struct {
	Processor *ledger.Processor
	Accounts  *auth.Manager
	Device    handlers.CurrentProfiler
}

func NewRouter(svc Services) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	profileHandler := handlers.NewProfileHandler(svc.Processor)
	collectionHandler := handlers.NewCollectionHandler(svc.Processor)
	catalogHandler := handlers.NewCatalogHandler(svc.Processor.Engine())
	authHandler := handlers.NewAuthHandler(svc.Accounts, svc.Device)

	// Profile routes need the owner's token once accounts exist
	var tokens middleware.TokenValidator
	if svc.Accounts != nil {
		tokens = svc.Accounts.Tokens()
	}
	owned := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireOwner(tokens, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Catalog (public)
	mux.HandleFunc("GET /levels", middleware.WithLogging(catalogHandler.Levels))
	mux.HandleFunc("GET /badges", middleware.WithLogging(catalogHandler.Badges))
	mux.HandleFunc("GET /ranking", middleware.WithLogging(profileHandler.Ranking))

	// Local registration; remote profiles are created by sign-up
	if svc.Accounts == nil {
		mux.HandleFunc("POST /profiles", middleware.WithLogging(profileHandler.Register))
	}

	// Profile and ledger operations
	mux.HandleFunc("GET /profiles/{id}", owned(profileHandler.GetProfile))
	mux.HandleFunc("PATCH /profiles/{id}", owned(profileHandler.UpdateProfile))
	mux.HandleFunc("GET /profiles/{id}/contributions", owned(profileHandler.ListContributions))
	mux.HandleFunc("POST /profiles/{id}/contributions", owned(profileHandler.RecordContribution))
	mux.HandleFunc("GET /profiles/{id}/badges", owned(profileHandler.ListBadges))
	mux.HandleFunc("POST /profiles/{id}/activities", owned(profileHandler.RecordActivity))
	mux.HandleFunc("POST /profiles/{id}/reconcile", owned(profileHandler.Reconcile))

	// Favorites and cart
	mux.HandleFunc("GET /profiles/{id}/favorites", owned(collectionHandler.ListFavorites))
	mux.HandleFunc("POST /profiles/{id}/favorites", owned(collectionHandler.AddFavorite))
	mux.HandleFunc("DELETE /profiles/{id}/favorites/{work}", owned(collectionHandler.RemoveFavorite))
	mux.HandleFunc("GET /profiles/{id}/cart", owned(collectionHandler.GetCart))
	mux.HandleFunc("POST /profiles/{id}/cart", owned(collectionHandler.PutCartItem))
	mux.HandleFunc("DELETE /profiles/{id}/cart/{item}", owned(collectionHandler.RemoveCartItem))
	mux.HandleFunc("POST /profiles/{id}/cart/checkout", owned(collectionHandler.Checkout))

	// Accounts
	mux.HandleFunc("POST /auth/signup", middleware.WithLogging(authHandler.SignUp))
	mux.HandleFunc("POST /auth/signin", middleware.WithLogging(authHandler.SignIn))
	mux.HandleFunc("POST /auth/signout", middleware.WithLogging(authHandler.SignOut))
	mux.HandleFunc("GET /auth/session", middleware.WithLogging(authHandler.Session))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("arion loyalty API v1"))
	})

	return mux
}
