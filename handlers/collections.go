// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/polTorrent/biblioteca-universal-arion/ledger"
	"github.com/polTorrent/biblioteca-universal-arion/middleware"
	"github.com/polTorrent/biblioteca-universal-arion/models"
)

// CollectionHandler serves favorites and the contribution cart.
type CollectionHandler struct {
	proc *ledger.Processor
}

func NewCollectionHandler(proc *ledger.Processor) *CollectionHandler {
	return &CollectionHandler{proc: proc}
}

// ListFavorites handles GET /profiles/{id}/favorites
func (h *CollectionHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := h.proc.Store().ListFavorites(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if favs == nil {
		favs = []models.Favorite{}
	}
	middleware.JSONResponse(w, http.StatusOK, favs)
}

// AddFavorite handles POST /profiles/{id}/favorites
func (h *CollectionHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req models.AddFavoriteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	if err := h.proc.AddFavorite(r.Context(), r.PathValue("id"), req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveFavorite handles DELETE /profiles/{id}/favorites/{work}
func (h *CollectionHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.proc.Store().RemoveFavorite(r.Context(), r.PathValue("id"), r.PathValue("work")); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCart handles GET /profiles/{id}/cart
func (h *CollectionHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.proc.Cart(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, cart)
}

// PutCartItem handles POST /profiles/{id}/cart
func (h *CollectionHandler) PutCartItem(w http.ResponseWriter, r *http.Request) {
	var req models.PutCartItemRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	item, err := h.proc.PutCartItem(r.Context(), r.PathValue("id"), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, item)
}

// RemoveCartItem handles DELETE /profiles/{id}/cart/{item}
func (h *CollectionHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	if err := h.proc.Store().RemoveCartItem(r.Context(), r.PathValue("id"), r.PathValue("item")); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles POST /profiles/{id}/cart/checkout
func (h *CollectionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := h.proc.Checkout(r.Context(), id)
	if err != nil {
		// Items recorded before the failure are already out of the cart.
		slog.Warn("checkout stopped", "profile_id", id, "recorded", len(res.Contributions), "error", err)
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}
