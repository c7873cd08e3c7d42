// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/polTorrent/biblioteca-universal-arion/loyalty"
	"github.com/polTorrent/biblioteca-universal-arion/middleware"
)

// CatalogHandler serves the level table and the public badge catalog.
type CatalogHandler struct {
	engine *loyalty.Engine
}

func NewCatalogHandler(engine *loyalty.Engine) *CatalogHandler {
	return &CatalogHandler{engine: engine}
}

// Levels handles GET /levels
func (h *CatalogHandler) Levels(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.engine.Catalog().Levels)
}

// Badges handles GET /badges?category=
// Secret badges are never listed.
func (h *CatalogHandler) Badges(w http.ResponseWriter, r *http.Request) {
	catalog := h.engine.Catalog()

	category := r.URL.Query().Get("category")
	if category == "" {
		middleware.JSONResponse(w, http.StatusOK, catalog.Public())
		return
	}

	switch category {
	case loyalty.CategoryPatronage, loyalty.CategoryCommunity, loyalty.CategorySecret:
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "unknown category "+category)
		return
	}
	badges := catalog.ByCategory(category)
	if badges == nil {
		badges = []loyalty.Badge{}
	}
	middleware.JSONResponse(w, http.StatusOK, badges)
}
