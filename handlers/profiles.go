// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polTorrent/biblioteca-universal-arion/ledger"
	"github.com/polTorrent/biblioteca-universal-arion/loyalty"
	"github.com/polTorrent/biblioteca-universal-arion/middleware"
	"github.com/polTorrent/biblioteca-universal-arion/models"
)

const (
	recentContributions = 10
	defaultRankingLimit = 10
	maxRankingLimit     = 100
)

// EarnedBadgeView is a catalog badge together with when it was earned.
type EarnedBadgeView struct {
	loyalty.Badge
	EarnedAt time.Time `json:"earned_at"`
}

// ProfileOverview is everything the profile page shows.
type ProfileOverview struct {
	Profile       models.Profile          `json:"profile"`
	Progress      loyalty.LevelProgress   `json:"progress"`
	Badges        []EarnedBadgeView       `json:"badges"`
	NextBadges    []loyalty.BadgeProgress `json:"next_badges"`
	Contributions []models.Contribution   `json:"recent_contributions"`
}

type ProfileHandler struct {
	proc *ledger.Processor
}

func NewProfileHandler(proc *ledger.Processor) *ProfileHandler {
	return &ProfileHandler{proc: proc}
}

// Register handles POST /profiles
func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	profile, err := h.proc.Register(r.Context(), models.Profile{
		Email:      req.Email,
		Name:       req.Name,
		Surname:    req.Surname,
		Newsletter: req.Newsletter,
		Public:     true,
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("profile registered", "profile_id", profile.ID, "mode", h.proc.Store().Mode())
	middleware.JSONResponse(w, http.StatusCreated, profile)
}

// GetProfile handles GET /profiles/{id}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	profiles := h.proc.Store()

	var (
		profile models.Profile
		earned  []models.EarnedBadge
		history []models.Contribution
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		profile, err = profiles.GetProfile(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		earned, err = profiles.ListBadges(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = profiles.ListContributions(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	engine := h.proc.Engine()
	badges := h.badgeViews(earned)
	owned := make(map[string]bool, len(badges))
	for _, b := range badges {
		owned[b.ID] = true
	}
	next := []loyalty.BadgeProgress{}
	for _, b := range engine.Catalog().Public() {
		if owned[b.ID] {
			continue
		}
		if bp, ok := loyalty.ProgressFor(b, profile); ok {
			next = append(next, bp)
		}
	}

	recent := slices.Clone(history)
	slices.SortStableFunc(recent, func(a, b models.Contribution) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(recent) > recentContributions {
		recent = recent[:recentContributions]
	}
	if recent == nil {
		recent = []models.Contribution{}
	}

	middleware.JSONResponse(w, http.StatusOK, ProfileOverview{
		Profile:       profile,
		Progress:      engine.Progress(profile.PointsTotal),
		Badges:        badges,
		NextBadges:    next,
		Contributions: recent,
	})
}

// UpdateProfile handles PATCH /profiles/{id}
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfilePatch
	if err := middleware.ParseJSONBody(r, &patch); err != nil {
		middleware.BodyError(w, err)
		return
	}

	profile, err := h.proc.UpdateDetails(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, profile)
}

// ListContributions handles GET /profiles/{id}/contributions
func (h *ProfileHandler) ListContributions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.proc.Store().GetProfile(r.Context(), id); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	history, err := h.proc.Store().ListContributions(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if history == nil {
		history = []models.Contribution{}
	}
	middleware.JSONResponse(w, http.StatusOK, history)
}

// RecordContribution handles POST /profiles/{id}/contributions
func (h *ProfileHandler) RecordContribution(w http.ResponseWriter, r *http.Request) {
	var req models.RecordContributionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	res, err := h.proc.RecordContribution(r.Context(), r.PathValue("id"), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	middleware.JSONResponse(w, status, res)
}

// ListBadges handles GET /profiles/{id}/badges
func (h *ProfileHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.proc.Store().GetProfile(r.Context(), id); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	earned, err := h.proc.Store().ListBadges(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, h.badgeViews(earned))
}

// RecordActivity handles POST /profiles/{id}/activities
func (h *ProfileHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	var req models.RecordActivityRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	res, err := h.proc.RecordActivity(r.Context(), r.PathValue("id"), req.Kind)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// Reconcile handles POST /profiles/{id}/reconcile
func (h *ProfileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	res, err := h.proc.Reconcile(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// Ranking handles GET /ranking?limit=N
func (h *ProfileHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	limit := defaultRankingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRankingLimit)
	}

	entries, err := h.proc.Store().Ranking(r.Context(), limit)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.RankingEntry{}
	}
	middleware.JSONResponse(w, http.StatusOK, entries)
}

// badgeViews joins earned badges with the catalog, oldest first. Badges no
// longer in the catalog are left out.
func (h *ProfileHandler) badgeViews(earned []models.EarnedBadge) []EarnedBadgeView {
	catalog := h.proc.Engine().Catalog()
	out := make([]EarnedBadgeView, 0, len(earned))
	for _, e := range earned {
		b, ok := catalog.Badge(e.BadgeID)
		if !ok {
			continue
		}
		out = append(out, EarnedBadgeView{Badge: b, EarnedAt: e.EarnedAt})
	}
	slices.SortStableFunc(out, func(a, b EarnedBadgeView) int {
		return a.EarnedAt.Compare(b.EarnedAt)
	})
	return out
}
