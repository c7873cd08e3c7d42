// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/polTorrent/biblioteca-universal-arion/models"
)

type resource int

const (
	resProfile resource = iota
	resContributions
	resBadges
	resFavorites
	resCart
	resRanking
)

type cacheEntry struct {
	profileID string
	value     any
}

// ProfileStore fronts exactly one adapter, chosen at construction and fixed
// for the life of the value. It caches one entry per resource kind and clears
// that entry on every successful write of the same kind.
type ProfileStore struct {
	adapter Adapter

	mu      sync.Mutex
	entries map[resource]cacheEntry
	// gens discards fills that raced with an invalidation
	gens map[resource]uint64
}

func New(adapter Adapter) *ProfileStore {
	return &ProfileStore{
		adapter: adapter,
		entries: make(map[resource]cacheEntry),
		gens:    make(map[resource]uint64),
	}
}

// Mode names the active backend.
func (s *ProfileStore) Mode() string {
	return s.adapter.Name()
}

func (s *ProfileStore) Adapter() Adapter {
	return s.adapter
}

func cached[T any](s *ProfileStore, kind resource, profileID string, fetch func() (T, error)) (T, error) {
	s.mu.Lock()
	if e, ok := s.entries[kind]; ok && e.profileID == profileID {
		s.mu.Unlock()
		return e.value.(T), nil
	}
	gen := s.gens[kind]
	s.mu.Unlock()

	v, err := fetch()
	if err != nil {
		return v, err
	}

	s.mu.Lock()
	if s.gens[kind] == gen {
		s.entries[kind] = cacheEntry{profileID: profileID, value: v}
	}
	s.mu.Unlock()
	return v, nil
}

func (s *ProfileStore) invalidate(kinds ...resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range kinds {
		delete(s.entries, k)
		s.gens[k]++
	}
}

// GetProfile returns the profile with its badge ids.
func (s *ProfileStore) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	p, err := cached(s, resProfile, id, func() (models.Profile, error) {
		return s.adapter.GetProfile(ctx, id)
	})
	if err != nil {
		return models.Profile{}, err
	}
	badges, err := s.ListBadges(ctx, id)
	if err != nil {
		return models.Profile{}, err
	}
	p.Badges = make([]string, len(badges))
	for i, b := range badges {
		p.Badges[i] = b.BadgeID
	}
	return p, nil
}

func (s *ProfileStore) CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	created, err := s.adapter.CreateProfile(ctx, p)
	if err != nil {
		return models.Profile{}, err
	}
	s.invalidate(resProfile, resRanking)
	return created, nil
}

func (s *ProfileStore) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (models.Profile, error) {
	updated, err := s.adapter.UpdateProfile(ctx, id, patch)
	if err != nil {
		return models.Profile{}, err
	}
	s.invalidate(resProfile, resRanking)
	return updated, nil
}

func (s *ProfileStore) ListContributions(ctx context.Context, profileID string) ([]models.Contribution, error) {
	list, err := cached(s, resContributions, profileID, func() ([]models.Contribution, error) {
		return s.adapter.ListContributions(ctx, profileID)
	})
	return slices.Clone(list), err
}

func (s *ProfileStore) AddContribution(ctx context.Context, profileID string, c models.Contribution) (models.Contribution, error) {
	added, err := s.adapter.AddContribution(ctx, profileID, c)
	if err != nil {
		return models.Contribution{}, err
	}
	s.invalidate(resContributions)
	return added, nil
}

func (s *ProfileStore) ListBadges(ctx context.Context, profileID string) ([]models.EarnedBadge, error) {
	list, err := cached(s, resBadges, profileID, func() ([]models.EarnedBadge, error) {
		return s.adapter.ListBadges(ctx, profileID)
	})
	return slices.Clone(list), err
}

func (s *ProfileStore) AddBadge(ctx context.Context, profileID, badgeID string) error {
	if err := s.adapter.AddBadge(ctx, profileID, badgeID); err != nil {
		return err
	}
	s.invalidate(resBadges)
	return nil
}

func (s *ProfileStore) ListFavorites(ctx context.Context, profileID string) ([]models.Favorite, error) {
	list, err := cached(s, resFavorites, profileID, func() ([]models.Favorite, error) {
		return s.adapter.ListFavorites(ctx, profileID)
	})
	return slices.Clone(list), err
}

func (s *ProfileStore) AddFavorite(ctx context.Context, profileID string, f models.Favorite) error {
	if err := s.adapter.AddFavorite(ctx, profileID, f); err != nil {
		return err
	}
	s.invalidate(resFavorites)
	return nil
}

func (s *ProfileStore) RemoveFavorite(ctx context.Context, profileID, workID string) error {
	if err := s.adapter.RemoveFavorite(ctx, profileID, workID); err != nil {
		return err
	}
	s.invalidate(resFavorites)
	return nil
}

func (s *ProfileStore) ListCart(ctx context.Context, profileID string) ([]models.CartItem, error) {
	list, err := cached(s, resCart, profileID, func() ([]models.CartItem, error) {
		return s.adapter.ListCart(ctx, profileID)
	})
	return slices.Clone(list), err
}

func (s *ProfileStore) PutCartItem(ctx context.Context, profileID string, item models.CartItem) (models.CartItem, error) {
	stored, err := s.adapter.PutCartItem(ctx, profileID, item)
	if err != nil {
		return models.CartItem{}, err
	}
	s.invalidate(resCart)
	return stored, nil
}

func (s *ProfileStore) RemoveCartItem(ctx context.Context, profileID, itemID string) error {
	if err := s.adapter.RemoveCartItem(ctx, profileID, itemID); err != nil {
		return err
	}
	s.invalidate(resCart)
	return nil
}

func (s *ProfileStore) ClearCart(ctx context.Context, profileID string) error {
	if err := s.adapter.ClearCart(ctx, profileID); err != nil {
		return err
	}
	s.invalidate(resCart)
	return nil
}

// Ranking lists public profiles by points. Local mode has no ranking.
func (s *ProfileStore) Ranking(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	list, err := cached(s, resRanking, strconv.Itoa(limit), func() ([]models.RankingEntry, error) {
		return s.adapter.Ranking(ctx, limit)
	})
	return slices.Clone(list), err
}
