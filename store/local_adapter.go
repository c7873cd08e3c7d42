// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/polTorrent/biblioteca-universal-arion/local"
	"github.com/polTorrent/biblioteca-universal-arion/models"
)

const currentProfileKey = "current_profile"

// LocalAdapter keeps each profile and its collections as JSON documents in
// the device key-value store.
type LocalAdapter struct {
	kv local.KV
	// mu serializes read-modify-write of documents
	mu  sync.Mutex
	now func() time.Time
}

func NewLocalAdapter(kv local.KV) *LocalAdapter {
	return &LocalAdapter{kv: kv, now: now}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (a *LocalAdapter) Name() string {
	return ModeLocal
}

// CurrentProfileID returns the profile registered on this device.
func (a *LocalAdapter) CurrentProfileID() (string, bool) {
	return a.kv.Get(currentProfileKey)
}

func docKey(kind, profileID string) string {
	return kind + ":" + profileID
}

func load[T any](kv local.KV, key string) (T, bool) {
	var v T
	raw, ok := kv.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		slog.Warn("discarding unreadable local document", "key", key, "error", err)
		return v, false
	}
	return v, true
}

func save(kv local.KV, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		// only reachable with unsupported types, never with models
		panic(fmt.Sprintf("store: encode %s: %v", key, err))
	}
	kv.Set(key, string(raw))
}

func (a *LocalAdapter) GetProfile(_ context.Context, id string) (models.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := load[models.Profile](a.kv, docKey("profile", id))
	if !ok {
		return models.Profile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// CreateProfile stores p and makes it the device's current profile.
func (a *LocalAdapter) CreateProfile(_ context.Context, p models.Profile) (models.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	key := docKey("profile", p.ID)
	if _, exists := a.kv.Get(key); exists {
		return models.Profile{}, fmt.Errorf("profile %s: %w", p.ID, ErrDuplicateEntry)
	}
	ts := a.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = ts
	}
	p.UpdatedAt = ts
	p.Version = 1
	p.Badges = nil
	save(a.kv, key, p)
	a.kv.Set(currentProfileKey, p.ID)
	return p, nil
}

func (a *LocalAdapter) UpdateProfile(_ context.Context, id string, patch models.ProfilePatch) (models.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := docKey("profile", id)
	p, ok := load[models.Profile](a.kv, key)
	if !ok {
		return models.Profile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if patch.ExpectedVersion != 0 && patch.ExpectedVersion != p.Version {
		return models.Profile{}, fmt.Errorf("profile %s at version %d, expected %d: %w",
			id, p.Version, patch.ExpectedVersion, ErrConflict)
	}
	p = patch.Apply(p)
	p.Version++
	p.UpdatedAt = a.now()
	save(a.kv, key, p)
	return p, nil
}

func (a *LocalAdapter) requireProfile(id string) error {
	if _, ok := a.kv.Get(docKey("profile", id)); !ok {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}

func (a *LocalAdapter) ListContributions(_ context.Context, profileID string) ([]models.Contribution, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list, _ := load[[]models.Contribution](a.kv, docKey("contributions", profileID))
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (a *LocalAdapter) AddContribution(_ context.Context, profileID string, c models.Contribution) (models.Contribution, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireProfile(profileID); err != nil {
		return models.Contribution{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = a.now()
	}
	c.ProfileID = profileID

	key := docKey("contributions", profileID)
	list, _ := load[[]models.Contribution](a.kv, key)
	for _, existing := range list {
		if existing.ID == c.ID || (existing.WorkID == c.WorkID && existing.CreatedAt.Equal(c.CreatedAt)) {
			return models.Contribution{}, fmt.Errorf("contribution %s: %w", c.ID, ErrDuplicateEntry)
		}
	}
	save(a.kv, key, append(list, c))
	return c, nil
}

func (a *LocalAdapter) ListBadges(_ context.Context, profileID string) ([]models.EarnedBadge, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list, _ := load[[]models.EarnedBadge](a.kv, docKey("badges", profileID))
	return list, nil
}

func (a *LocalAdapter) AddBadge(_ context.Context, profileID, badgeID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireProfile(profileID); err != nil {
		return err
	}
	key := docKey("badges", profileID)
	list, _ := load[[]models.EarnedBadge](a.kv, key)
	for _, b := range list {
		if b.BadgeID == badgeID {
			return fmt.Errorf("badge %s: %w", badgeID, ErrDuplicateEntry)
		}
	}
	save(a.kv, key, append(list, models.EarnedBadge{ProfileID: profileID, BadgeID: badgeID, EarnedAt: a.now()}))
	return nil
}

func (a *LocalAdapter) ListFavorites(_ context.Context, profileID string) ([]models.Favorite, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list, _ := load[[]models.Favorite](a.kv, docKey("favorites", profileID))
	return list, nil
}

func (a *LocalAdapter) AddFavorite(_ context.Context, profileID string, f models.Favorite) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireProfile(profileID); err != nil {
		return err
	}
	key := docKey("favorites", profileID)
	list, _ := load[[]models.Favorite](a.kv, key)
	for _, existing := range list {
		if existing.WorkID == f.WorkID {
			return fmt.Errorf("favorite %s: %w", f.WorkID, ErrDuplicateEntry)
		}
	}
	f.ProfileID = profileID
	if f.AddedAt.IsZero() {
		f.AddedAt = a.now()
	}
	save(a.kv, key, append(list, f))
	return nil
}

func (a *LocalAdapter) RemoveFavorite(_ context.Context, profileID, workID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := docKey("favorites", profileID)
	list, _ := load[[]models.Favorite](a.kv, key)
	for i, f := range list {
		if f.WorkID == workID {
			save(a.kv, key, append(list[:i], list[i+1:]...))
			return nil
		}
	}
	return fmt.Errorf("favorite %s: %w", workID, ErrNotFound)
}

func (a *LocalAdapter) ListCart(_ context.Context, profileID string) ([]models.CartItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list, _ := load[[]models.CartItem](a.kv, docKey("cart", profileID))
	return list, nil
}

// PutCartItem adds item or replaces the pledge already held for the same work.
func (a *LocalAdapter) PutCartItem(_ context.Context, profileID string, item models.CartItem) (models.CartItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireProfile(profileID); err != nil {
		return models.CartItem{}, err
	}
	key := docKey("cart", profileID)
	list, _ := load[[]models.CartItem](a.kv, key)
	item.ProfileID = profileID
	for i, existing := range list {
		if existing.WorkID == item.WorkID {
			item.ID = existing.ID
			item.AddedAt = existing.AddedAt
			list[i] = item
			save(a.kv, key, list)
			return item, nil
		}
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = a.now()
	}
	save(a.kv, key, append(list, item))
	return item, nil
}

func (a *LocalAdapter) RemoveCartItem(_ context.Context, profileID, itemID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := docKey("cart", profileID)
	list, _ := load[[]models.CartItem](a.kv, key)
	for i, item := range list {
		if item.ID == itemID {
			save(a.kv, key, append(list[:i], list[i+1:]...))
			return nil
		}
	}
	return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
}

func (a *LocalAdapter) ClearCart(_ context.Context, profileID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.kv.Delete(docKey("cart", profileID))
	return nil
}

// Ranking is a remote-only feature.
func (a *LocalAdapter) Ranking(context.Context, int) ([]models.RankingEntry, error) {
	return []models.RankingEntry{}, nil
}
