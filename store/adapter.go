// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"

	"github.com/polTorrent/biblioteca-universal-arion/models"
)

// Backend names
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Adapter is the storage contract implemented once per backend.
// Returned profiles never carry badges; ProfileStore fills them in.
type Adapter interface {
	Name() string

	GetProfile(ctx context.Context, id string) (models.Profile, error)
	CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error)
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (models.Profile, error)

	ListContributions(ctx context.Context, profileID string) ([]models.Contribution, error)
	AddContribution(ctx context.Context, profileID string, c models.Contribution) (models.Contribution, error)

	ListBadges(ctx context.Context, profileID string) ([]models.EarnedBadge, error)
	AddBadge(ctx context.Context, profileID, badgeID string) error

	ListFavorites(ctx context.Context, profileID string) ([]models.Favorite, error)
	AddFavorite(ctx context.Context, profileID string, f models.Favorite) error
	RemoveFavorite(ctx context.Context, profileID, workID string) error

	ListCart(ctx context.Context, profileID string) ([]models.CartItem, error)
	PutCartItem(ctx context.Context, profileID string, item models.CartItem) (models.CartItem, error)
	RemoveCartItem(ctx context.Context, profileID, itemID string) error
	ClearCart(ctx context.Context, profileID string) error

	Ranking(ctx context.Context, limit int) ([]models.RankingEntry, error)
}
