// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/polTorrent/biblioteca-universal-arion/loyalty"
	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/store"
)

// CheckoutResult summarizes a cart checkout.
type CheckoutResult struct {
	Profile       models.Profile        `json:"profile"`
	Contributions []models.Contribution `json:"contributions"`
	PointsGained  int                   `json:"points_gained"`
	Total         models.Money          `json:"total_cents"`
	NewBadges     []loyalty.Badge       `json:"new_badges"`
	LevelChanged  bool                  `json:"level_changed"`
}

// Checkout records one contribution per cart item and empties the cart.
// The cart item id is the contribution id, so a checkout interrupted part way
// can be retried without counting any item twice.
func (p *Processor) Checkout(ctx context.Context, profileID string) (CheckoutResult, error) {
	ctx = context.WithoutCancel(ctx)
	items, err := p.store.ListCart(ctx, profileID)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return CheckoutResult{}, invalid("cart is empty")
	}

	out := CheckoutResult{
		Contributions: []models.Contribution{},
		NewBadges:     []loyalty.Badge{},
	}
	for _, item := range items {
		res, err := p.record(ctx, profileID, pledge{
			ID:        item.ID,
			WorkID:    item.WorkID,
			WorkTitle: item.WorkTitle,
			Amount:    item.Amount,
			Kind:      item.Kind,
		})
		if err != nil && !errors.Is(err, ErrPartialFailure) {
			return out, fmt.Errorf("checkout item %s: %w", item.ID, err)
		}
		// the contribution is durable from here on
		if rmErr := p.store.RemoveCartItem(ctx, profileID, item.ID); rmErr != nil && !errors.Is(rmErr, store.ErrNotFound) {
			slog.Warn("cart item not removed after checkout", "profile_id", profileID, "item_id", item.ID, "error", rmErr)
		}
		if err != nil {
			return out, fmt.Errorf("checkout item %s: %w", item.ID, err)
		}

		if res.Contribution != nil {
			out.Contributions = append(out.Contributions, *res.Contribution)
			out.Total += res.Contribution.Amount
		}
		out.PointsGained += res.PointsGained
		out.NewBadges = append(out.NewBadges, res.NewBadges...)
		out.LevelChanged = out.LevelChanged || res.LevelChanged
		out.Profile = res.Profile
	}

	slog.Info("checkout completed",
		"profile_id", profileID,
		"items", len(items),
		"total", out.Total.String(),
	)
	return out, nil
}
