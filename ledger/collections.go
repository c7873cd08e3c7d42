// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/store"
)

// UpdateDetails edits the display fields of a profile. Loyalty aggregates
// cannot be changed this way.
func (p *Processor) UpdateDetails(ctx context.Context, profileID string, patch models.ProfilePatch) (models.Profile, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return models.Profile{}, invalid("name cannot be empty")
	}
	patch.Stats = nil
	patch.ExpectedVersion = 0
	return p.store.UpdateProfile(ctx, profileID, patch)
}

// AddFavorite marks a work as favorite. Adding it again is a no-op.
func (p *Processor) AddFavorite(ctx context.Context, profileID string, req models.AddFavoriteRequest) error {
	workID := strings.TrimSpace(req.WorkID)
	if workID == "" {
		return invalid("work_id is required")
	}
	err := p.store.AddFavorite(ctx, profileID, models.Favorite{
		WorkID:     workID,
		WorkTitle:  req.WorkTitle,
		WorkAuthor: req.WorkAuthor,
	})
	if errors.Is(err, store.ErrDuplicateEntry) {
		return nil
	}
	return err
}

// PutCartItem sets the amount pledged to a work in the cart.
func (p *Processor) PutCartItem(ctx context.Context, profileID string, req models.PutCartItemRequest) (models.CartItem, error) {
	pl := newPledge("", req.WorkID, req.WorkTitle, req.Amount, req.Kind)
	if err := pl.validate(); err != nil {
		return models.CartItem{}, err
	}
	return p.store.PutCartItem(ctx, profileID, models.CartItem{
		WorkID:     pl.WorkID,
		WorkTitle:  req.WorkTitle,
		WorkAuthor: req.WorkAuthor,
		Amount:     pl.Amount,
		Kind:       pl.Kind,
	})
}

// Cart returns the cart with its total.
func (p *Processor) Cart(ctx context.Context, profileID string) (models.CartResponse, error) {
	items, err := p.store.ListCart(ctx, profileID)
	if err != nil {
		return models.CartResponse{}, err
	}
	var total models.Money
	for _, item := range items {
		total += item.Amount
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return models.CartResponse{Items: items, Total: total, Label: total.String()}, nil
}
