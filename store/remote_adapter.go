// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/remote"
)

// RemoteAdapter maps the storage contract onto remote tables.
type RemoteAdapter struct {
	client *remote.Client
	now    func() time.Time
}

func NewRemoteAdapter(client *remote.Client) *RemoteAdapter {
	return &RemoteAdapter{client: client, now: now}
}

func (a *RemoteAdapter) Name() string {
	return ModeRemote
}

// mapErr translates remote client errors into the store taxonomy.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, remote.ErrUniqueViolation):
		return fmt.Errorf("%w: %w", ErrDuplicateEntry, err)
	case errors.Is(err, remote.ErrMissingParent):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, remote.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func statsRow(s models.Stats) remote.Row {
	return remote.Row{
		"total_contributed":    int64(s.TotalContributed),
		"points_total":         s.PointsTotal,
		"level":                s.Level,
		"title":                s.Title,
		"contribution_count":   s.ContributionCount,
		"distinct_works_count": s.DistinctWorksCount,
		"fully_funded_count":   s.FullyFundedCount,
		"longest_streak_days":  s.LongestStreakDays,
		"vote_count":           s.VoteCount,
		"proposal_count":       s.ProposalCount,
		"share_count":          s.ShareCount,
		"correction_count":     s.CorrectionCount,
		"works_read_count":     s.WorksReadCount,
	}
}

func profileFromRow(r remote.Row) models.Profile {
	return models.Profile{
		ID:           r.String("id"),
		Email:        r.String("email"),
		Name:         r.String("name"),
		Surname:      r.String("surname"),
		Bio:          r.String("bio"),
		Newsletter:   r.Bool("newsletter"),
		Public:       r.Bool("public"),
		MemberNumber: int(r.Int("member_number")),
		Stats: models.Stats{
			TotalContributed:   models.Money(r.Int("total_contributed")),
			PointsTotal:        int(r.Int("points_total")),
			Level:              int(r.Int("level")),
			Title:              r.String("title"),
			ContributionCount:  int(r.Int("contribution_count")),
			DistinctWorksCount: int(r.Int("distinct_works_count")),
			FullyFundedCount:   int(r.Int("fully_funded_count")),
			LongestStreakDays:  int(r.Int("longest_streak_days")),
			VoteCount:          int(r.Int("vote_count")),
			ProposalCount:      int(r.Int("proposal_count")),
			ShareCount:         int(r.Int("share_count")),
			CorrectionCount:    int(r.Int("correction_count")),
			WorksReadCount:     int(r.Int("works_read_count")),
		},
		Version:   r.Int("version"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}
}

func (a *RemoteAdapter) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	rows, err := a.client.Get(ctx, "profiles", remote.Filter{"id": id}, remote.Query{Limit: 1})
	if err != nil {
		return models.Profile{}, mapErr(err)
	}
	if len(rows) == 0 {
		return models.Profile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return profileFromRow(rows[0]), nil
}

func (a *RemoteAdapter) CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	ts := a.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = ts
	}
	row := statsRow(p.Stats)
	row["id"] = p.ID
	row["email"] = p.Email
	row["name"] = p.Name
	row["surname"] = p.Surname
	row["bio"] = p.Bio
	row["newsletter"] = p.Newsletter
	row["public"] = p.Public
	row["member_number"] = p.MemberNumber
	row["version"] = int64(1)
	row["created_at"] = p.CreatedAt
	row["updated_at"] = ts

	stored, err := a.client.Insert(ctx, "profiles", row)
	if err != nil {
		return models.Profile{}, mapErr(err)
	}
	return profileFromRow(stored), nil
}

// UpdateProfile writes only the columns the patch touches. The write is
// conditioned on the version that was read, so a concurrent writer turns it
// into ErrConflict instead of a lost update.
func (a *RemoteAdapter) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (models.Profile, error) {
	current, err := a.GetProfile(ctx, id)
	if err != nil {
		return models.Profile{}, err
	}
	if patch.ExpectedVersion != 0 && patch.ExpectedVersion != current.Version {
		return models.Profile{}, fmt.Errorf("profile %s at version %d, expected %d: %w",
			id, current.Version, patch.ExpectedVersion, ErrConflict)
	}

	updated := patch.Apply(current)
	updated.Version = current.Version + 1
	updated.UpdatedAt = a.now()

	row := remote.Row{"version": updated.Version, "updated_at": updated.UpdatedAt}
	if patch.Stats != nil {
		for k, v := range statsRow(updated.Stats) {
			row[k] = v
		}
	}
	if patch.Name != nil {
		row["name"] = updated.Name
	}
	if patch.Surname != nil {
		row["surname"] = updated.Surname
	}
	if patch.Bio != nil {
		row["bio"] = updated.Bio
	}
	if patch.Newsletter != nil {
		row["newsletter"] = updated.Newsletter
	}
	if patch.Public != nil {
		row["public"] = updated.Public
	}

	n, err := a.client.Update(ctx, "profiles", row, remote.Filter{"id": id, "version": current.Version})
	if err != nil {
		return models.Profile{}, mapErr(err)
	}
	if n == 0 {
		return models.Profile{}, fmt.Errorf("profile %s changed concurrently: %w", id, ErrConflict)
	}
	return updated, nil
}

func contributionFromRow(r remote.Row) models.Contribution {
	return models.Contribution{
		ID:        r.String("id"),
		ProfileID: r.String("profile_id"),
		WorkID:    r.String("work_id"),
		WorkTitle: r.String("work_title"),
		Amount:    models.Money(r.Int("amount")),
		Kind:      r.String("kind"),
		CreatedAt: r.Time("created_at"),
	}
}

func (a *RemoteAdapter) ListContributions(ctx context.Context, profileID string) ([]models.Contribution, error) {
	rows, err := a.client.Get(ctx, "contributions", remote.Filter{"profile_id": profileID}, remote.Query{OrderBy: "created_at"})
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]models.Contribution, len(rows))
	for i, r := range rows {
		out[i] = contributionFromRow(r)
	}
	return out, nil
}

func (a *RemoteAdapter) AddContribution(ctx context.Context, profileID string, c models.Contribution) (models.Contribution, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = a.now()
	}
	row, err := a.client.Insert(ctx, "contributions", remote.Row{
		"id":         c.ID,
		"profile_id": profileID,
		"work_id":    c.WorkID,
		"work_title": c.WorkTitle,
		"amount":     int64(c.Amount),
		"kind":       c.Kind,
		"created_at": c.CreatedAt,
	})
	if err != nil {
		return models.Contribution{}, mapErr(err)
	}
	return contributionFromRow(row), nil
}

func (a *RemoteAdapter) ListBadges(ctx context.Context, profileID string) ([]models.EarnedBadge, error) {
	rows, err := a.client.Get(ctx, "earned_badges", remote.Filter{"profile_id": profileID}, remote.Query{OrderBy: "earned_at"})
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]models.EarnedBadge, len(rows))
	for i, r := range rows {
		out[i] = models.EarnedBadge{
			ProfileID: r.String("profile_id"),
			BadgeID:   r.String("badge_id"),
			EarnedAt:  r.Time("earned_at"),
		}
	}
	return out, nil
}

func (a *RemoteAdapter) AddBadge(ctx context.Context, profileID, badgeID string) error {
	_, err := a.client.Insert(ctx, "earned_badges", remote.Row{
		"profile_id": profileID,
		"badge_id":   badgeID,
		"earned_at":  a.now(),
	})
	return mapErr(err)
}

func (a *RemoteAdapter) ListFavorites(ctx context.Context, profileID string) ([]models.Favorite, error) {
	rows, err := a.client.Get(ctx, "favorites", remote.Filter{"profile_id": profileID}, remote.Query{OrderBy: "added_at"})
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]models.Favorite, len(rows))
	for i, r := range rows {
		out[i] = models.Favorite{
			ProfileID:  r.String("profile_id"),
			WorkID:     r.String("work_id"),
			WorkTitle:  r.String("work_title"),
			WorkAuthor: r.String("work_author"),
			AddedAt:    r.Time("added_at"),
		}
	}
	return out, nil
}

func (a *RemoteAdapter) AddFavorite(ctx context.Context, profileID string, f models.Favorite) error {
	if f.AddedAt.IsZero() {
		f.AddedAt = a.now()
	}
	_, err := a.client.Insert(ctx, "favorites", remote.Row{
		"profile_id":  profileID,
		"work_id":     f.WorkID,
		"work_title":  f.WorkTitle,
		"work_author": f.WorkAuthor,
		"added_at":    f.AddedAt,
	})
	return mapErr(err)
}

func (a *RemoteAdapter) RemoveFavorite(ctx context.Context, profileID, workID string) error {
	n, err := a.client.Delete(ctx, "favorites", remote.Filter{"profile_id": profileID, "work_id": workID})
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return fmt.Errorf("favorite %s: %w", workID, ErrNotFound)
	}
	return nil
}

func cartItemFromRow(r remote.Row) models.CartItem {
	return models.CartItem{
		ID:         r.String("id"),
		ProfileID:  r.String("profile_id"),
		WorkID:     r.String("work_id"),
		WorkTitle:  r.String("work_title"),
		WorkAuthor: r.String("work_author"),
		Amount:     models.Money(r.Int("amount")),
		Kind:       r.String("kind"),
		AddedAt:    r.Time("added_at"),
	}
}

func (a *RemoteAdapter) ListCart(ctx context.Context, profileID string) ([]models.CartItem, error) {
	rows, err := a.client.Get(ctx, "cart_items", remote.Filter{"profile_id": profileID}, remote.Query{OrderBy: "added_at"})
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]models.CartItem, len(rows))
	for i, r := range rows {
		out[i] = cartItemFromRow(r)
	}
	return out, nil
}

// PutCartItem adds item or replaces the pledge already held for the same work.
func (a *RemoteAdapter) PutCartItem(ctx context.Context, profileID string, item models.CartItem) (models.CartItem, error) {
	rows, err := a.client.Get(ctx, "cart_items", remote.Filter{"profile_id": profileID, "work_id": item.WorkID}, remote.Query{Limit: 1})
	if err != nil {
		return models.CartItem{}, mapErr(err)
	}
	item.ProfileID = profileID

	if len(rows) > 0 {
		existing := cartItemFromRow(rows[0])
		_, err := a.client.Update(ctx, "cart_items", remote.Row{
			"work_title":  item.WorkTitle,
			"work_author": item.WorkAuthor,
			"amount":      int64(item.Amount),
			"kind":        item.Kind,
		}, remote.Filter{"id": existing.ID})
		if err != nil {
			return models.CartItem{}, mapErr(err)
		}
		item.ID = existing.ID
		item.AddedAt = existing.AddedAt
		return item, nil
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = a.now()
	}
	row, err := a.client.Insert(ctx, "cart_items", remote.Row{
		"id":          item.ID,
		"profile_id":  profileID,
		"work_id":     item.WorkID,
		"work_title":  item.WorkTitle,
		"work_author": item.WorkAuthor,
		"amount":      int64(item.Amount),
		"kind":        item.Kind,
		"added_at":    item.AddedAt,
	})
	if err != nil {
		return models.CartItem{}, mapErr(err)
	}
	return cartItemFromRow(row), nil
}

func (a *RemoteAdapter) RemoveCartItem(ctx context.Context, profileID, itemID string) error {
	n, err := a.client.Delete(ctx, "cart_items", remote.Filter{"profile_id": profileID, "id": itemID})
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
	}
	return nil
}

func (a *RemoteAdapter) ClearCart(ctx context.Context, profileID string) error {
	_, err := a.client.Delete(ctx, "cart_items", remote.Filter{"profile_id": profileID})
	return mapErr(err)
}

// Ranking lists public profiles ordered by points.
func (a *RemoteAdapter) Ranking(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	rows, err := a.client.Get(ctx, "profiles", remote.Filter{"public": true},
		remote.Query{OrderBy: "points_total", Desc: true, Limit: limit})
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]models.RankingEntry, len(rows))
	for i, r := range rows {
		p := profileFromRow(r)
		out[i] = models.RankingEntry{
			Position:    i + 1,
			ProfileID:   p.ID,
			Name:        p.Name,
			Title:       p.Title,
			PointsTotal: p.PointsTotal,
			Level:       p.Level,
		}
	}
	return out, nil
}
