// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polTorrent/biblioteca-universal-arion/events"
	"github.com/polTorrent/biblioteca-universal-arion/loyalty"
	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/store"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrPartialFailure means the contribution is durable but the profile
	// aggregates were not updated. Reconcile repairs it.
	ErrPartialFailure = errors.New("contribution recorded, profile not updated")
)

// maxAttempts bounds the re-read and re-derive loop on version conflicts.
const maxAttempts = 5

// Processor records contributions and activities against one ProfileStore.
type Processor struct {
	store  *store.ProfileStore
	engine *loyalty.Engine
	bus    *events.Bus
	now    func() time.Time
}

func NewProcessor(s *store.ProfileStore, engine *loyalty.Engine, bus *events.Bus) *Processor {
	return &Processor{
		store:  s,
		engine: engine,
		bus:    bus,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (p *Processor) Store() *store.ProfileStore {
	return p.store
}

func (p *Processor) Engine() *loyalty.Engine {
	return p.engine
}

// Result is the outcome of a ledger operation.
type Result struct {
	Profile      models.Profile       `json:"profile"`
	Contribution *models.Contribution `json:"contribution,omitempty"`
	PointsGained int                  `json:"points_gained"`
	NewBadges    []loyalty.Badge      `json:"new_badges"`
	LevelChanged bool                 `json:"level_changed"`
	// Replayed is set when a contribution with the same id was already stored.
	Replayed bool `json:"replayed,omitempty"`
}

type pledge struct {
	ID        string
	WorkID    string
	WorkTitle string
	Amount    models.Money
	Kind      string
	// subCent marks an amount with fractions of a cent
	subCent bool
}

func newPledge(id, workID, workTitle string, euros float64, kind string) pledge {
	amount, exact := models.ExactEuros(euros)
	return pledge{
		ID:        strings.TrimSpace(id),
		WorkID:    workID,
		WorkTitle: strings.TrimSpace(workTitle),
		Amount:    amount,
		Kind:      kind,
		subCent:   !exact,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (pl *pledge) validate() error {
	pl.WorkID = strings.TrimSpace(pl.WorkID)
	if pl.WorkID == "" {
		return invalid("work_id is required")
	}
	if pl.Amount <= 0 {
		return invalid("amount must be positive, got %s", pl.Amount)
	}
	if pl.subCent {
		return invalid("amount must be a whole number of cents")
	}
	switch pl.Kind {
	case "":
		pl.Kind = models.KindCollective
	case models.KindIndividual, models.KindCollective:
	default:
		return invalid("unknown contribution kind %q", pl.Kind)
	}
	return nil
}

// Register creates a profile at level 1 in the active store.
func (p *Processor) Register(ctx context.Context, profile models.Profile) (models.Profile, error) {
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if _, err := mail.ParseAddress(profile.Email); err != nil {
		return models.Profile{}, invalid("invalid email %q", profile.Email)
	}
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.Name == "" {
		return models.Profile{}, invalid("name is required")
	}
	lvl := p.engine.LevelForPoints(profile.PointsTotal)
	profile.Level = lvl.Level
	profile.Title = lvl.Title

	created, err := p.store.CreateProfile(ctx, profile)
	if err != nil {
		return models.Profile{}, fmt.Errorf("register profile: %w", err)
	}
	p.bus.Publish(events.Event{Kind: events.ProfileChanged, Profile: created})
	return created, nil
}

// RecordContribution stores one pledge and updates the profile it belongs to.
// A non-empty req.ID is an idempotency key: retrying with the same id
// re-derives the profile without counting the pledge twice.
func (p *Processor) RecordContribution(ctx context.Context, profileID string, req models.RecordContributionRequest) (Result, error) {
	return p.record(ctx, profileID, newPledge(req.ID, req.WorkID, req.WorkTitle, req.Amount, req.Kind))
}

func (p *Processor) record(ctx context.Context, profileID string, pl pledge) (Result, error) {
	if err := pl.validate(); err != nil {
		return Result{}, err
	}
	// once the first write is issued the sequence runs to completion
	ctx = context.WithoutCancel(ctx)

	before, err := p.store.GetProfile(ctx, profileID)
	if err != nil {
		return Result{}, fmt.Errorf("load profile: %w", err)
	}

	isFirst := before.ContributionCount == 0
	gained := loyalty.PointsForContribution(pl.Amount, isFirst)

	id := pl.ID
	if id == "" {
		id = uuid.NewString()
	}
	want := models.Contribution{
		ID:        id,
		WorkID:    pl.WorkID,
		WorkTitle: pl.WorkTitle,
		Amount:    pl.Amount,
		Kind:      pl.Kind,
		CreatedAt: p.now(),
	}
	c, err := p.store.AddContribution(ctx, profileID, want)
	replayed := false
	switch {
	case err == nil:
	case errors.Is(err, store.ErrDuplicateEntry) && pl.ID != "":
		replayed, err = p.isReplay(ctx, profileID, want)
		if err != nil {
			return Result{}, fmt.Errorf("record contribution: %w", err)
		}
		if !replayed {
			return Result{}, fmt.Errorf("contribution %s already used for another pledge: %w", id, store.ErrDuplicateEntry)
		}
		gained = 0
	default:
		return Result{}, fmt.Errorf("record contribution: %w", err)
	}

	res, err := p.settle(ctx, profileID, before, nil)
	if !replayed {
		res.Contribution = &c
	}
	if err != nil {
		slog.Error("contribution stored but profile update failed",
			"profile_id", profileID, "contribution_id", id, "error", err)
		return res, fmt.Errorf("%w: %w", ErrPartialFailure, err)
	}
	res.PointsGained = gained
	res.Replayed = replayed

	slog.Info("contribution recorded",
		"profile_id", profileID,
		"work_id", pl.WorkID,
		"amount", pl.Amount.String(),
		"points_gained", gained,
		"replayed", replayed,
	)
	return res, nil
}

// isReplay reports whether the profile already holds c under the same id.
func (p *Processor) isReplay(ctx context.Context, profileID string, c models.Contribution) (bool, error) {
	history, err := p.store.ListContributions(ctx, profileID)
	if err != nil {
		return false, err
	}
	for _, existing := range history {
		if existing.ID == c.ID {
			return existing.SamePledge(c), nil
		}
	}
	return false, nil
}

// RecordActivity counts one community activity and awards its points.
func (p *Processor) RecordActivity(ctx context.Context, profileID, kind string) (Result, error) {
	award, ok := loyalty.PointsForActivity(kind)
	if !ok {
		return Result{}, invalid("unknown activity %q", kind)
	}
	ctx = context.WithoutCancel(ctx)

	before, err := p.store.GetProfile(ctx, profileID)
	if err != nil {
		return Result{}, fmt.Errorf("load profile: %w", err)
	}
	res, err := p.settle(ctx, profileID, before, func(s *models.Stats) {
		switch kind {
		case models.ActivityVote:
			s.VoteCount++
		case models.ActivityProposal:
			s.ProposalCount++
		case models.ActivityShare:
			s.ShareCount++
		case models.ActivityCorrection:
			s.CorrectionCount++
		case models.ActivityRead:
			s.WorksReadCount++
		}
	})
	if err != nil {
		return Result{}, fmt.Errorf("record activity: %w", err)
	}
	res.PointsGained = award
	return res, nil
}

// Reconcile re-derives the aggregates from stored history and re-runs the
// badge check. It is the recovery path after ErrPartialFailure and after
// migration.
func (p *Processor) Reconcile(ctx context.Context, profileID string) (Result, error) {
	ctx = context.WithoutCancel(ctx)
	before, err := p.store.GetProfile(ctx, profileID)
	if err != nil {
		return Result{}, fmt.Errorf("load profile: %w", err)
	}
	res, err := p.settle(ctx, profileID, before, nil)
	if err != nil {
		return Result{}, fmt.Errorf("reconcile: %w", err)
	}
	res.PointsGained = res.Profile.PointsTotal - before.PointsTotal
	return res, nil
}

// settle writes derived aggregates, awards badges and publishes events.
func (p *Processor) settle(ctx context.Context, profileID string, before models.Profile, mutate func(*models.Stats)) (Result, error) {
	profile, err := p.derive(ctx, profileID, mutate)
	if err != nil {
		return Result{Profile: before}, err
	}
	newBadges := p.awardBadges(ctx, &profile)

	res := Result{
		Profile:      profile,
		NewBadges:    newBadges,
		LevelChanged: profile.Level > before.Level,
	}
	p.publish(before, res)
	return res, nil
}

// derive recomputes the stats from full history and writes them with the
// version that was read, retrying on conflict.
func (p *Processor) derive(ctx context.Context, profileID string, mutate func(*models.Stats)) (models.Profile, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		cur, err := p.store.GetProfile(ctx, profileID)
		if err != nil {
			return models.Profile{}, err
		}
		history, err := p.store.ListContributions(ctx, profileID)
		if err != nil {
			return models.Profile{}, err
		}
		if mutate != nil {
			mutate(&cur.Stats)
		}
		stats := p.engine.Derive(cur, history)
		if mutate == nil && stats == cur.Stats {
			return cur, nil
		}

		updated, err := p.store.UpdateProfile(ctx, profileID, models.ProfilePatch{
			Stats:           &stats,
			ExpectedVersion: cur.Version,
		})
		if errors.Is(err, store.ErrConflict) {
			slog.Debug("profile version conflict, retrying", "profile_id", profileID, "attempt", attempt)
			lastErr = err
			continue
		}
		if err != nil {
			return models.Profile{}, err
		}
		updated.Badges = cur.Badges
		return updated, nil
	}
	return models.Profile{}, fmt.Errorf("gave up after %d attempts: %w", maxAttempts, lastErr)
}

// awardBadges persists every newly qualifying badge. A badge that is already
// stored counts as held; other write failures are logged and retried on the
// next evaluation.
func (p *Processor) awardBadges(ctx context.Context, profile *models.Profile) []loyalty.Badge {
	earned := []loyalty.Badge{}
	for _, b := range p.engine.BadgesEarned(*profile) {
		err := p.store.AddBadge(ctx, profile.ID, b.ID)
		switch {
		case err == nil:
			earned = append(earned, b)
			profile.Badges = append(profile.Badges, b.ID)
		case errors.Is(err, store.ErrDuplicateEntry):
			profile.Badges = append(profile.Badges, b.ID)
		default:
			slog.Warn("badge award failed", "profile_id", profile.ID, "badge_id", b.ID, "error", err)
		}
	}
	return earned
}

func (p *Processor) publish(before models.Profile, res Result) {
	p.bus.Publish(events.Event{Kind: events.ProfileChanged, Profile: res.Profile})
	for _, b := range res.NewBadges {
		p.bus.Publish(events.Event{Kind: events.BadgeEarned, Profile: res.Profile, Badge: b})
	}
	if res.LevelChanged {
		p.bus.Publish(events.Event{
			Kind:     events.LevelChanged,
			Profile:  res.Profile,
			OldLevel: before.Level,
			NewLevel: res.Profile.Level,
		})
	}
}
