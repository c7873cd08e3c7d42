// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/polTorrent/biblioteca-universal-arion/ledger"
	"github.com/polTorrent/biblioteca-universal-arion/local"
	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/store"
)

// ErrMigrationIncomplete means a run stopped part way. The flag stays unset
// and the next remote sign-in retries from the start.
var ErrMigrationIncomplete = errors.New("migration incomplete")

// FlagKey is the device-local key holding the migration flag.
const FlagKey = "migration_done"

// LocalSource identifies the profile registered on this device.
type LocalSource interface {
	CurrentProfileID() (string, bool)
}

// Reconciler re-derives remote aggregates once history has been copied.
type Reconciler interface {
	Reconcile(ctx context.Context, profileID string) (ledger.Result, error)
}

// Report describes what a run did.
type Report struct {
	Skipped       bool   `json:"skipped"`
	Reason        string `json:"reason,omitempty"`
	Contributions int    `json:"contributions"`
	AlreadyThere  int    `json:"already_there"`
	Favorites     int    `json:"favorites"`
}

// Coordinator copies a device's local history into the remote store once.
type Coordinator struct {
	kv         local.KV
	source     LocalSource
	local      *store.ProfileStore
	remote     *store.ProfileStore
	reconciler Reconciler

	// one run at a time
	mu sync.Mutex
}

func NewCoordinator(kv local.KV, source LocalSource, localStore, remoteStore *store.ProfileStore, reconciler Reconciler) *Coordinator {
	return &Coordinator{
		kv:         kv,
		source:     source,
		local:      localStore,
		remote:     remoteStore,
		reconciler: reconciler,
	}
}

// State reads the persisted flag.
func (c *Coordinator) State() State {
	if v, ok := c.kv.Get(FlagKey); ok && v == "true" {
		return Migrated
	}
	return NotMigrated
}

// HandleSignIn runs the migration if this sign-in triggers it.
func (c *Coordinator) HandleSignIn(ctx context.Context, remoteProfileID, email string) (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.State()
	if state == Migrated {
		return Report{Skipped: true, Reason: "already migrated"}, nil
	}

	in := Input{Event: SignedIn}
	var localProfile models.Profile
	if id, ok := c.source.CurrentProfileID(); ok {
		p, err := c.local.GetProfile(ctx, id)
		switch {
		case err == nil:
			localProfile = p
			in.LocalProfile = true
			in.EmailMatches = strings.EqualFold(strings.TrimSpace(p.Email), strings.TrimSpace(email))
		case !errors.Is(err, store.ErrNotFound):
			return Report{}, fmt.Errorf("%w: read local profile: %w", ErrMigrationIncomplete, err)
		}
	}

	state, action := Transition(state, in)
	if action != RunMigration {
		reason := "no local profile"
		if in.LocalProfile {
			reason = "email mismatch"
		}
		slog.Info("migration skipped", "remote_profile_id", remoteProfileID, "reason", reason)
		return Report{Skipped: true, Reason: reason}, nil
	}

	report, err := c.run(ctx, localProfile, remoteProfileID)
	if err != nil {
		slog.Warn("migration incomplete, will retry on next sign-in",
			"local_profile_id", localProfile.ID,
			"remote_profile_id", remoteProfileID,
			"copied", report.Contributions,
			"error", err,
		)
		return report, fmt.Errorf("%w: %w", ErrMigrationIncomplete, err)
	}

	if _, action := Transition(state, Input{Event: Completed}); action == PersistFlag {
		c.kv.Set(FlagKey, "true")
	}
	slog.Info("migration completed",
		"local_profile_id", localProfile.ID,
		"remote_profile_id", remoteProfileID,
		"contributions", report.Contributions,
		"already_there", report.AlreadyThere,
	)
	return report, nil
}

func (c *Coordinator) run(ctx context.Context, lp models.Profile, remoteID string) (Report, error) {
	var report Report

	rp, err := c.remote.GetProfile(ctx, remoteID)
	if err != nil {
		return report, fmt.Errorf("read remote profile: %w", err)
	}
	if patch, ok := mergePatch(lp, rp); ok {
		if _, err := c.remote.UpdateProfile(ctx, remoteID, patch); err != nil {
			return report, fmt.Errorf("copy profile fields: %w", err)
		}
	}

	history, err := c.local.ListContributions(ctx, lp.ID)
	if err != nil {
		return report, fmt.Errorf("read local history: %w", err)
	}
	for _, contrib := range history {
		contrib.ProfileID = remoteID
		copied, err := c.copyContribution(ctx, lp.ID, remoteID, contrib)
		if err != nil {
			return report, fmt.Errorf("copy contribution %s: %w", contrib.ID, err)
		}
		if copied {
			report.Contributions++
		} else {
			report.AlreadyThere++
		}
	}

	favorites, err := c.local.ListFavorites(ctx, lp.ID)
	if err != nil {
		return report, fmt.Errorf("read local favorites: %w", err)
	}
	for _, f := range favorites {
		err := c.remote.AddFavorite(ctx, remoteID, f)
		if err != nil && !errors.Is(err, store.ErrDuplicateEntry) {
			return report, fmt.Errorf("copy favorite %s: %w", f.WorkID, err)
		}
		if err == nil {
			report.Favorites++
		}
	}

	if _, err := c.reconciler.Reconcile(ctx, remoteID); err != nil {
		return report, fmt.Errorf("reconcile remote profile: %w", err)
	}
	return report, nil
}

// copyContribution inserts contrib into the remote history. It reports false
// when the same pledge is already there. A remote pledge that reuses the id
// for something else keeps it, and the local one is copied under an id
// derived from the local profile so that a rerun finds it again.
func (c *Coordinator) copyContribution(ctx context.Context, localID, remoteID string, contrib models.Contribution) (bool, error) {
	for _, id := range []string{contrib.ID, localID + ":" + contrib.ID} {
		contrib.ID = id
		_, err := c.remote.AddContribution(ctx, remoteID, contrib)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, store.ErrDuplicateEntry) {
			return false, err
		}
		existing, found, err := c.findRemote(ctx, remoteID, id)
		if err != nil {
			return false, err
		}
		if !found {
			return false, fmt.Errorf("work %s already has a pledge at %s: %w", contrib.WorkID, contrib.CreatedAt, store.ErrDuplicateEntry)
		}
		if existing.SamePledge(contrib) {
			return false, nil
		}
	}
	return false, fmt.Errorf("ids taken by other pledges: %w", store.ErrDuplicateEntry)
}

func (c *Coordinator) findRemote(ctx context.Context, remoteID, id string) (models.Contribution, bool, error) {
	history, err := c.remote.ListContributions(ctx, remoteID)
	if err != nil {
		return models.Contribution{}, false, err
	}
	for _, existing := range history {
		if existing.ID == id {
			return existing, true, nil
		}
	}
	return models.Contribution{}, false, nil
}

// mergePatch copies non-empty display fields and carries local activity
// counters over by maximum, so a repeated run changes nothing.
func mergePatch(lp, rp models.Profile) (models.ProfilePatch, bool) {
	patch := models.ProfilePatch{ExpectedVersion: rp.Version}
	changed := false
	str := func(from, to string, dst **string) {
		if from != "" && from != to {
			v := from
			*dst = &v
			changed = true
		}
	}
	str(lp.Name, rp.Name, &patch.Name)
	str(lp.Surname, rp.Surname, &patch.Surname)
	str(lp.Bio, rp.Bio, &patch.Bio)
	if lp.Newsletter && !rp.Newsletter {
		v := true
		patch.Newsletter = &v
		changed = true
	}

	stats := rp.Stats
	counters := []struct {
		dst *int
		src int
	}{
		{&stats.VoteCount, lp.VoteCount},
		{&stats.ProposalCount, lp.ProposalCount},
		{&stats.ShareCount, lp.ShareCount},
		{&stats.CorrectionCount, lp.CorrectionCount},
		{&stats.WorksReadCount, lp.WorksReadCount},
	}
	for _, ctr := range counters {
		if ctr.src > *ctr.dst {
			*ctr.dst = ctr.src
			changed = true
		}
	}
	if stats != rp.Stats {
		patch.Stats = &stats
	}
	return patch, changed
}
