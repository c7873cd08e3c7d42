// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package migration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/polTorrent/biblioteca-universal-arion/db"
	"github.com/polTorrent/biblioteca-universal-arion/ledger"
	"github.com/polTorrent/biblioteca-universal-arion/local"
	"github.com/polTorrent/biblioteca-universal-arion/loyalty"
	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/remote"
	"github.com/polTorrent/biblioteca-universal-arion/store"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name       string
		state      State
		in         Input
		wantState  State
		wantAction Action
	}{
		{"sign-in with matching local profile", NotMigrated, Input{Event: SignedIn, LocalProfile: true, EmailMatches: true}, NotMigrated, RunMigration},
		{"sign-in with other email", NotMigrated, Input{Event: SignedIn, LocalProfile: true}, NotMigrated, NoAction},
		{"sign-in without local profile", NotMigrated, Input{Event: SignedIn}, NotMigrated, NoAction},
		{"run completed", NotMigrated, Input{Event: Completed}, Migrated, PersistFlag},
		{"run failed", NotMigrated, Input{Event: Failed}, NotMigrated, NoAction},
		{"sign-out", NotMigrated, Input{Event: SignedOut}, NotMigrated, NoAction},
		{"already migrated", Migrated, Input{Event: SignedIn, LocalProfile: true, EmailMatches: true}, Migrated, NoAction},
		{"already migrated completion", Migrated, Input{Event: Completed}, Migrated, NoAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, action := Transition(tt.state, tt.in)
			if state != tt.wantState || action != tt.wantAction {
				t.Errorf("Transition = (%v, %v), want (%v, %v)", state, action, tt.wantState, tt.wantAction)
			}
		})
	}
}

// writeCounter counts remote writes and can fail the nth contribution insert.
type writeCounter struct {
	store.Adapter
	writes         int
	contributions  int
	failOnInsertNo int
}

func (w *writeCounter) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (models.Profile, error) {
	w.writes++
	return w.Adapter.UpdateProfile(ctx, id, patch)
}

func (w *writeCounter) AddContribution(ctx context.Context, profileID string, c models.Contribution) (models.Contribution, error) {
	w.writes++
	w.contributions++
	if w.failOnInsertNo != 0 && w.contributions == w.failOnInsertNo {
		return models.Contribution{}, store.ErrStoreUnavailable
	}
	return w.Adapter.AddContribution(ctx, profileID, c)
}

func (w *writeCounter) AddBadge(ctx context.Context, profileID, badgeID string) error {
	w.writes++
	return w.Adapter.AddBadge(ctx, profileID, badgeID)
}

func (w *writeCounter) AddFavorite(ctx context.Context, profileID string, f models.Favorite) error {
	w.writes++
	return w.Adapter.AddFavorite(ctx, profileID, f)
}

type fixture struct {
	kv          *local.MemoryKV
	localProc   *ledger.Processor
	localID     string
	remote      *store.ProfileStore
	remoteProc  *ledger.Processor
	remoteID    string
	counter     *writeCounter
	coordinator *Coordinator
}

func setup(t *testing.T, localEmail string) *fixture {
	t.Helper()
	ctx := context.Background()
	engine := loyalty.NewEngine(loyalty.DefaultCatalog())
	f := &fixture{kv: local.NewMemoryKV()}

	localAdapter := store.NewLocalAdapter(f.kv)
	f.localProc = ledger.NewProcessor(store.New(localAdapter), engine, nil)

	client, err := remote.Open(ctx, remote.DriverSQLite, filepath.Join(t.TempDir(), "remote.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })
	if err := db.CreateSchema(client.DB()); err != nil {
		t.Fatal(err)
	}
	f.counter = &writeCounter{Adapter: store.NewRemoteAdapter(client)}
	f.remote = store.New(f.counter)
	f.remoteProc = ledger.NewProcessor(f.remote, engine, nil)

	rp, err := f.remoteProc.Register(ctx, models.Profile{Email: "anna@example.org", Name: "anna"})
	if err != nil {
		t.Fatal(err)
	}
	f.remoteID = rp.ID

	if localEmail != "" {
		lp, err := f.localProc.Register(ctx, models.Profile{Email: localEmail, Name: "Anna", Surname: "Puig", Bio: "Lectora", Newsletter: true})
		if err != nil {
			t.Fatal(err)
		}
		f.localID = lp.ID
	}

	f.coordinator = NewCoordinator(f.kv, localAdapter, f.localProc.Store(), f.remote, f.remoteProc)
	f.counter.writes = 0
	return f
}

func (f *fixture) seedLocalHistory(t *testing.T) []models.Contribution {
	t.Helper()
	ctx := context.Background()
	for _, req := range []models.RecordContributionRequest{
		{WorkID: "w1", WorkTitle: "Odissea", Amount: 5},
		{WorkID: "w2", WorkTitle: "Ilíada", Amount: 12.5, Kind: models.KindIndividual},
	} {
		if _, err := f.localProc.RecordContribution(ctx, f.localID, req); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := f.localProc.RecordActivity(ctx, f.localID, models.ActivityVote); err != nil {
		t.Fatal(err)
	}
	if err := f.localProc.Store().AddFavorite(ctx, f.localID, models.Favorite{WorkID: "w3", WorkTitle: "Eneida"}); err != nil {
		t.Fatal(err)
	}
	history, err := f.localProc.Store().ListContributions(ctx, f.localID)
	if err != nil {
		t.Fatal(err)
	}
	return history
}

func TestSignInMigratesLocalHistory(t *testing.T) {
	f := setup(t, "Anna@example.org")
	history := f.seedLocalHistory(t)
	ctx := context.Background()

	report, err := f.coordinator.HandleSignIn(ctx, f.remoteID, "anna@example.org")
	if err != nil {
		t.Fatalf("HandleSignIn: %v", err)
	}
	if report.Skipped || report.Contributions != 2 || report.Favorites != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if f.coordinator.State() != Migrated {
		t.Error("expected flag set")
	}

	copied, err := f.remote.ListContributions(ctx, f.remoteID)
	if err != nil {
		t.Fatal(err)
	}
	if len(copied) != 2 {
		t.Fatalf("expected 2 remote contributions, got %d", len(copied))
	}
	for i, c := range copied {
		if c.ID != history[i].ID || !c.CreatedAt.Equal(history[i].CreatedAt) || c.ProfileID != f.remoteID {
			t.Errorf("contribution %d not preserved: %+v vs %+v", i, c, history[i])
		}
	}

	p, err := f.remote.GetProfile(ctx, f.remoteID)
	if err != nil {
		t.Fatal(err)
	}
	// 50 + 125 + 25 bonus + 2 for the vote
	if p.PointsTotal != 202 || p.Level != 3 || p.VoteCount != 1 {
		t.Errorf("unexpected remote aggregates: %+v", p.Stats)
	}
	if p.Name != "Anna" || p.Surname != "Puig" || p.Bio != "Lectora" || !p.Newsletter {
		t.Errorf("display fields not copied: %+v", p)
	}
	for _, id := range []string{"primera-gota", "mecenes-bronze", "patrocinador-exclusiu"} {
		if !p.HasBadge(id) {
			t.Errorf("expected remote badge %s", id)
		}
	}
}

func TestSecondSignInPerformsNoRemoteWrites(t *testing.T) {
	f := setup(t, "anna@example.org")
	f.seedLocalHistory(t)
	ctx := context.Background()

	if _, err := f.coordinator.HandleSignIn(ctx, f.remoteID, "anna@example.org"); err != nil {
		t.Fatal(err)
	}
	f.counter.writes = 0

	report, err := f.coordinator.HandleSignIn(ctx, f.remoteID, "anna@example.org")
	if err != nil {
		t.Fatal(err)
	}
	if !report.Skipped {
		t.Error("expected skip once migrated")
	}
	if f.counter.writes != 0 {
		t.Errorf("expected zero remote writes, got %d", f.counter.writes)
	}
}

func TestSignInSkips(t *testing.T) {
	tests := []struct {
		name       string
		localEmail string
		reason     string
	}{
		{"no local profile", "", "no local profile"},
		{"different account", "someone@example.org", "email mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, tt.localEmail)
			report, err := f.coordinator.HandleSignIn(context.Background(), f.remoteID, "anna@example.org")
			if err != nil {
				t.Fatal(err)
			}
			if !report.Skipped || report.Reason != tt.reason {
				t.Errorf("unexpected report: %+v", report)
			}
			if f.coordinator.State() != NotMigrated {
				t.Error("flag must stay unset")
			}
			if f.counter.writes != 0 {
				t.Errorf("expected no remote writes, got %d", f.counter.writes)
			}
		})
	}
}

func TestInterruptedMigrationRetriesWithoutDuplicates(t *testing.T) {
	f := setup(t, "anna@example.org")
	f.seedLocalHistory(t)
	ctx := context.Background()

	f.counter.failOnInsertNo = 2
	_, err := f.coordinator.HandleSignIn(ctx, f.remoteID, "anna@example.org")
	if !errors.Is(err, ErrMigrationIncomplete) {
		t.Fatalf("expected ErrMigrationIncomplete, got %v", err)
	}
	if f.coordinator.State() != NotMigrated {
		t.Fatal("flag must not be set after a partial run")
	}

	f.counter.failOnInsertNo = 0
	report, err := f.coordinator.HandleSignIn(ctx, f.remoteID, "anna@example.org")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if report.Contributions != 1 || report.AlreadyThere != 1 {
		t.Errorf("expected one new and one existing row, got %+v", report)
	}

	copied, _ := f.remote.ListContributions(ctx, f.remoteID)
	if len(copied) != 2 {
		t.Errorf("expected 2 remote contributions, got %d", len(copied))
	}
	p, _ := f.remote.GetProfile(ctx, f.remoteID)
	if p.PointsTotal != 202 {
		t.Errorf("points double counted: %d", p.PointsTotal)
	}
}

func TestMigrationKeepsPledgesWithReusedIDs(t *testing.T) {
	f := setup(t, "anna@example.org")
	ctx := context.Background()

	if _, err := f.localProc.RecordContribution(ctx, f.localID, models.RecordContributionRequest{ID: "c1", WorkID: "w1", Amount: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.remoteProc.RecordContribution(ctx, f.remoteID, models.RecordContributionRequest{ID: "c1", WorkID: "w9", Amount: 10}); err != nil {
		t.Fatal(err)
	}

	report, err := f.coordinator.HandleSignIn(ctx, f.remoteID, "anna@example.org")
	if err != nil {
		t.Fatalf("HandleSignIn: %v", err)
	}
	if report.Contributions != 1 || report.AlreadyThere != 0 {
		t.Errorf("expected the local pledge to be copied, got %+v", report)
	}

	copied, err := f.remote.ListContributions(ctx, f.remoteID)
	if err != nil {
		t.Fatal(err)
	}
	works := map[string]string{}
	for _, c := range copied {
		works[c.ID] = c.WorkID
	}
	if len(copied) != 2 || works["c1"] != "w9" || works[f.localID+":c1"] != "w1" {
		t.Errorf("unexpected remote history: %+v", copied)
	}
	p, _ := f.remote.GetProfile(ctx, f.remoteID)
	// 100 + 50 + 25 bonus
	if p.PointsTotal != 175 {
		t.Errorf("expected 175 points, got %d", p.PointsTotal)
	}

	// a rerun recognises the copy under its derived id
	f.kv.Delete(FlagKey)
	report, err = f.coordinator.HandleSignIn(ctx, f.remoteID, "anna@example.org")
	if err != nil {
		t.Fatal(err)
	}
	if report.Contributions != 0 || report.AlreadyThere != 1 {
		t.Errorf("expected nothing new on rerun, got %+v", report)
	}
	if copied, _ := f.remote.ListContributions(ctx, f.remoteID); len(copied) != 2 {
		t.Errorf("rerun duplicated history: %d rows", len(copied))
	}
}
