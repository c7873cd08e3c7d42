// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/polTorrent/biblioteca-universal-arion/ledger"
	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/testutil"
)

// TestConcurrentContributions verifies that simultaneous pledges to one
// profile are all kept and that no aggregate update is lost
func TestConcurrentContributions(t *testing.T) {
	env := testutil.SetupLocal(t)
	handler := NewProfileHandler(env.Processor)
	p := testutil.CreateTestProfile(t, env.Processor, "anna@example.org")

	const numPledges = 10
	var stored atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numPledges; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			req := models.RecordContributionRequest{
				ID:     fmt.Sprintf("pledge-%d", i),
				WorkID: fmt.Sprintf("work-%d", i%3),
				Amount: 2,
			}
			w := call(handler.RecordContribution, testutil.MakeRequest("POST", "/", req, nil), "id", p.ID)

			// a partial failure still leaves the pledge stored
			if w.Code == http.StatusCreated || w.Code == http.StatusInternalServerError {
				stored.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if int(stored.Load()) != numPledges {
		t.Fatalf("Expected %d stored pledges, got %d", numPledges, stored.Load())
	}

	w := call(handler.Reconcile, testutil.MakeRequest("POST", "/", nil, nil), "id", p.ID)
	testutil.AssertStatus(t, w, http.StatusOK)
	var res ledger.Result
	testutil.AssertJSON(t, w, &res)

	if res.Profile.ContributionCount != numPledges {
		t.Errorf("Expected %d contributions, got %d", numPledges, res.Profile.ContributionCount)
	}
	if res.Profile.PointsTotal != numPledges*20+25 {
		t.Errorf("Expected %d points, got %d", numPledges*20+25, res.Profile.PointsTotal)
	}
	if res.Profile.DistinctWorksCount != 3 {
		t.Errorf("Expected 3 distinct works, got %d", res.Profile.DistinctWorksCount)
	}
}

// TestConcurrentFavorites verifies that racing adds of the same work leave
// a single favorite
func TestConcurrentFavorites(t *testing.T) {
	env := testutil.SetupLocal(t)
	handler := NewCollectionHandler(env.Processor)
	p := testutil.CreateTestProfile(t, env.Processor, "anna@example.org")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := call(handler.AddFavorite, testutil.MakeRequest("POST", "/", models.AddFavoriteRequest{WorkID: "eneida"}, nil), "id", p.ID)
			if w.Code != http.StatusNoContent {
				t.Errorf("Expected 204, got %d", w.Code)
			}
		}()
	}
	wg.Wait()

	favs, err := env.Processor.Store().ListFavorites(t.Context(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(favs) != 1 {
		t.Errorf("Expected 1 favorite, got %d", len(favs))
	}
}
