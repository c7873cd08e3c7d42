// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/polTorrent/biblioteca-universal-arion/ledger"
	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/testutil"
)

// call runs a handler with the given path values, e.g. "id", "p1".
func call(h http.HandlerFunc, req *http.Request, pathValues ...string) *httptest.ResponseRecorder {
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestRegister(t *testing.T) {
	env := testutil.SetupLocal(t)
	handler := NewProfileHandler(env.Processor)

	testCases := []struct {
		name     string
		body     interface{}
		expected int
	}{
		{"valid", models.RegisterRequest{Email: "Anna@Example.org", Name: "Anna"}, http.StatusCreated},
		{"invalid email", models.RegisterRequest{Email: "not-an-email", Name: "Anna"}, http.StatusBadRequest},
		{"missing name", models.RegisterRequest{Email: "joan@example.org"}, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(handler.Register, testutil.MakeRequest("POST", "/profiles", tc.body, nil))
			testutil.AssertStatus(t, w, tc.expected)
		})
	}

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/profiles", nil)
		w := call(handler.Register, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("response starts at level one", func(t *testing.T) {
		w := call(handler.Register, testutil.MakeRequest("POST", "/profiles", models.RegisterRequest{Email: "marta@example.org", Name: "Marta"}, nil))
		testutil.AssertStatus(t, w, http.StatusCreated)

		var p models.Profile
		testutil.AssertJSON(t, w, &p)
		if p.ID == "" || p.Level != 1 || p.PointsTotal != 0 {
			t.Errorf("Unexpected new profile: %+v", p)
		}
		if p.Email != "marta@example.org" {
			t.Errorf("Expected normalized email, got '%s'", p.Email)
		}
	})
}

func TestGetProfileOverview(t *testing.T) {
	env := testutil.SetupLocal(t)
	handler := NewProfileHandler(env.Processor)
	p := testutil.CreateTestProfile(t, env.Processor, "anna@example.org")
	testutil.CreateTestContribution(t, env.Processor, p.ID, "odissea", 60)

	w := call(handler.GetProfile, testutil.MakeRequest("GET", "/profiles/"+p.ID, nil, nil), "id", p.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var overview ProfileOverview
	testutil.AssertJSON(t, w, &overview)

	if overview.Profile.PointsTotal != 625 {
		t.Errorf("Expected 625 points, got %d", overview.Profile.PointsTotal)
	}
	if overview.Progress.Current.Level != overview.Profile.Level {
		t.Errorf("Progress level %d does not match profile level %d", overview.Progress.Current.Level, overview.Profile.Level)
	}

	earned := map[string]bool{}
	for _, b := range overview.Badges {
		earned[b.ID] = true
		if b.EarnedAt.IsZero() {
			t.Errorf("Badge %s has no earned_at", b.ID)
		}
	}
	for _, id := range []string{"primera-gota", "mecenes-bronze", "mecenes-plata"} {
		if !earned[id] {
			t.Errorf("Expected badge %s, got %v", id, overview.Badges)
		}
	}

	var gold bool
	for _, bp := range overview.NextBadges {
		if earned[bp.BadgeID] {
			t.Errorf("Earned badge %s listed as next", bp.BadgeID)
		}
		if bp.BadgeID == "mecenes-or" {
			gold = true
			if bp.Actual != 60 || bp.Target != 100 || bp.Percentage != 60 {
				t.Errorf("Unexpected gold progress: %+v", bp)
			}
		}
	}
	if !gold {
		t.Error("Expected progress toward mecenes-or")
	}

	if len(overview.Contributions) != 1 || overview.Contributions[0].WorkID != "odissea" {
		t.Errorf("Unexpected recent contributions: %+v", overview.Contributions)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	env := testutil.SetupLocal(t)
	handler := NewProfileHandler(env.Processor)

	for _, h := range []http.HandlerFunc{handler.GetProfile, handler.ListContributions, handler.ListBadges, handler.Reconcile} {
		w := call(h, testutil.MakeRequest("GET", "/profiles/missing", nil, nil), "id", "missing")
		testutil.AssertStatus(t, w, http.StatusNotFound)
	}
}

func TestRecordContribution(t *testing.T) {
	env := testutil.SetupLocal(t)
	handler := NewProfileHandler(env.Processor)
	p := testutil.CreateTestProfile(t, env.Processor, "anna@example.org")

	req := models.RecordContributionRequest{ID: "c-1", WorkID: "eneida", WorkTitle: "Eneida", Amount: 5}

	w := call(handler.RecordContribution, testutil.MakeRequest("POST", "/", req, nil), "id", p.ID)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var first ledger.Result
	testutil.AssertJSON(t, w, &first)
	if first.PointsGained != 75 || !first.LevelChanged {
		t.Errorf("Unexpected first result: gained %d level changed %v", first.PointsGained, first.LevelChanged)
	}

	// Same id again is a replay
	w = call(handler.RecordContribution, testutil.MakeRequest("POST", "/", req, nil), "id", p.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var replay ledger.Result
	testutil.AssertJSON(t, w, &replay)
	if !replay.Replayed || replay.Profile.PointsTotal != 75 {
		t.Errorf("Unexpected replay result: %+v", replay)
	}

	t.Run("rejects non-positive amount", func(t *testing.T) {
		bad := models.RecordContributionRequest{WorkID: "eneida", Amount: -1}
		w := call(handler.RecordContribution, testutil.MakeRequest("POST", "/", bad, nil), "id", p.ID)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("rejects sub-cent amount", func(t *testing.T) {
		bad := models.RecordContributionRequest{WorkID: "eneida", Amount: 0.199}
		w := call(handler.RecordContribution, testutil.MakeRequest("POST", "/", bad, nil), "id", p.ID)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("same id for another pledge conflicts", func(t *testing.T) {
		other := req
		other.Amount = 50
		w := call(handler.RecordContribution, testutil.MakeRequest("POST", "/", other, nil), "id", p.ID)
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("oversized body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"work_id":"eneida","amount":5}`+strings.Repeat(" ", 2<<20)))
		w := call(handler.RecordContribution, r, "id", p.ID)
		testutil.AssertStatus(t, w, http.StatusRequestEntityTooLarge)
	})

	t.Run("unknown profile", func(t *testing.T) {
		w := call(handler.RecordContribution, testutil.MakeRequest("POST", "/", req, nil), "id", "missing")
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("history lists the contribution once", func(t *testing.T) {
		w := call(handler.ListContributions, testutil.MakeRequest("GET", "/", nil, nil), "id", p.ID)
		testutil.AssertStatus(t, w, http.StatusOK)

		var history []models.Contribution
		testutil.AssertJSON(t, w, &history)
		if len(history) != 1 || history[0].Amount != 500 {
			t.Errorf("Unexpected history: %+v", history)
		}
	})
}

func TestRecordActivity(t *testing.T) {
	env := testutil.SetupLocal(t)
	handler := NewProfileHandler(env.Processor)
	p := testutil.CreateTestProfile(t, env.Processor, "anna@example.org")

	testCases := []struct {
		kind     string
		expected int
		points   int
	}{
		{models.ActivityVote, http.StatusOK, 2},
		{models.ActivityProposal, http.StatusOK, 15},
		{"dance", http.StatusBadRequest, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.kind, func(t *testing.T) {
			w := call(handler.RecordActivity, testutil.MakeRequest("POST", "/", models.RecordActivityRequest{Kind: tc.kind}, nil), "id", p.ID)
			testutil.AssertStatus(t, w, tc.expected)
			if tc.expected != http.StatusOK {
				return
			}
			var res ledger.Result
			testutil.AssertJSON(t, w, &res)
			if res.PointsGained != tc.points {
				t.Errorf("Expected %d points, got %d", tc.points, res.PointsGained)
			}
		})
	}

	// proposador needs one proposal
	w := call(handler.ListBadges, testutil.MakeRequest("GET", "/", nil, nil), "id", p.ID)
	testutil.AssertStatus(t, w, http.StatusOK)
	var badges []EarnedBadgeView
	testutil.AssertJSON(t, w, &badges)
	if len(badges) != 1 || badges[0].ID != "proposador" {
		t.Errorf("Expected only proposador, got %+v", badges)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := testutil.SetupLocal(t)
	handler := NewProfileHandler(env.Processor)
	p := testutil.CreateTestProfile(t, env.Processor, "anna@example.org")

	body := map[string]interface{}{"bio": "Lectora", "public": false, "points_total": 5000}
	w := call(handler.UpdateProfile, testutil.MakeRequest("PATCH", "/", body, nil), "id", p.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var updated models.Profile
	testutil.AssertJSON(t, w, &updated)
	if updated.Bio != "Lectora" || updated.Public {
		t.Errorf("Patch not applied: %+v", updated)
	}
	if updated.PointsTotal != 0 {
		t.Errorf("Points must not be patchable, got %d", updated.PointsTotal)
	}

	w = call(handler.UpdateProfile, testutil.MakeRequest("PATCH", "/", map[string]string{"name": ""}, nil), "id", p.ID)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestReconcile(t *testing.T) {
	env := testutil.SetupLocal(t)
	handler := NewProfileHandler(env.Processor)
	p := testutil.CreateTestProfile(t, env.Processor, "anna@example.org")
	testutil.CreateTestContribution(t, env.Processor, p.ID, "odissea", 10)

	w := call(handler.Reconcile, testutil.MakeRequest("POST", "/", nil, nil), "id", p.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var res ledger.Result
	testutil.AssertJSON(t, w, &res)
	if res.PointsGained != 0 || res.Profile.PointsTotal != 125 {
		t.Errorf("Reconcile of a consistent profile changed it: %+v", res)
	}
}

func TestRanking(t *testing.T) {
	t.Run("local mode is empty", func(t *testing.T) {
		env := testutil.SetupLocal(t)
		handler := NewProfileHandler(env.Processor)
		testutil.CreateTestProfile(t, env.Processor, "anna@example.org")

		w := call(handler.Ranking, testutil.MakeRequest("GET", "/ranking", nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		if body := w.Body.String(); body != "[]\n" {
			t.Errorf("Expected empty array, got %q", body)
		}
	})

	t.Run("remote mode orders by points", func(t *testing.T) {
		env := testutil.SetupRemote(t)
		handler := NewProfileHandler(env.Processor)
		low := testutil.CreateTestProfile(t, env.Processor, "low@example.org")
		high := testutil.CreateTestProfile(t, env.Processor, "high@example.org")
		testutil.CreateTestContribution(t, env.Processor, low.ID, "odissea", 5)
		testutil.CreateTestContribution(t, env.Processor, high.ID, "odissea", 50)

		w := call(handler.Ranking, testutil.MakeRequest("GET", "/ranking?limit=1", nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)

		var entries []models.RankingEntry
		testutil.AssertJSON(t, w, &entries)
		if len(entries) != 1 || entries[0].ProfileID != high.ID || entries[0].Position != 1 {
			t.Errorf("Unexpected ranking: %+v", entries)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		env := testutil.SetupLocal(t)
		handler := NewProfileHandler(env.Processor)
		w := call(handler.Ranking, testutil.MakeRequest("GET", "/ranking?limit=zero", nil, nil))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}
