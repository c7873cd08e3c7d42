// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/polTorrent/biblioteca-universal-arion/handlers"
	"github.com/polTorrent/biblioteca-universal-arion/ledger"
	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/testutil"
)

func localRouter(t *testing.T) (*http.ServeMux, *testutil.Env) {
	t.Helper()
	env := testutil.SetupLocal(t)
	return NewRouter(Services{Processor: env.Processor, Device: env.Device}), env
}

func remoteRouter(t *testing.T) (*http.ServeMux, *testutil.Env) {
	t.Helper()
	env := testutil.SetupRemote(t)
	return NewRouter(Services{Processor: env.Processor, Accounts: env.Accounts, Device: env.Device}), env
}

func serve(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := localRouter(t)

	w := serve(mux, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := localRouter(t)

	w := serve(mux, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "arion loyalty API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := localRouter(t)

	// Route should be matched; 400 and 404 are valid handler answers here
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/levels"},
		{"GET", "/badges"},
		{"GET", "/ranking"},
		{"POST", "/profiles"},
		{"GET", "/profiles/test-id"},
		{"PATCH", "/profiles/test-id"},
		{"GET", "/profiles/test-id/contributions"},
		{"POST", "/profiles/test-id/contributions"},
		{"GET", "/profiles/test-id/badges"},
		{"POST", "/profiles/test-id/activities"},
		{"POST", "/profiles/test-id/reconcile"},
		{"GET", "/profiles/test-id/favorites"},
		{"POST", "/profiles/test-id/favorites"},
		{"DELETE", "/profiles/test-id/favorites/work"},
		{"GET", "/profiles/test-id/cart"},
		{"POST", "/profiles/test-id/cart"},
		{"DELETE", "/profiles/test-id/cart/item"},
		{"POST", "/profiles/test-id/cart/checkout"},
		{"POST", "/auth/signup"},
		{"POST", "/auth/signin"},
		{"POST", "/auth/signout"},
		{"GET", "/auth/session"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := serve(mux, httptest.NewRequest(tc.method, tc.path, nil))

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := localRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},                       // Only GET is defined
		{"PUT", "/profiles/test-id"},              // GET and PATCH only
		{"DELETE", "/profiles/test-id/reconcile"}, // Only POST is defined
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := serve(mux, httptest.NewRequest(tc.method, tc.path, nil))

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

// TestLocalWorkflow drives a local-only device through the API:
// register, contribute, check the overview, fill and check out the cart.
func TestLocalWorkflow(t *testing.T) {
	mux, _ := localRouter(t)

	w := serve(mux, testutil.MakeRequest("POST", "/profiles", models.RegisterRequest{Email: "anna@example.org", Name: "Anna"}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var p models.Profile
	testutil.AssertJSON(t, w, &p)

	base := "/profiles/" + p.ID

	w = serve(mux, testutil.MakeRequest("POST", base+"/contributions", models.RecordContributionRequest{WorkID: "odissea", Amount: 5}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = serve(mux, testutil.MakeRequest("POST", base+"/cart", models.PutCartItemRequest{WorkID: "eneida", Amount: 10}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(mux, testutil.MakeRequest("POST", base+"/cart/checkout", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var checkout ledger.CheckoutResult
	testutil.AssertJSON(t, w, &checkout)
	if checkout.PointsGained != 100 {
		t.Errorf("Expected 100 points from checkout, got %d", checkout.PointsGained)
	}

	w = serve(mux, testutil.MakeRequest("GET", base, nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var overview handlers.ProfileOverview
	testutil.AssertJSON(t, w, &overview)

	// 50 + 25 + 100
	if overview.Profile.PointsTotal != 175 || overview.Profile.Level != 3 {
		t.Errorf("Unexpected profile after workflow: %+v", overview.Profile.Stats)
	}
	if len(overview.Contributions) != 2 {
		t.Errorf("Expected 2 recent contributions, got %d", len(overview.Contributions))
	}

	w = serve(mux, testutil.MakeRequest("GET", "/auth/session", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}

// TestRemoteRequiresOwnerToken checks that profile routes only answer the
// profile's own session once accounts exist.
func TestRemoteRequiresOwnerToken(t *testing.T) {
	mux, _ := remoteRouter(t)

	w := serve(mux, testutil.MakeRequest("POST", "/profiles", models.RegisterRequest{Email: "x@example.org", Name: "X"}, nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected local registration to be unavailable, got %d", w.Code)
	}

	signUp := func(email string) models.SessionResponse {
		t.Helper()
		w := serve(mux, testutil.MakeRequest("POST", "/auth/signup", models.SignUpRequest{Email: email, Password: "correct horse", Name: "Test"}, nil))
		testutil.AssertStatus(t, w, http.StatusCreated)
		var sess models.SessionResponse
		testutil.AssertJSON(t, w, &sess)
		return sess
	}
	anna := signUp("anna@example.org")
	joan := signUp("joan@example.org")

	base := "/profiles/" + anna.ProfileID

	w = serve(mux, testutil.MakeRequest("GET", base, nil, nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = serve(mux, testutil.MakeRequest("GET", base, nil, testutil.BearerHeader(joan.Token)))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = serve(mux, testutil.MakeRequest("POST", base+"/contributions", models.RecordContributionRequest{WorkID: "odissea", Amount: 12}, testutil.BearerHeader(anna.Token)))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = serve(mux, testutil.MakeRequest("GET", base, nil, testutil.BearerHeader(anna.Token)))
	testutil.AssertStatus(t, w, http.StatusOK)
	var overview handlers.ProfileOverview
	testutil.AssertJSON(t, w, &overview)
	if overview.Profile.PointsTotal != 145 || overview.Profile.MemberNumber != 1 {
		t.Errorf("Unexpected remote profile: %+v", overview.Profile)
	}

	w = serve(mux, testutil.MakeRequest("GET", "/ranking", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var ranking []models.RankingEntry
	testutil.AssertJSON(t, w, &ranking)
	if len(ranking) != 2 || ranking[0].ProfileID != anna.ProfileID {
		t.Errorf("Unexpected ranking: %+v", ranking)
	}
}
