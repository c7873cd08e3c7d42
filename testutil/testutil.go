// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/polTorrent/biblioteca-universal-arion/auth"
	"github.com/polTorrent/biblioteca-universal-arion/db"
	"github.com/polTorrent/biblioteca-universal-arion/events"
	"github.com/polTorrent/biblioteca-universal-arion/ledger"
	"github.com/polTorrent/biblioteca-universal-arion/local"
	"github.com/polTorrent/biblioteca-universal-arion/loyalty"
	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/remote"
	"github.com/polTorrent/biblioteca-universal-arion/store"
)

// TestSessionSecret signs session tokens in tests
const TestSessionSecret = "test-session-secret-0123"

// Env is a wired set of components for handler tests.
type Env struct {
	Processor *ledger.Processor
	Device    *store.LocalAdapter
	Accounts  *auth.Manager // nil in local mode
	Remote    *remote.Client
}

// SetupLocal wires a local-only device backed by memory.
func SetupLocal(t *testing.T) *Env {
	t.Helper()

	device := store.NewLocalAdapter(local.NewMemoryKV())
	return &Env{
		Processor: newProcessor(store.New(device)),
		Device:    device,
	}
}

// SetupRemote wires a device with remote accounts. The remote store is a
// temporary SQLite file with the full schema.
func SetupRemote(t *testing.T) *Env {
	t.Helper()

	client := OpenRemote(t)
	proc := newProcessor(store.New(store.NewRemoteAdapter(client)))

	tokens, err := auth.NewTokenService(TestSessionSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create token service: %v", err)
	}
	return &Env{
		Processor: proc,
		Device:    store.NewLocalAdapter(local.NewMemoryKV()),
		Accounts:  auth.NewManager(client, proc, tokens),
		Remote:    client,
	}
}

// OpenRemote opens a fresh SQLite remote store with the full schema.
func OpenRemote(t *testing.T) *remote.Client {
	t.Helper()

	client, err := remote.Open(context.Background(), remote.DriverSQLite, filepath.Join(t.TempDir(), "remote.db"))
	if err != nil {
		t.Fatalf("Failed to open remote store: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := db.CreateSchema(client.DB()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return client
}

func newProcessor(s *store.ProfileStore) *ledger.Processor {
	return ledger.NewProcessor(s, loyalty.NewEngine(loyalty.DefaultCatalog()), events.NewBus())
}

// CreateTestProfile registers a profile directly through the processor
func CreateTestProfile(t *testing.T, proc *ledger.Processor, email string) models.Profile {
	t.Helper()

	p, err := proc.Register(context.Background(), models.Profile{Email: email, Name: "Test", Public: true})
	if err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}
	return p
}

// CreateTestContribution records a contribution of the given euros
func CreateTestContribution(t *testing.T, proc *ledger.Processor, profileID, workID string, euros float64) ledger.Result {
	t.Helper()

	res, err := proc.RecordContribution(context.Background(), profileID, models.RecordContributionRequest{
		WorkID:    workID,
		WorkTitle: "Obra " + workID,
		Amount:    euros,
	})
	if err != nil {
		t.Fatalf("Failed to record test contribution: %v", err)
	}
	return res
}

// BearerHeader returns the Authorization header for a session token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
