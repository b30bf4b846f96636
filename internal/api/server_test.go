package api

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/firewatch/firewatch-core/internal/device"
	"github.com/firewatch/firewatch-core/internal/fleet"
	"github.com/firewatch/firewatch-core/internal/infrastructure/config"
	"github.com/firewatch/firewatch-core/internal/infrastructure/logging"
	"github.com/firewatch/firewatch-core/internal/provider"
)

// fakeProvider is an in-process stand-in for the irrigation provider API.
// It serves one account with one two-zone controller and records start
// commands for assertion.
type fakeProvider struct {
	mu          sync.Mutex
	validKey    string
	status      string
	schedule    string // raw body for current_schedule; "" means no run
	startCalls  int
	lastPayload string
}

func (f *fakeProvider) handler() http.Handler {
	r := chi.NewRouter()

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") != "Bearer "+f.validKey {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, req)
		}
	}

	r.Get("/person/info", authed(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id": "acct-1"}`))
	}))
	r.Get("/person/{id}", authed(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"id": "acct-1",
			"fullName": "Pat Jones",
			"email": "pat@example.com",
			"devices": [{
				"id": "dev-1",
				"name": "Front Yard",
				"latitude": 39.78,
				"longitude": -89.65,
				"zones": [
					{"id": "z1", "zoneNumber": 1},
					{"id": "z2", "zoneNumber": 2}
				]
			}]
		}`))
	}))
	r.Get("/device/{id}", authed(func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		status := f.status
		f.mu.Unlock()
		if chi.URLParam(req, "id") != "dev-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "dev-1", "status": status})
	}))
	r.Get("/device/{id}/current_schedule", authed(func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		schedule := f.schedule
		f.mu.Unlock()
		if schedule == "" {
			w.Write([]byte("{}"))
			return
		}
		w.Write([]byte(schedule))
	}))
	r.Put("/zone/start_multiple", authed(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		f.mu.Lock()
		f.startCalls++
		f.lastPayload = string(body)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))

	return r
}

// testStack wires a complete server over an in-memory database and a fake
// provider, returning the HTTP handler under test.
type testStack struct {
	handler  http.Handler
	provider *fakeProvider
	registry *device.Registry
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			owner_id TEXT NOT NULL DEFAULT '',
			owner_name TEXT NOT NULL DEFAULT '',
			owner_email TEXT NOT NULL DEFAULT '',
			api_key TEXT NOT NULL,
			city TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			zones TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	fake := &fakeProvider{validKey: "good-key", status: "ONLINE"}
	providerSrv := httptest.NewServer(fake.handler())
	t.Cleanup(providerSrv.Close)

	client, err := provider.New(provider.Config{
		BaseURL: providerSrv.URL,
		Timeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create provider client: %v", err)
	}
	resolver := provider.NewResolver(client)

	registry := device.NewRegistry(device.NewSQLiteRepository(db))

	registrar := fleet.NewRegistrar(resolver, registry)
	aggregator := fleet.NewAggregator(client, fleet.AggregatorConfig{
		SnapshotTimeout: 5 * time.Second,
	})
	controller := fleet.NewController(client, registry)

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "json"}, "test")

	server, err := New(Deps{
		Config:     config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:     logger,
		Registry:   registry,
		Registrar:  registrar,
		Aggregator: aggregator,
		Controller: controller,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	return &testStack{
		handler:  server.buildRouter(),
		provider: fake,
		registry: registry,
	}
}

func (ts *testStack) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestNewRequiresDependencies(t *testing.T) {
	logger := logging.New(config.LoggingConfig{Level: "error"}, "test")

	if _, err := New(Deps{Logger: logger}); err == nil {
		t.Error("expected error when registry missing")
	}
	if _, err := New(Deps{}); err == nil {
		t.Error("expected error when logger missing")
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestStack(t)

	rec := ts.do(t, http.MethodGet, "/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}
