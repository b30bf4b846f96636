package fleet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/firewatch/firewatch-core/internal/device"
	"github.com/firewatch/firewatch-core/internal/provider"
)

type stubCommandClient struct {
	mu       sync.Mutex
	errs     []error // consumed per call; exhausted means success
	calls    int
	lastKey  string
	lastWire []provider.ZoneStart
}

func (s *stubCommandClient) StartAllZones(_ context.Context, apiKey, _ string, zones []provider.ZoneStart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastKey = apiKey
	s.lastWire = zones
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return err
	}
	return nil
}

func controllerFixture(t *testing.T, client *stubCommandClient) (*Controller, *stubStore) {
	t.Helper()
	store := newStubStore()
	store.devices["dev-1"] = &device.Device{
		ID:     "dev-1",
		Owner:  "jones",
		APIKey: "stored-key",
		Zones: []device.Zone{
			{ID: "z1", Number: 1},
			{ID: "z2", Number: 2},
		},
	}
	return NewController(client, store), store
}

func TestStartAllUnknownDevice(t *testing.T) {
	client := &stubCommandClient{}
	controller, _ := controllerFixture(t, client)

	err := controller.StartAll(context.Background(), "missing", "")
	if !errors.Is(err, device.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
	if client.calls != 0 {
		t.Errorf("provider called %d times for unknown device", client.calls)
	}
}

func TestStartAllUsesStoredKey(t *testing.T) {
	client := &stubCommandClient{}
	controller, _ := controllerFixture(t, client)

	if err := controller.StartAll(context.Background(), "dev-1", ""); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	if client.lastKey != "stored-key" {
		t.Errorf("apiKey = %q, want stored-key", client.lastKey)
	}
	if len(client.lastWire) != 2 || client.lastWire[0].ID != "z1" || client.lastWire[1].ID != "z2" {
		t.Errorf("zones not forwarded in order: %+v", client.lastWire)
	}
	for i, z := range client.lastWire {
		// Duration and sort order are the provider client's decision.
		if z.Duration != 0 || z.SortOrder != 0 {
			t.Errorf("zones[%d] carries scheduling fields (%d, %d), want zone identity only", i, z.Duration, z.SortOrder)
		}
	}
}

func TestStartAllOverrideKey(t *testing.T) {
	client := &stubCommandClient{}
	controller, _ := controllerFixture(t, client)

	if err := controller.StartAll(context.Background(), "dev-1", "override"); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	if client.lastKey != "override" {
		t.Errorf("apiKey = %q, want override", client.lastKey)
	}
}

func TestStartAllRetriesOnceWhenUnavailable(t *testing.T) {
	client := &stubCommandClient{errs: []error{provider.ErrUnavailable}}
	controller, _ := controllerFixture(t, client)

	if err := controller.StartAll(context.Background(), "dev-1", ""); err != nil {
		t.Fatalf("StartAll() error after retry = %v", err)
	}
	if client.calls != 2 {
		t.Errorf("provider called %d times, want 2", client.calls)
	}
}

func TestStartAllFailsAfterSecondUnavailable(t *testing.T) {
	client := &stubCommandClient{errs: []error{provider.ErrUnavailable, provider.ErrUnavailable}}
	controller, _ := controllerFixture(t, client)

	err := controller.StartAll(context.Background(), "dev-1", "")
	if !errors.Is(err, provider.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if client.calls != 2 {
		t.Errorf("provider called %d times, want 2", client.calls)
	}
}

func TestStartAllNeverRetriesRejection(t *testing.T) {
	client := &stubCommandClient{errs: []error{provider.ErrCommandRejected}}
	controller, _ := controllerFixture(t, client)

	err := controller.StartAll(context.Background(), "dev-1", "")
	if !errors.Is(err, provider.ErrCommandRejected) {
		t.Fatalf("expected ErrCommandRejected, got %v", err)
	}
	if client.calls != 1 {
		t.Errorf("provider called %d times, want 1", client.calls)
	}
}
