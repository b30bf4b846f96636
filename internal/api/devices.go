package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/firewatch/firewatch-core/internal/device"
	"github.com/firewatch/firewatch-core/internal/fleet"
	"github.com/firewatch/firewatch-core/internal/provider"
)

// registerDeviceRequest is the body for POST /v1/device.
type registerDeviceRequest struct {
	Owner     string  `json:"owner"`
	City      string  `json:"city"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	APIKey    string  `json:"api_key"`
}

// registerOutcomeView is one device's result within a registration response.
// The response body is a sequence of these, one per device on the account.
type registerOutcomeView struct {
	Owner   string `json:"owner"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

// fleetResponse is the body for fleet snapshot listings.
type fleetResponse struct {
	Devices []statusView `json:"devices"`
}

// zoneView is one irrigation zone in a device response.
type zoneView struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
}

// deviceView is the stored device record as exposed over HTTP. The provider
// credential is never serialised.
type deviceView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Owner      string     `json:"owner"`
	OwnerName  string     `json:"owner_name"`
	OwnerEmail string     `json:"owner_email"`
	City       string     `json:"city"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Zones      []zoneView `json:"zones"`
}

// statusView is a device's live watering state as exposed over HTTP.
type statusView struct {
	deviceView
	Status     string             `json:"status"`
	IsWatering bool               `json:"is_watering"`
	Schedule   *provider.Schedule `json:"schedule,omitempty"`
}

func toDeviceView(d device.Device) deviceView {
	zones := make([]zoneView, len(d.Zones))
	for i, z := range d.Zones {
		zones[i] = zoneView{ID: z.ID, Number: z.Number}
	}
	return deviceView{
		ID:         d.ID,
		Name:       d.Name,
		Owner:      d.Owner,
		OwnerName:  d.OwnerName,
		OwnerEmail: d.OwnerEmail,
		City:       d.City,
		Latitude:   d.Latitude,
		Longitude:  d.Longitude,
		Zones:      zones,
	}
}

func toStatusView(e fleet.Entry) statusView {
	return statusView{
		deviceView: toDeviceView(e.Device),
		Status:     e.Status,
		IsWatering: e.IsWatering,
		Schedule:   e.Schedule,
	}
}

// handleRegisterDevice registers every controller on a provider account.
//
// POST /v1/device
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := s.registrar.Register(r.Context(), fleet.RegistrationRequest{
		Owner:     req.Owner,
		City:      req.City,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		APIKey:    req.APIKey,
	})
	if err != nil {
		writeBadRequest(w, registrationErrorMessage(err))
		return
	}

	outcomes := make([]registerOutcomeView, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		view := registerOutcomeView{
			Owner:   result.Owner,
			ID:      outcome.DeviceID,
			Name:    outcome.Name,
			Created: outcome.Created,
		}
		if outcome.Err != nil {
			view.Error = outcomeErrorMessage(outcome.Err)
		}
		outcomes = append(outcomes, view)
	}

	writeJSON(w, http.StatusCreated, outcomes)
}

// handleListDevices returns the live watering status of the whole fleet,
// or of one owner's devices when the owner query parameter is present.
//
// GET /v1/devices
// GET /v1/devices?owner=jones
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	var (
		devices []device.Device
		err     error
	)
	if owner := r.URL.Query().Get("owner"); owner != "" {
		if err = device.ValidateOwner(owner); err != nil {
			writeBadRequest(w, "invalid owner")
			return
		}
		devices, err = s.registry.ListByOwner(r.Context(), owner)
	} else {
		devices, err = s.registry.List(r.Context())
	}
	if err != nil {
		writeBadRequest(w, "listing devices failed")
		return
	}

	entries := s.aggregator.Snapshot(r.Context(), devices)
	views := make([]statusView, len(entries))
	for i, entry := range entries {
		views[i] = toStatusView(entry)
	}

	writeJSON(w, http.StatusCreated, fleetResponse{Devices: views})
}

// handleGetDevice returns the live watering status of one device. An
// api_key query parameter overrides the stored credential for this lookup.
//
// GET /v1/devices/{id}?api_key=...
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.Get(r.Context(), id)
	if err != nil {
		writeBadRequest(w, "device not found")
		return
	}
	if key := r.URL.Query().Get("api_key"); key != "" {
		dev.APIKey = key
	}

	entries := s.aggregator.Snapshot(r.Context(), []device.Device{*dev})
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":      entries[0].Status,
		"is_watering": entries[0].IsWatering,
		"schedule":    scheduleOrEmpty(entries[0].Schedule),
	})
}

// scheduleOrEmpty renders a missing schedule as an empty object rather
// than null.
func scheduleOrEmpty(s *provider.Schedule) any {
	if s == nil {
		return map[string]any{}
	}
	return s
}

// startDeviceRequest is the optional body for PUT /v1/devices/start/{id}.
// When the api_key is absent the stored credential is used.
type startDeviceRequest struct {
	Device struct {
		APIKey string `json:"api_key"`
	} `json:"device"`
}

// handleStartDevice starts every zone on a device.
//
// PUT /v1/devices/start/{id}
func (s *Server) handleStartDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req startDeviceRequest
	// Body is optional; a missing or malformed body falls back to the
	// stored credential.
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := s.controller.StartAll(r.Context(), id, req.Device.APIKey); err != nil {
		writeBadRequest(w, startErrorMessage(err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"device_id": id,
		"status":    "started",
	})
}

// registrationErrorMessage maps a registration failure to a client message.
func registrationErrorMessage(err error) string {
	switch {
	case errors.Is(err, fleet.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, provider.ErrInvalidCredential):
		return "invalid provider api key"
	case errors.Is(err, provider.ErrUnavailable):
		return "provider unavailable, try again later"
	default:
		return "registration failed"
	}
}

// outcomeErrorMessage maps a per-device persistence failure to a client message.
func outcomeErrorMessage(err error) string {
	if errors.Is(err, device.ErrDeviceExists) {
		return "device already registered"
	}
	return "device could not be saved"
}

// startErrorMessage maps a start-command failure to a client message.
func startErrorMessage(err error) string {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		return "device not found"
	case errors.Is(err, provider.ErrInvalidCredential):
		return "invalid provider api key"
	case errors.Is(err, provider.ErrCommandRejected):
		return "provider rejected the start command"
	case errors.Is(err, provider.ErrUnavailable):
		return "provider unavailable, try again later"
	default:
		return "start command failed"
	}
}
