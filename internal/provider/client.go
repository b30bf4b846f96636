package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default settings for provider operations.
const (
	defaultTimeout        = 10 * time.Second
	defaultZoneRunSeconds = 600

	// maxResponseSize caps provider response bodies.
	maxResponseSize = 4 << 20 // 4 MB
)

// Config contains provider client settings.
// These map to the provider section of config.yaml.
type Config struct {
	// BaseURL is the root of the provider's REST API,
	// e.g. "https://api.rach.io/1/public".
	BaseURL string

	// Timeout is the per-request deadline. Zero means defaultTimeout.
	Timeout time.Duration

	// ZoneRunSeconds is the run duration requested per zone by StartAllZones.
	// Zero means defaultZoneRunSeconds.
	ZoneRunSeconds int
}

// Client talks to the provider's REST API over HTTPS.
//
// It is stateless: every method is a pure request/response mapping and all
// methods are safe for concurrent use from multiple goroutines.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	zoneRunSeconds int
}

// New creates a provider client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	zoneRun := cfg.ZoneRunSeconds
	if zoneRun <= 0 {
		zoneRun = defaultZoneRunSeconds
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout:        timeout,
		zoneRunSeconds: zoneRun,
	}, nil
}

// AccountID resolves an API key to the provider account ID that owns it.
func (c *Client) AccountID(ctx context.Context, apiKey string) (string, error) {
	body, err := c.get(ctx, apiKey, "/person/info")
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parsing account id response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("%w: empty account id in response", ErrUnavailable)
	}
	return result.ID, nil
}

// AccountInfo fetches the account's details and its device/zone inventory.
// Device and zone order in the response is preserved.
func (c *Client) AccountInfo(ctx context.Context, apiKey, accountID string) (*Account, error) {
	body, err := c.get(ctx, apiKey, "/person/"+accountID)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("parsing account info response: %w", err)
	}
	return &account, nil
}

// DeviceStatus fetches the live status ("ONLINE", "OFFLINE", ...) of a device.
func (c *Client) DeviceStatus(ctx context.Context, apiKey, deviceID string) (string, error) {
	body, err := c.get(ctx, apiKey, "/device/"+deviceID)
	if err != nil {
		return "", err
	}

	var status DeviceStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return "", fmt.Errorf("parsing device status response: %w", err)
	}
	return status.Status, nil
}

// DeviceSchedule fetches the currently running schedule for a device.
// Returns (nil, nil) when no schedule is running - the provider reports
// that as an empty object, not an error.
func (c *Client) DeviceSchedule(ctx context.Context, apiKey, deviceID string) (*Schedule, error) {
	body, err := c.get(ctx, apiKey, "/device/"+deviceID+"/current_schedule")
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "{}" || trimmed == "null" {
		return nil, nil
	}

	var schedule Schedule
	if err := json.Unmarshal(body, &schedule); err != nil {
		return nil, fmt.Errorf("parsing schedule response: %w", err)
	}
	if schedule.Duration == 0 {
		// Object present but no run in progress
		return nil, nil
	}
	return &schedule, nil
}

// StartAllZones starts every given zone on a device for the configured
// run duration. Zones run in their provider-reported order.
//
// The command is not idempotent: starting twice may double-run zones, so
// callers decide retry policy.
func (c *Client) StartAllZones(ctx context.Context, apiKey, deviceID string, zones []ZoneStart) error {
	if len(zones) == 0 {
		return fmt.Errorf("%w: device %s has no zones", ErrCommandRejected, deviceID)
	}

	starts := make([]ZoneStart, len(zones))
	for i, z := range zones {
		starts[i] = ZoneStart{
			ID:        z.ID,
			Duration:  c.zoneRunSeconds,
			SortOrder: i + 1,
		}
	}

	payload := map[string]any{"zones": starts}
	return c.put(ctx, apiKey, "/zone/start_multiple", payload)
}

// get performs an authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, apiKey, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, apiKey, path, nil)
}

// put performs an authenticated PUT with a JSON body.
func (c *Client) put(ctx context.Context, apiKey, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling request body: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, apiKey, path, body)
	return err
}

// do executes one provider request with the per-call timeout and maps the
// response to the package's sentinel errors.
func (c *Client) do(ctx context.Context, method, apiKey, path string, body []byte) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failure or timeout - transient as far as we know
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	if err := classifyStatus(method, resp.StatusCode); err != nil {
		return nil, err
	}
	return respBody, nil
}

// classifyStatus maps an HTTP status to a sentinel error, or nil for success.
func classifyStatus(method string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrInvalidCredential, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d", ErrDeviceNotFound, status)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrUnavailable, status)
	case method == http.MethodPut || method == http.MethodPost:
		// Remaining 4xx on a command means the provider refused it
		return fmt.Errorf("%w: HTTP %d", ErrCommandRejected, status)
	default:
		return fmt.Errorf("%w: HTTP %d", ErrUnavailable, status)
	}
}
