package fleet

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/firewatch/firewatch-core/internal/device"
	"github.com/firewatch/firewatch-core/internal/provider"
)

// StatusUnknown is reported for a device whose status could not be fetched
// before the snapshot deadline.
const StatusUnknown = "unknown"

// Default aggregator settings.
const (
	defaultMaxConcurrent   = 8
	defaultSnapshotTimeout = 20 * time.Second
)

// StatusClient is the provider surface the aggregator needs.
// Satisfied by *provider.Client.
type StatusClient interface {
	DeviceStatus(ctx context.Context, apiKey, deviceID string) (string, error)
	DeviceSchedule(ctx context.Context, apiKey, deviceID string) (*provider.Schedule, error)
}

// MetricsSink receives watering observations from each snapshot.
// Satisfied by *influxdb.Client; nil disables recording.
type MetricsSink interface {
	WriteWateringStatus(deviceID string, online, watering bool)
	WriteSnapshotSummary(total, watering, failures int)
}

// Entry is the live view of one registered device: the stored record
// combined with the provider's status and running schedule.
type Entry struct {
	Device     device.Device
	Status     string
	IsWatering bool
	Schedule   *provider.Schedule

	// StatusErr and ScheduleErr record fetch failures for this device.
	// A failure here never removes the device from the snapshot.
	StatusErr   error
	ScheduleErr error
}

// AggregatorConfig contains snapshot fan-out settings.
type AggregatorConfig struct {
	// MaxConcurrent caps simultaneous device fetches. Zero or negative
	// applies the default; this is a resource bound, not a correctness
	// requirement.
	MaxConcurrent int

	// SnapshotTimeout is the global budget for one snapshot. Devices still
	// outstanding at the deadline report StatusUnknown.
	SnapshotTimeout time.Duration

	// RefreshOwnerInfo re-resolves provider account details once per
	// distinct API key and reflects current owner name/email in the
	// snapshot. The stored device record is never updated.
	RefreshOwnerInfo bool
}

// Aggregator produces fleet snapshots by fanning out per-device status and
// schedule fetches.
type Aggregator struct {
	client   StatusClient
	accounts AccountResolver // used only when cfg.RefreshOwnerInfo
	metrics  MetricsSink
	cfg      AggregatorConfig
	logger   Logger
}

// NewAggregator creates an aggregator. accounts may be nil if
// cfg.RefreshOwnerInfo is false; metrics may be nil to disable recording.
func NewAggregator(client StatusClient, cfg AggregatorConfig) *Aggregator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.SnapshotTimeout <= 0 {
		cfg.SnapshotTimeout = defaultSnapshotTimeout
	}
	return &Aggregator{
		client: client,
		cfg:    cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the aggregator.
func (a *Aggregator) SetLogger(logger Logger) {
	a.logger = logger
}

// SetAccountResolver enables owner-info refresh using the given resolver.
func (a *Aggregator) SetAccountResolver(accounts AccountResolver) {
	a.accounts = accounts
}

// SetMetricsSink enables watering-history recording.
func (a *Aggregator) SetMetricsSink(metrics MetricsSink) {
	a.metrics = metrics
}

// Snapshot fetches live status and schedule for every given device.
//
// Fetches run concurrently, bounded by MaxConcurrent, under a global
// deadline. The two calls per device are independent of each other and of
// all other devices; each result lands in a slot keyed by input index, so
// no locking is needed for the merge and output order always matches input
// order. Snapshot waits for all slots to resolve or time out - it never
// returns a partial batch early.
func (a *Aggregator) Snapshot(ctx context.Context, devices []device.Device) []Entry {
	entries := make([]Entry, len(devices))
	if len(devices) == 0 {
		return entries
	}

	start := time.Now()
	snapCtx, cancel := context.WithTimeout(ctx, a.cfg.SnapshotTimeout)
	defer cancel()

	// errgroup is used purely for the worker limit and the final wait;
	// per-device failures are recorded in the entry, never returned.
	g := new(errgroup.Group)
	g.SetLimit(a.cfg.MaxConcurrent)

	for i := range devices {
		i := i
		g.Go(func() error {
			entries[i] = a.fetchDevice(snapCtx, devices[i])
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines never return errors

	if a.cfg.RefreshOwnerInfo {
		a.refreshOwnerInfo(snapCtx, entries)
	}

	failures, watering := 0, 0
	for i := range entries {
		if entries[i].StatusErr != nil {
			failures++
		}
		if entries[i].IsWatering {
			watering++
		}
		if a.metrics != nil {
			a.metrics.WriteWateringStatus(
				entries[i].Device.ID,
				entries[i].Status != StatusUnknown && entries[i].Status != "offline",
				entries[i].IsWatering,
			)
		}
	}
	if a.metrics != nil {
		a.metrics.WriteSnapshotSummary(len(entries), watering, failures)
	}

	a.logger.Info("fleet snapshot complete",
		"devices", len(devices),
		"failures", failures,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return entries
}

// fetchDevice fetches status and schedule for one device concurrently.
func (a *Aggregator) fetchDevice(ctx context.Context, dev device.Device) Entry {
	entry := Entry{Device: dev}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		status, err := a.client.DeviceStatus(ctx, dev.APIKey, dev.ID)
		if err != nil {
			entry.Status = StatusUnknown
			entry.StatusErr = err
			return
		}
		entry.Status = strings.ToLower(status)
	}()

	go func() {
		defer wg.Done()
		schedule, err := a.client.DeviceSchedule(ctx, dev.APIKey, dev.ID)
		if err != nil {
			// Watering state is indeterminate; the device stays in the
			// snapshot with whatever status resolved.
			entry.ScheduleErr = err
			return
		}
		if schedule != nil {
			entry.IsWatering = true
			entry.Schedule = schedule
		}
	}()

	wg.Wait()

	if entry.StatusErr != nil {
		a.logger.Warn("device status fetch failed",
			"device_id", dev.ID,
			"error", entry.StatusErr,
		)
	}

	return entry
}

// refreshOwnerInfo re-resolves provider account details once per distinct
// API key and copies current owner name/email into matching entries.
// Resolution failures leave the stored denormalised values in place.
func (a *Aggregator) refreshOwnerInfo(ctx context.Context, entries []Entry) {
	if a.accounts == nil {
		return
	}

	accounts := make(map[string]*provider.Account)
	for i := range entries {
		key := entries[i].Device.APIKey
		account, seen := accounts[key]
		if !seen {
			resolved, err := a.accounts.Resolve(ctx, key)
			if err != nil {
				a.logger.Warn("owner info refresh failed", "error", err)
				accounts[key] = nil
				continue
			}
			account = resolved
			accounts[key] = account
		}
		if account != nil {
			entries[i].Device.OwnerName = account.FullName
			entries[i].Device.OwnerEmail = account.Email
		}
	}
}
