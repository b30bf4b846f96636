package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteWateringStatus records one device observation from a fleet snapshot.
//
// The write is non-blocking; points are batched and sent asynchronously.
// Called once per registered device per snapshot, so over time the bucket
// holds a watering history queryable per device.
func (c *Client) WriteWateringStatus(deviceID string, online, watering bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"watering_status",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"online":      online,
			"is_watering": watering,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSnapshotSummary records fleet-level counts for one snapshot.
//
// Useful for dashboards tracking fleet growth and provider reliability
// without per-device queries.
func (c *Client) WriteSnapshotSummary(total, watering, failures int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"snapshot_summary",
		nil,
		map[string]interface{}{
			"devices":  total,
			"watering": watering,
			"failures": failures,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
