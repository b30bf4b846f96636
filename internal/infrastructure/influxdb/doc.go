// Package influxdb provides InfluxDB connectivity for Firewatch Core.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, watering-history writes, and health monitoring.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Per-device watering observations taken during fleet snapshots
//   - Snapshot summaries (fleet size, watering count, fetch failures)
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "firewatch",
//	    Bucket: "watering",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteWateringStatus("dev-1", true, false)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via a
// callback. Connection and health check errors are returned directly.
package influxdb
