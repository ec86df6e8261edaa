package store

import (
	"context"

	"roadmon/internal/models"
)

// Store defines the bounded, ordered telemetry record store. Appends beyond
// the retention cap evict the oldest records first. Reads always reflect
// the durable state: backends must not cache between calls, and a corrupt
// or unreadable backing store yields an empty sequence rather than an
// error. Write failures propagate.
type Store interface {
	// Append adds a record to the end of the sequence, evicting the oldest
	// records if the cap is exceeded. The record is durably persisted
	// before Append returns.
	Append(ctx context.Context, rec models.Record) error

	// All returns the full current sequence, oldest first.
	All(ctx context.Context) []models.Record

	// ByDevice returns All filtered to records whose deviceId equals id,
	// order preserved.
	ByDevice(ctx context.Context, id string) []models.Record

	// Clear replaces the persisted sequence with an empty one.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// filterByDevice keeps records whose deviceId string-equals id.
func filterByDevice(records []models.Record, id string) []models.Record {
	filtered := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if rec.DeviceID() == id {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
