package service

import (
	"context"
	"log"
	"sort"
	"time"

	"roadmon/evidence"
	"roadmon/internal/models"
	"roadmon/quality"
	"roadmon/storage/store"
)

// Service encapsulates the core business logic of the road monitoring
// server: normalizing and persisting samples, computing quality, and
// deriving the device registry.
type Service struct {
	store   store.Store
	archive *evidence.Archive
	logger  *log.Logger
}

// NewService creates a new Service instance.
func NewService(s store.Store, a *evidence.Archive, l *log.Logger) *Service {
	return &Service{store: s, archive: a, logger: l}
}

// SubmitReading normalizes a raw client payload and appends it to the
// store. The returned record carries the server-assigned timestamp.
func (s *Service) SubmitReading(ctx context.Context, raw map[string]interface{}) (models.Record, error) {
	rec := models.Normalize(raw, time.Now())

	if err := s.store.Append(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Printf("Received - Lat: %v, Lon: %v, X=%v Y=%v Z=%v Mag=%v",
		rec.Float(models.KeyLatitude), rec.Float(models.KeyLongitude),
		rec.Float(models.KeyAccelX), rec.Float(models.KeyAccelY),
		rec.Float(models.KeyAccelZ), rec.Magnitude())
	return rec, nil
}

// LatestReadings returns the retained records, oldest first, optionally
// filtered by device.
func (s *Service) LatestReadings(ctx context.Context, deviceID string) []models.Record {
	if deviceID != "" {
		return s.store.ByDevice(ctx, deviceID)
	}
	return s.store.All(ctx)
}

// RoadQuality assesses the road quality over the retained records,
// optionally filtered by device.
func (s *Service) RoadQuality(ctx context.Context, deviceID string) quality.Assessment {
	return quality.Assess(s.LatestReadings(ctx, deviceID))
}

// ListDevices returns the sorted union of device IDs seen in the store and
// device folders found in the evidence archive.
func (s *Service) ListDevices(ctx context.Context) []string {
	seen := make(map[string]bool)
	for _, rec := range s.store.All(ctx) {
		if id := rec.DeviceID(); id != "" {
			seen[id] = true
		}
	}
	for _, id := range s.archive.DeviceFolders() {
		seen[id] = true
	}

	devices := make([]string, 0, len(seen))
	for id := range seen {
		devices = append(devices, id)
	}
	sort.Strings(devices)
	return devices
}

// ClearReadings wipes the telemetry store.
func (s *Service) ClearReadings(ctx context.Context) error {
	return s.store.Clear(ctx)
}
