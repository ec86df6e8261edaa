package models

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)

func TestNormalizeLegacyAliases(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"x":             1.0,
		"y":             2.0,
		"z":             3.0,
		"accelerometer": 3.74,
	}, testNow)

	if got := rec.Float(KeyAccelX); got != 1 {
		t.Errorf("accelX = %v, want 1", got)
	}
	if got := rec.Float(KeyAccelY); got != 2 {
		t.Errorf("accelY = %v, want 2", got)
	}
	if got := rec.Float(KeyAccelZ); got != 3 {
		t.Errorf("accelZ = %v, want 3", got)
	}
	if got := rec.Magnitude(); got != 3.74 {
		t.Errorf("accelMagnitude = %v, want 3.74", got)
	}
}

func TestNormalizeCanonicalWinsOverAlias(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"accelX": 5.0,
		"x":      1.0,
	}, testNow)
	if got := rec.Float(KeyAccelX); got != 5 {
		t.Errorf("accelX = %v, want 5", got)
	}
}

func TestNormalizeDefaultsToZero(t *testing.T) {
	rec := Normalize(map[string]interface{}{}, testNow)
	for _, key := range []string{KeyAccelX, KeyAccelY, KeyAccelZ, KeyAccelMagnitude} {
		if got := rec.Float(key); got != 0 {
			t.Errorf("%s = %v, want 0", key, got)
		}
	}
}

func TestNormalizeServerOwnsTimestamp(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"timestamp": "1999-01-01T00:00:00Z",
	}, testNow)
	want := testNow.UTC().Format(time.RFC3339Nano)
	if got := rec.Timestamp(); got != want {
		t.Errorf("timestamp = %q, want %q", got, want)
	}
}

func TestNormalizeDeviceIDCoercion(t *testing.T) {
	rec := Normalize(map[string]interface{}{"deviceId": 42.0}, testNow)
	if got := rec.DeviceID(); got != "42" {
		t.Errorf("deviceId = %q, want \"42\"", got)
	}

	rec = Normalize(map[string]interface{}{}, testNow)
	if got := rec.DeviceID(); got != "" {
		t.Errorf("deviceId = %q, want empty", got)
	}
}

func TestNormalizePreservesUnknownKeys(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"latitude":   48.2,
		"longitude":  16.37,
		"speed":      33.0,
		"batteryPct": 0.81,
		"appVersion": "2.4.1",
		"accelX":     1.5,
	}, testNow)

	if got := rec.Float("speed"); got != 33 {
		t.Errorf("speed = %v, want 33", got)
	}
	if got := rec.String("appVersion"); got != "2.4.1" {
		t.Errorf("appVersion = %q, want \"2.4.1\"", got)
	}
	if got := rec.Float(KeyLatitude); got != 48.2 {
		t.Errorf("latitude = %v, want 48.2", got)
	}
}

func TestNormalizeMalformedNumerics(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"accelX":        "not-a-number",
		"accelerometer": []interface{}{1, 2},
	}, testNow)
	if got := rec.Float(KeyAccelX); got != 0 {
		t.Errorf("accelX = %v, want 0", got)
	}
	if got := rec.Magnitude(); got != 0 {
		t.Errorf("accelMagnitude = %v, want 0", got)
	}
}
