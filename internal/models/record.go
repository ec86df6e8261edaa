package models

import (
	"fmt"
	"strconv"
	"time"
)

// Well-known record keys. Everything else a client sends is carried
// through the store untouched.
const (
	KeyDeviceID       = "deviceId"
	KeyTimestamp      = "timestamp"
	KeyLatitude       = "latitude"
	KeyLongitude      = "longitude"
	KeyAccelX         = "accelX"
	KeyAccelY         = "accelY"
	KeyAccelZ         = "accelZ"
	KeyAccelMagnitude = "accelMagnitude"
)

// Legacy field aliases still sent by older Android builds.
const (
	aliasX         = "x"
	aliasY         = "y"
	aliasZ         = "z"
	aliasMagnitude = "accelerometer"
)

// Record is one normalized telemetry sample. It is an open map: the server
// owns the timestamp and the accelerometer fields, and preserves every
// other client-supplied key as-is.
type Record map[string]interface{}

// Normalize turns a raw client payload into a Record. It never fails:
// absent or malformed numeric fields become 0, the timestamp is always
// server-assigned, and unknown keys pass through unmodified.
func Normalize(raw map[string]interface{}, now time.Time) Record {
	rec := make(Record, len(raw)+4)
	for k, v := range raw {
		rec[k] = v
	}

	// Server-assigned timestamp, overwriting anything the client sent.
	rec[KeyTimestamp] = now.UTC().Format(time.RFC3339Nano)

	if v, ok := rec[KeyDeviceID]; ok {
		rec[KeyDeviceID] = coerceString(v)
	}

	// Canonical accelerometer fields win over their legacy aliases. A zero
	// canonical value falls through to the alias, matching the upstream
	// client contract.
	rec[KeyAccelX] = firstNonZero(rec, KeyAccelX, aliasX)
	rec[KeyAccelY] = firstNonZero(rec, KeyAccelY, aliasY)
	rec[KeyAccelZ] = firstNonZero(rec, KeyAccelZ, aliasZ)
	rec[KeyAccelMagnitude] = firstNonZero(rec, KeyAccelMagnitude, aliasMagnitude)

	return rec
}

// DeviceID returns the record's device identifier, or "" if absent.
func (r Record) DeviceID() string {
	v, ok := r[KeyDeviceID]
	if !ok || v == nil {
		return ""
	}
	return coerceString(v)
}

// Timestamp returns the server-assigned timestamp string.
func (r Record) Timestamp() string {
	return coerceString(r[KeyTimestamp])
}

// Magnitude returns the record's accelerometer magnitude as a float.
func (r Record) Magnitude() float64 {
	return coerceFloat(r[KeyAccelMagnitude])
}

// Float reads any record field as a float64, returning 0 for absent or
// non-numeric values.
func (r Record) Float(key string) float64 {
	return coerceFloat(r[key])
}

// String reads any record field as a string, returning "" when absent.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	return coerceString(v)
}

func firstNonZero(rec Record, keys ...string) float64 {
	for _, k := range keys {
		if f := coerceFloat(rec[k]); f != 0 {
			return f
		}
	}
	return 0
}

func coerceFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		// JSON numbers decode as float64; render integral IDs without a
		// trailing ".0".
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}
