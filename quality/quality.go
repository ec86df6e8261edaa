// Package quality derives a descriptive road-quality label from a set of
// telemetry records based on average accelerometer vibration.
package quality

import (
	"math"

	"roadmon/internal/models"
)

// Quality labels, from smoothest to roughest.
const (
	NoData    = "No data"
	Excellent = "Excellent"
	Good      = "Good"
	Fair      = "Fair"
	Poor      = "Poor"
)

// Vibration thresholds (average absolute magnitude, m/s²). A value below
// the threshold earns the matching label; at or above falls through.
const (
	excellentBelow = 2.0
	goodBelow      = 5.0
	fairBelow      = 10.0
)

// Assessment is the aggregated quality verdict for a set of records. The
// numeric fields carry no meaning (and are omitted from JSON) when Quality
// is "No data".
type Assessment struct {
	Quality       string   `json:"quality"`
	AvgVibration  *float64 `json:"avgVibration,omitempty"`
	TotalReadings *int     `json:"totalReadings,omitempty"`
}

// Assess computes the quality label for the given records. Empty input is
// a valid case, not an error.
func Assess(records []models.Record) Assessment {
	if len(records) == 0 {
		return Assessment{Quality: NoData}
	}

	var sum float64
	for _, rec := range records {
		sum += math.Abs(rec.Magnitude())
	}
	avg := sum / float64(len(records))

	var label string
	switch {
	case avg < excellentBelow:
		label = Excellent
	case avg < goodBelow:
		label = Good
	case avg < fairBelow:
		label = Fair
	default:
		label = Poor
	}

	rounded := math.Round(avg*100) / 100
	total := len(records)
	return Assessment{
		Quality:       label,
		AvgVibration:  &rounded,
		TotalReadings: &total,
	}
}
