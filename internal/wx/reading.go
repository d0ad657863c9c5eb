package wx

import (
	"fmt"
	"math"
	"time"
)

// Reading is a single weather-station observation as published by the
// decoder. Fields arrive in the units the station reports: MPH, degrees,
// Celsius, percent.
type Reading struct {
	Timestamp    time.Time `json:"timestamp"`
	WindSpeedMPH float64   `json:"wind_speed_mph"`
	WindDirDeg   float64   `json:"wind_direction_deg"`
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  float64   `json:"humidity_pct"`
}

// Sanitize clamps out-of-domain fields to their valid ranges. A bad packet
// degrades gracefully instead of interrupting the pipeline.
func (r Reading) Sanitize() Reading {
	if r.WindSpeedMPH < 0 || math.IsNaN(r.WindSpeedMPH) {
		r.WindSpeedMPH = 0
	}
	r.WindDirDeg = normalizeDegrees(r.WindDirDeg)
	if math.IsNaN(r.TemperatureC) {
		r.TemperatureC = 0
	}
	if r.HumidityPct < 0 || math.IsNaN(r.HumidityPct) {
		r.HumidityPct = 0
	} else if r.HumidityPct > 100 {
		r.HumidityPct = 100
	}
	return r
}

// Validate reports whether a reading is usable at all. Sanitize handles
// out-of-range values; this catches records that cannot be processed.
func (r Reading) Validate() error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if math.IsInf(r.WindSpeedMPH, 0) || math.IsInf(r.WindDirDeg, 0) ||
		math.IsInf(r.TemperatureC, 0) || math.IsInf(r.HumidityPct, 0) {
		return fmt.Errorf("non-finite sensor value")
	}
	return nil
}

// normalizeDegrees wraps an angle into [0,360). 360 maps to 0.
func normalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) {
		return 0
	}
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}
