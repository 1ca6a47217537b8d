// Package trend implements battery history analysis for TRMNL devices.
//
// The analyzer answers two questions about one device's battery samples:
//   - Should the stored history be flagged for clearing? (recharged device,
//     stale data, degenerate range)
//   - Can a depletion time be predicted, and what is it?
//
// Both operations are pure functions over an immutable snapshot: no I/O, no
// shared state, safe to call from any goroutine. Insufficient or degenerate
// data is a normal outcome, never an error.
package trend

import (
	"sort"
	"time"

	"github.com/inkwatch/inkwatch/internal/models"
)

// ClearReason classifies why stored battery history should be offered for
// clearing. It is advisory: the analyzer never deletes anything itself.
type ClearReason int

const (
	// ClearNone means the history is still representative.
	ClearNone ClearReason = iota
	// ClearDeviceCharging means the newest sample jumped up versus the one
	// before it: the device was recharged and the old discharge curve no
	// longer applies.
	ClearDeviceCharging
	// ClearStaleData means the newest sample is older than the staleness
	// window.
	ClearStaleData
	// ClearInsufficientRange means the samples span zero elapsed time, so
	// the history carries no usable trend information.
	ClearInsufficientRange
)

func (r ClearReason) String() string {
	switch r {
	case ClearDeviceCharging:
		return "device_charging"
	case ClearStaleData:
		return "stale_data"
	case ClearInsufficientRange:
		return "insufficient_range"
	default:
		return "none"
	}
}

// minSamplesForFit is the fewest samples a regression is attempted on.
const minSamplesForFit = 3

// Config holds the analyzer's policy values.
type Config struct {
	// ChargeJumpThreshold is the rise, in percentage points, between the
	// two most recent samples above which the device is considered to have
	// been recharged.
	ChargeJumpThreshold float64
	// StalenessWindow is how old the newest sample may be before the
	// history is no longer trusted for prediction.
	StalenessWindow time.Duration
}

// DefaultConfig returns the policy values used by the hosted app.
func DefaultConfig() Config {
	return Config{
		ChargeJumpThreshold: 2.0,
		StalenessWindow:     21 * 24 * time.Hour,
	}
}

// Analyzer evaluates one device's battery sample history.
type Analyzer struct {
	cfg Config
	now func() time.Time
}

// NewAnalyzer creates an analyzer with the given policy.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg, now: time.Now}
}

// newAnalyzerAt pins the clock, for tests.
func newAnalyzerAt(cfg Config, now func() time.Time) *Analyzer {
	return &Analyzer{cfg: cfg, now: now}
}

// RecommendClear decides whether the stored history should be offered for
// clearing. Charging detection takes priority over staleness: a freshly
// recharged device is the more actionable signal even when the data is also
// old. Fewer than two samples is never a reason to clear.
func (a *Analyzer) RecommendClear(samples []models.BatterySample) ClearReason {
	if len(samples) < 2 {
		return ClearNone
	}

	s := sortedByTime(samples)
	latest := s[len(s)-1]
	prev := s[len(s)-2]

	if latest.PercentCharged-prev.PercentCharged > a.cfg.ChargeJumpThreshold {
		return ClearDeviceCharging
	}
	if a.now().Sub(latest.RecordedAt) > a.cfg.StalenessWindow {
		return ClearStaleData
	}
	if latest.RecordedAt.Equal(s[0].RecordedAt) {
		return ClearInsufficientRange
	}
	return ClearNone
}

// PredictDepletion fits a least-squares line of percent-charged against
// elapsed days and extrapolates it to an empty battery. The second return
// value is false when no prediction can be made: fewer than three samples,
// zero elapsed-time spread, or a flat/rising trend. A least-squares fit over
// all points smooths weekly usage noise better than a first-to-last slope at
// the same O(n) cost.
func (a *Analyzer) PredictDepletion(samples []models.BatterySample) (models.TrendPrediction, bool) {
	if len(samples) < minSamplesForFit {
		return models.TrendPrediction{}, false
	}

	s := sortedByTime(samples)
	origin := s[0].RecordedAt

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range s {
		x := p.RecordedAt.Sub(origin).Hours() / 24
		y := p.PercentCharged
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	n := float64(len(s))
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		// All samples share one timestamp; the slope is undefined.
		return models.TrendPrediction{}, false
	}

	slope := (n*sumXY - sumX*sumY) / denom
	if slope >= 0 {
		// Flat or rising percent cannot yield a time-to-empty.
		return models.TrendPrediction{}, false
	}

	drain := -slope
	return models.TrendPrediction{
		DrainPerDay:    drain,
		DataPointsUsed: len(s),
		DaysRemaining:  s[len(s)-1].PercentCharged / drain,
	}, true
}

// sortedByTime returns a copy sorted ascending by timestamp. Ties are broken
// on percent so results do not depend on insertion order.
func sortedByTime(samples []models.BatterySample) []models.BatterySample {
	s := make([]models.BatterySample, len(samples))
	copy(s, samples)
	sort.Slice(s, func(i, j int) bool {
		if !s[i].RecordedAt.Equal(s[j].RecordedAt) {
			return s[i].RecordedAt.Before(s[j].RecordedAt)
		}
		return s[i].PercentCharged < s[j].PercentCharged
	})
	return s
}
