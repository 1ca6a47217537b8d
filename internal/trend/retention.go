package trend

import (
	"time"

	"github.com/inkwatch/inkwatch/internal/models"
)

// RetentionPolicy bounds how much battery history is kept per device. Like
// the analyzer it only computes; deletion is executed by the sample store on
// the caller's behalf.
type RetentionPolicy struct {
	// MaxAge is the oldest a sample may be before it is evictable.
	// Zero disables the age bound.
	MaxAge time.Duration
	// MaxSamples caps how many samples are retained per device, newest
	// first. Zero disables the cap.
	MaxSamples int
}

// DefaultRetentionPolicy keeps a year of history, capped at 120 samples —
// over two years of weekly recordings.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		MaxAge:     365 * 24 * time.Hour,
		MaxSamples: 120,
	}
}

// Cutoff returns the timestamp strictly before which samples should be
// deleted so that both bounds hold. The second return value is false when
// the snapshot is already within policy and nothing would be evicted.
func (p RetentionPolicy) Cutoff(samples []models.BatterySample, now time.Time) (time.Time, bool) {
	if len(samples) == 0 {
		return time.Time{}, false
	}

	s := sortedByTime(samples)

	var cutoff time.Time
	if p.MaxAge > 0 {
		cutoff = now.Add(-p.MaxAge)
	}
	if p.MaxSamples > 0 && len(s) > p.MaxSamples {
		// Oldest sample that survives the cap.
		boundary := s[len(s)-p.MaxSamples].RecordedAt
		if boundary.After(cutoff) {
			cutoff = boundary
		}
	}
	if cutoff.IsZero() {
		return time.Time{}, false
	}

	// Only report a cutoff that actually evicts something.
	if !s[0].RecordedAt.Before(cutoff) {
		return time.Time{}, false
	}
	return cutoff, true
}
