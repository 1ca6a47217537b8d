package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwatch/inkwatch/internal/models"
)

func TestRetentionCutoff(t *testing.T) {
	now := t0.Add(day(400))

	t.Run("empty history", func(t *testing.T) {
		_, ok := RetentionPolicy{MaxAge: day(10)}.Cutoff(nil, now)
		assert.False(t, ok)
	})

	t.Run("disabled policy never evicts", func(t *testing.T) {
		samples := []models.BatterySample{sampleAt(0, 80)}
		_, ok := RetentionPolicy{}.Cutoff(samples, now)
		assert.False(t, ok)
	})

	t.Run("age bound", func(t *testing.T) {
		p := RetentionPolicy{MaxAge: day(30)}
		samples := []models.BatterySample{
			sampleAt(day(360), 80), // 40 days old, evictable
			sampleAt(day(390), 70), // 10 days old
		}
		cutoff, ok := p.Cutoff(samples, now)
		require.True(t, ok)
		assert.Equal(t, now.Add(-day(30)), cutoff)
	})

	t.Run("age bound with nothing old enough", func(t *testing.T) {
		p := RetentionPolicy{MaxAge: day(30)}
		samples := []models.BatterySample{
			sampleAt(day(390), 80),
			sampleAt(day(395), 70),
		}
		_, ok := p.Cutoff(samples, now)
		assert.False(t, ok)
	})

	t.Run("sample cap", func(t *testing.T) {
		p := RetentionPolicy{MaxSamples: 3}
		samples := []models.BatterySample{
			sampleAt(day(396), 90),
			sampleAt(day(397), 85),
			sampleAt(day(398), 80),
			sampleAt(day(399), 75),
			sampleAt(day(400), 70),
		}
		cutoff, ok := p.Cutoff(samples, now)
		require.True(t, ok)
		// The three newest survive; everything before day 398 goes.
		assert.Equal(t, t0.Add(day(398)), cutoff)
	})

	t.Run("cap within bounds", func(t *testing.T) {
		p := RetentionPolicy{MaxSamples: 10}
		samples := []models.BatterySample{
			sampleAt(day(398), 80),
			sampleAt(day(399), 75),
		}
		_, ok := p.Cutoff(samples, now)
		assert.False(t, ok)
	})

	t.Run("tighter of age and cap wins", func(t *testing.T) {
		p := RetentionPolicy{MaxAge: day(5), MaxSamples: 2}
		samples := []models.BatterySample{
			sampleAt(day(380), 90),
			sampleAt(day(398), 80),
			sampleAt(day(399), 75),
			sampleAt(day(400), 70),
		}
		cutoff, ok := p.Cutoff(samples, now)
		require.True(t, ok)
		// Cap keeps the newest two; that boundary is later than the age
		// cutoff of day 395.
		assert.Equal(t, t0.Add(day(399)), cutoff)
	})

	t.Run("unsorted input", func(t *testing.T) {
		p := RetentionPolicy{MaxSamples: 2}
		samples := []models.BatterySample{
			sampleAt(day(400), 70),
			sampleAt(day(398), 80),
			sampleAt(day(399), 75),
		}
		cutoff, ok := p.Cutoff(samples, now)
		require.True(t, ok)
		assert.Equal(t, t0.Add(day(399)), cutoff)
	})
}
