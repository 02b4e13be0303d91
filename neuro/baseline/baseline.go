// Package baseline collects reference band-power scores and normalizes
// live scores against them as z-scores.
package baseline

import (
	"fmt"
	"math"
)

// DefaultCapacity is the number of reference scores collected before the
// baseline is considered ready. At one score per 250 ms this covers ten
// seconds of calibration.
const DefaultCapacity = 40

// Collector accumulates reference scores up to a fixed capacity and exposes
// their running mean and standard deviation. Moments are maintained with
// Welford's online algorithm so the collector never stores the scores
// themselves.
type Collector struct {
	capacity int
	n        int
	mean     float64
	m2       float64
}

// NewCollector creates a collector that becomes ready after capacity scores.
func NewCollector(capacity int) (*Collector, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("baseline: capacity must be positive, got %d", capacity)
	}

	return &Collector{capacity: capacity}, nil
}

// Add records a reference score. It returns false once the collector has
// reached capacity and the score was ignored.
func (c *Collector) Add(score float64) bool {
	if c.n >= c.capacity {
		return false
	}

	c.n++
	delta := score - c.mean
	c.mean += delta / float64(c.n)
	c.m2 += delta * (score - c.mean)

	return true
}

// Ready reports whether the collector has reached capacity.
func (c *Collector) Ready() bool {
	return c.n >= c.capacity
}

// Count returns the number of scores recorded so far.
func (c *Collector) Count() int {
	return c.n
}

// Capacity returns the configured capacity.
func (c *Collector) Capacity() int {
	return c.capacity
}

// Mean returns the mean of the recorded scores.
func (c *Collector) Mean() float64 {
	return c.mean
}

// Std returns the population standard deviation of the recorded scores.
func (c *Collector) Std() float64 {
	if c.n == 0 {
		return 0
	}

	return math.Sqrt(c.m2 / float64(c.n))
}

// Normalize converts a score to a z-score relative to the baseline. When
// the baseline has zero variance every score normalizes to 0 so a flat
// calibration never produces infinite feedback values.
func (c *Collector) Normalize(score float64) float64 {
	std := c.Std()
	if std == 0 {
		return 0
	}

	return (score - c.mean) / std
}

// Reset clears all accumulated scores, allowing the collector to be reused
// for a new calibration phase.
func (c *Collector) Reset() {
	c.n = 0
	c.mean = 0
	c.m2 = 0
}
