package guardian

import "time"

// frameDuration is the wall time covered by one frame's EEG samples.
const frameDuration = SamplesPerFrame * time.Second / SampleRate

// Timeline reconstructs wall-clock timestamps from the wrapping frame
// counter. The device sends no absolute clock; the first frame is anchored
// to the host clock and every later frame advances by the counter delta
// times the frame duration, so dropped frames leave gaps instead of
// compressing the timeline.
type Timeline struct {
	started   bool
	prevIndex int
	prevTime  time.Time

	now func() time.Time
}

// NewTimeline creates a Timeline anchored to the system clock.
func NewTimeline() *Timeline {
	return &Timeline{now: time.Now}
}

// NewTimelineAt creates a Timeline that reads the clock through now.
// Useful for deterministic tests.
func NewTimelineAt(now func() time.Time) *Timeline {
	return &Timeline{now: now}
}

// Next returns the timestamp for a frame with the given counter value.
func (t *Timeline) Next(index byte) time.Time {
	if !t.started {
		t.started = true
		t.prevIndex = int(index)
		t.prevTime = t.now()

		return t.prevTime
	}

	steps := (int(index) - t.prevIndex + MaxFrameIndex) % MaxFrameIndex
	ts := t.prevTime.Add(time.Duration(steps) * frameDuration)

	t.prevIndex = int(index)
	t.prevTime = ts

	return ts
}

// Reset clears the anchor so the next frame re-anchors to the clock.
func (t *Timeline) Reset() {
	t.started = false
	t.prevIndex = 0
	t.prevTime = time.Time{}
}
