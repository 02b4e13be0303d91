package stream

import (
	"fmt"
	"math"
)

// Windower maintains a fixed-capacity ring of recent samples per channel.
// Pushed samples that are NaN are stored as 0 so downstream filters never
// see non-finite values.
type Windower struct {
	channels int
	capacity int

	rings [][]float64
	head  int
	count int

	// sample index of the oldest retained sample, used for timestamps
	pushed int64
}

// NewWindower creates a Windower holding capacity samples per channel.
func NewWindower(channels, capacity int) (*Windower, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("stream: channels must be positive, got %d", channels)
	}

	if capacity <= 0 {
		return nil, fmt.Errorf("stream: capacity must be positive, got %d", capacity)
	}

	rings := make([][]float64, channels)
	for ch := range rings {
		rings[ch] = make([]float64, capacity)
	}

	return &Windower{
		channels: channels,
		capacity: capacity,
		rings:    rings,
	}, nil
}

// Push appends one block of samples per channel. All channels must carry the
// same number of samples. NaN samples are zero-filled.
func (w *Windower) Push(block [][]float64) error {
	if len(block) != w.channels {
		return fmt.Errorf("stream: block has %d channels, want %d", len(block), w.channels)
	}

	n := len(block[0])
	for ch, samples := range block {
		if len(samples) != n {
			return fmt.Errorf("stream: channel %d has %d samples, channel 0 has %d", ch, len(samples), n)
		}
	}

	for i := 0; i < n; i++ {
		for ch := range w.rings {
			v := block[ch][i]
			if math.IsNaN(v) {
				v = 0
			}

			w.rings[ch][w.head] = v
		}

		w.head = (w.head + 1) % w.capacity
		if w.count < w.capacity {
			w.count++
		}

		w.pushed++
	}

	return nil
}

// Len returns the number of samples currently retained per channel.
func (w *Windower) Len() int {
	return w.count
}

// Full reports whether the ring has reached capacity.
func (w *Windower) Full() bool {
	return w.count == w.capacity
}

// Capacity returns the configured window length in samples.
func (w *Windower) Capacity() int {
	return w.capacity
}

// Snapshot copies the retained samples, oldest first, into a new Window.
// Timestamps are sample indices divided by the given rate.
func (w *Windower) Snapshot(sampleRate float64) Window {
	data := make([][]float64, w.channels)

	start := (w.head - w.count + w.capacity) % w.capacity
	for ch := range data {
		out := make([]float64, w.count)
		for i := 0; i < w.count; i++ {
			out[i] = w.rings[ch][(start+i)%w.capacity]
		}

		data[ch] = out
	}

	first := w.pushed - int64(w.count)
	ts := make([]float64, w.count)
	for i := range ts {
		ts[i] = float64(first+int64(i)) / sampleRate
	}

	return Window{Data: data, Timestamps: ts}
}

// Reset discards all retained samples.
func (w *Windower) Reset() {
	w.head = 0
	w.count = 0
	w.pushed = 0

	for ch := range w.rings {
		for i := range w.rings[ch] {
			w.rings[ch][i] = 0
		}
	}
}
