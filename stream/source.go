package stream

import "context"

// Window is a rolling view of the most recent samples, oldest first.
// Data is indexed [channel][sample]; Timestamps holds one value per sample
// in seconds relative to the start of the stream.
type Window struct {
	Data       [][]float64
	Timestamps []float64
}

// Samples returns the number of samples per channel in the window.
func (w Window) Samples() int {
	if len(w.Data) == 0 {
		return 0
	}

	return len(w.Data[0])
}

// Source is a live sample stream. Window blocks until a full rolling window
// is available, then returns the most recent one. Implementations must honor
// context cancellation while blocked.
type Source interface {
	Channels() int
	SampleRate() float64
	Window(ctx context.Context) (Window, error)
	Close() error
}
