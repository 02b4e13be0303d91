package feedback

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/neurofield/alphalink/stream"
)

// memSink records scores and optionally cancels after a quota.
type memSink struct {
	mu     sync.Mutex
	scores []float64
	quota  int
	cancel context.CancelFunc
}

func (s *memSink) Emit(score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scores = append(s.scores, score)
	if s.cancel != nil && len(s.scores) >= s.quota {
		s.cancel()
	}

	return nil
}

func (s *memSink) all() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]float64, len(s.scores))
	copy(out, s.scores)

	return out
}

func newTestSource(t *testing.T) *stream.SimulatedSource {
	t.Helper()

	src, err := stream.NewSimulatedSource(stream.SimulatedConfig{
		Channels:      2,
		SampleRate:    250,
		WindowSeconds: 2,
		ChunkSeconds:  0.25,
	})
	if err != nil {
		t.Fatalf("NewSimulatedSource: %v", err)
	}

	return src
}

func TestNewLoopValidation(t *testing.T) {
	src := newTestSource(t)
	sink := &memSink{}

	if _, err := NewLoop(Config{Sink: sink}); err == nil {
		t.Fatal("expected error without source")
	}

	if _, err := NewLoop(Config{Source: src}); err == nil {
		t.Fatal("expected error without sink")
	}

	if _, err := NewLoop(Config{Source: src, Sink: sink, Channel: 5}); err == nil {
		t.Fatal("expected error for out-of-range channel")
	}

	if _, err := NewLoop(Config{Source: src, Sink: sink, BandLowHz: 12, BandHighHz: 8}); err == nil {
		t.Fatal("expected error for inverted band")
	}
}

func TestScoreFavorsInBandTone(t *testing.T) {
	src := newTestSource(t)
	sink := &memSink{}

	loop, err := NewLoop(Config{Source: src, Sink: sink})
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}

	win, err := src.Window(context.Background())
	if err != nil {
		t.Fatalf("Window: %v", err)
	}

	alpha, err := loop.Score(win)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	// Score the same window against the beta band; the 10 Hz tone must
	// lift the alpha score far above it.
	betaLoop, err := NewLoop(Config{Source: src, Sink: sink, BandLowHz: 20, BandHighHz: 30})
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}

	beta, err := betaLoop.Score(win)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if alpha < 10*beta {
		t.Fatalf("alpha score %v not dominant over beta score %v", alpha, beta)
	}
}

func TestRunCapturesBaselineThenEmits(t *testing.T) {
	src := newTestSource(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &memSink{quota: 5, cancel: cancel}

	loop, err := NewLoop(Config{
		Source:          src,
		Sink:            sink,
		Interval:        time.Millisecond,
		BaselineWindows: 8,
	})
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}

	err = loop.Run(ctx)
	if err != context.Canceled {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	if !loop.BaselineReady() {
		t.Fatal("baseline not captured")
	}

	scores := sink.all()
	if len(scores) < 5 {
		t.Fatalf("got %d scores, want at least 5", len(scores))
	}

	// Overlapping windows keep the baseline variance small, so the z-score
	// magnitude is not bounded tightly; it must at least be finite.
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			t.Fatalf("score %d = %v is not finite", i, s)
		}
	}
}

func TestRunStopsOnImmediateCancel(t *testing.T) {
	src := newTestSource(t)
	sink := &memSink{}

	loop, err := NewLoop(Config{Source: src, Sink: sink, Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := loop.Run(ctx); err != context.Canceled {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	if len(sink.all()) != 0 {
		t.Fatal("cancelled loop must not emit")
	}
}
