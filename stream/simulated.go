package stream

import (
	"context"
	"fmt"

	"github.com/neurofield/alphalink/dsp/core"
	"github.com/neurofield/alphalink/dsp/signal"
)

// SimulatedConfig configures a SimulatedSource.
type SimulatedConfig struct {
	// Channels is the number of simulated channels. Defaults to 2.
	Channels int

	// SampleRate in Hz. Defaults to 250.
	SampleRate float64

	// WindowSeconds is the rolling window length. Defaults to 10.
	WindowSeconds float64

	// ChunkSeconds is how much new signal each Window call advances by once
	// the window is full. Defaults to 0.25.
	ChunkSeconds float64

	// ToneHz is the frequency of the embedded oscillation. Defaults to 10,
	// the middle of the alpha band.
	ToneHz float64

	// ToneAmplitude and NoiseAmplitude set the mixture levels.
	// Default to 1 and 0.2.
	ToneAmplitude  float64
	NoiseAmplitude float64

	// Seed makes the noise deterministic. Defaults to 1.
	Seed int64
}

func normalizeSimulatedConfig(cfg SimulatedConfig) SimulatedConfig {
	if cfg.Channels == 0 {
		cfg.Channels = 2
	}

	if cfg.SampleRate == 0 {
		cfg.SampleRate = 250
	}

	if cfg.WindowSeconds == 0 {
		cfg.WindowSeconds = 10
	}

	if cfg.ChunkSeconds == 0 {
		cfg.ChunkSeconds = 0.25
	}

	if cfg.ToneHz == 0 {
		cfg.ToneHz = 10
	}

	if cfg.ToneAmplitude == 0 {
		cfg.ToneAmplitude = 1
	}

	if cfg.NoiseAmplitude == 0 {
		cfg.NoiseAmplitude = 0.2
	}

	if cfg.Seed == 0 {
		cfg.Seed = 1
	}

	return cfg
}

// SimulatedSource synthesizes an alpha-dominated signal on demand. The tone
// is phase-continuous across Window calls, so spectral estimates over
// successive windows stay stable. It never blocks; it exists for tests and
// dry runs without hardware.
type SimulatedSource struct {
	cfg    SimulatedConfig
	gen    *signal.Generator
	win    *Windower
	phase  float64
	chunk  int
	closed bool
}

// NewSimulatedSource creates a SimulatedSource from cfg. Zero fields take
// their defaults.
func NewSimulatedSource(cfg SimulatedConfig) (*SimulatedSource, error) {
	cfg = normalizeSimulatedConfig(cfg)

	if cfg.Channels < 0 {
		return nil, fmt.Errorf("stream: channels must be positive, got %d", cfg.Channels)
	}

	if cfg.SampleRate < 0 || cfg.WindowSeconds < 0 || cfg.ChunkSeconds < 0 {
		return nil, fmt.Errorf("stream: rate %v, window %v and chunk %v must be positive",
			cfg.SampleRate, cfg.WindowSeconds, cfg.ChunkSeconds)
	}

	capacity := int(cfg.WindowSeconds * cfg.SampleRate)
	chunk := int(cfg.ChunkSeconds * cfg.SampleRate)

	if chunk <= 0 || capacity < chunk {
		return nil, fmt.Errorf("stream: window of %d samples cannot advance by chunks of %d", capacity, chunk)
	}

	win, err := NewWindower(cfg.Channels, capacity)
	if err != nil {
		return nil, err
	}

	gen := signal.NewGeneratorWithOptions(
		[]core.ProcessorOption{core.WithSampleRate(cfg.SampleRate)},
		signal.WithSeed(cfg.Seed),
	)

	return &SimulatedSource{
		cfg:   cfg,
		gen:   gen,
		win:   win,
		chunk: chunk,
	}, nil
}

// Channels returns the configured channel count.
func (s *SimulatedSource) Channels() int {
	return s.cfg.Channels
}

// SampleRate returns the configured sample rate.
func (s *SimulatedSource) SampleRate() float64 {
	return s.cfg.SampleRate
}

// Window synthesizes the next chunk of signal and returns the rolling
// window. The first call fills an entire window.
func (s *SimulatedSource) Window(ctx context.Context) (Window, error) {
	if err := ctx.Err(); err != nil {
		return Window{}, err
	}

	if s.closed {
		return Window{}, fmt.Errorf("stream: source is closed")
	}

	n := s.chunk
	if !s.win.Full() {
		n = s.win.Capacity()
	}

	tone, phase, err := s.gen.SineAt(s.cfg.ToneHz, s.cfg.ToneAmplitude, s.phase, n)
	if err != nil {
		return Window{}, err
	}

	s.phase = phase

	block := make([][]float64, s.cfg.Channels)
	for ch := range block {
		noise, err := s.gen.WhiteNoise(s.cfg.NoiseAmplitude, n)
		if err != nil {
			return Window{}, err
		}

		samples := make([]float64, n)
		for i := range samples {
			samples[i] = tone[i] + noise[i]
		}

		block[ch] = samples
	}

	if err := s.win.Push(block); err != nil {
		return Window{}, err
	}

	return s.win.Snapshot(s.cfg.SampleRate), nil
}

// Close marks the source as closed; later Window calls fail.
func (s *SimulatedSource) Close() error {
	s.closed = true

	return nil
}
