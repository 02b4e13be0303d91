// Package signal generates deterministic test signals: pure tones, white
// noise and a synthetic EEG-like mixture with a controllable alpha
// component. The generators back both unit tests and the simulated
// acquisition source.
package signal

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/neurofield/alphalink/dsp/core"
)

// Generator creates deterministic signals from a shared configuration.
type Generator struct {
	cfg  core.ProcessorConfig
	seed int64
	rng  *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
		g.rng = nil
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(opts ...core.ProcessorOption) *Generator {
	return &Generator{
		cfg:  core.ApplyProcessorOptions(opts...),
		seed: 1,
	}
}

// NewGeneratorWithOptions creates a configured signal generator with
// signal-specific options.
func NewGeneratorWithOptions(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := &Generator{
		cfg:  core.ApplyProcessorOptions(coreOpts...),
		seed: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the generator processor configuration.
func (g *Generator) Config() core.ProcessorConfig {
	return g.cfg
}

// Sine generates a sine wave.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("sine samples must be > 0: %d", samples)
	}
	if g.cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sine sample rate must be > 0: %f", g.cfg.SampleRate)
	}
	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.cfg.SampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out, nil
}

// SineAt generates a sine wave starting at the given phase offset in
// radians. Streaming sources use it to keep tone phase continuous across
// successive blocks.
func (g *Generator) SineAt(freqHz, amplitude, phase float64, samples int) ([]float64, float64, error) {
	if samples <= 0 {
		return nil, phase, fmt.Errorf("sine samples must be > 0: %d", samples)
	}
	if g.cfg.SampleRate <= 0 {
		return nil, phase, fmt.Errorf("sine sample rate must be > 0: %f", g.cfg.SampleRate)
	}
	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.cfg.SampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(phase)
		phase += step
	}
	phase = math.Mod(phase, 2*math.Pi)
	return out, phase, nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
// The noise stream is seeded once per Generator and advances across calls,
// so successive blocks are distinct but reproducible for a given seed.
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("noise samples must be > 0: %d", samples)
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("noise amplitude must be >= 0: %f", amplitude)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(g.seed))
	}
	out := make([]float64, samples)
	for i := range out {
		out[i] = (g.rng.Float64()*2 - 1) * amplitude
	}
	return out, nil
}

// AlphaMixture generates a synthetic single-channel EEG-like signal: a
// 10 Hz alpha tone of the given amplitude over a bed of deterministic
// broadband noise.
func (g *Generator) AlphaMixture(alphaAmplitude, noiseAmplitude float64, samples int) ([]float64, error) {
	tone, err := g.Sine(10, alphaAmplitude, samples)
	if err != nil {
		return nil, err
	}

	noise, err := g.WhiteNoise(noiseAmplitude, samples)
	if err != nil {
		return nil, err
	}

	for i := range tone {
		tone[i] += noise[i]
	}
	return tone, nil
}

// Normalize scales data to target peak amplitude and returns a new slice.
func Normalize(data []float64, targetPeak float64) ([]float64, error) {
	if targetPeak < 0 {
		return nil, fmt.Errorf("normalize target peak must be >= 0: %f", targetPeak)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("normalize input must not be empty")
	}

	maxAbs := 0.0
	for _, v := range data {
		av := math.Abs(v)
		if av > maxAbs {
			maxAbs = av
		}
	}

	out := make([]float64, len(data))
	if maxAbs == 0 || targetPeak == 0 {
		return out, nil
	}

	scale := targetPeak / maxAbs
	for i, v := range data {
		out[i] = v * scale
	}
	return out, nil
}
