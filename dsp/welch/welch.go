package welch

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/neurofield/alphalink/dsp/window"
)

// Config holds Welch estimation parameters.
type Config struct {
	SampleRate    float64
	SegmentLength int     // samples per segment; default 256
	OverlapFrac   float64 // fraction of SegmentLength in [0, 1); 0 means no overlap
	WindowType    window.Type
}

func normalizeConfig(cfg Config) Config {
	if cfg.SegmentLength <= 0 {
		cfg.SegmentLength = 256
	}
	if cfg.OverlapFrac < 0 || cfg.OverlapFrac >= 1 {
		cfg.OverlapFrac = 0.5
	}
	if cfg.WindowType == window.TypeRectangular {
		cfg.WindowType = window.TypeHann
	}
	return cfg
}

// PSD is a one-sided power spectral density estimate.
//
// Values holds density bins from DC to Nyquist (length fftSize/2+1) in
// units of signal²/Hz. BinHz is the frequency spacing between bins.
type PSD struct {
	Values []float64
	BinHz  float64
}

// Freq returns the frequency in Hz of bin i.
func (p PSD) Freq(i int) float64 {
	return float64(i) * p.BinHz
}

// BandAverage returns the mean density over bins whose frequency lies in
// [loHz, hiHz). It returns an error when the band selects no bins.
func (p PSD) BandAverage(loHz, hiHz float64) (float64, error) {
	if hiHz <= loHz {
		return 0, fmt.Errorf("welch band bounds invalid: [%f, %f)", loHz, hiHz)
	}

	sum := 0.0
	count := 0
	for i, v := range p.Values {
		f := p.Freq(i)
		if f >= loHz && f < hiHz {
			sum += v
			count++
		}
	}

	if count == 0 {
		return 0, fmt.Errorf("welch band [%f, %f) selects no bins (binHz=%f)", loHz, hiHz, p.BinHz)
	}

	return sum / float64(count), nil
}

// BandPower integrates the density over [loHz, hiHz) using the rectangle
// rule, yielding total power in the band in signal² units.
func (p PSD) BandPower(loHz, hiHz float64) (float64, error) {
	avg, err := p.BandAverage(loHz, hiHz)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range p.Values {
		f := p.Freq(i)
		if f >= loHz && f < hiHz {
			count++
		}
	}

	return avg * float64(count) * p.BinHz, nil
}

// Estimator computes Welch PSD estimates with a reusable FFT plan and
// scratch buffers. It is not safe for concurrent use.
type Estimator struct {
	cfg     Config
	fftSize int
	plan    *algofft.Plan[complex128]
	coeffs  []float64
	winNorm float64 // sampleRate * sum(w^2)

	in  []complex128
	out []complex128
	re  []float64
	im  []float64
	pw  []float64
}

// NewEstimator creates a Welch estimator for the given configuration.
func NewEstimator(cfg Config) (*Estimator, error) {
	cfg = normalizeConfig(cfg)
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("welch sample rate must be > 0: %f", cfg.SampleRate)
	}

	fftSize := nextPowerOf2(cfg.SegmentLength)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("welch fft plan (size %d): %w", fftSize, err)
	}

	coeffs := window.Generate(cfg.WindowType, cfg.SegmentLength, window.WithPeriodic())

	sumSq := 0.0
	for _, c := range coeffs {
		sumSq += c * c
	}
	if sumSq == 0 {
		return nil, fmt.Errorf("welch window has zero energy")
	}

	bins := fftSize/2 + 1

	return &Estimator{
		cfg:     cfg,
		fftSize: fftSize,
		plan:    plan,
		coeffs:  coeffs,
		winNorm: cfg.SampleRate * sumSq,
		in:      make([]complex128, fftSize),
		out:     make([]complex128, fftSize),
		re:      make([]float64, bins),
		im:      make([]float64, bins),
		pw:      make([]float64, bins),
	}, nil
}

// SegmentLength returns the configured samples per segment.
func (e *Estimator) SegmentLength() int { return e.cfg.SegmentLength }

// BinHz returns the frequency resolution of the estimate.
func (e *Estimator) BinHz() float64 {
	return e.cfg.SampleRate / float64(e.fftSize)
}

// Estimate computes the one-sided Welch PSD of signal. The signal must be
// at least one segment long. Segments are de-meaned, windowed, transformed
// and their periodograms averaged.
func (e *Estimator) Estimate(signal []float64) (PSD, error) {
	n := len(signal)
	seg := e.cfg.SegmentLength
	if n < seg {
		return PSD{}, fmt.Errorf("welch signal too short: %d < segment %d", n, seg)
	}

	step := seg - int(float64(seg)*e.cfg.OverlapFrac)
	if step < 1 {
		step = 1
	}

	bins := e.fftSize/2 + 1
	acc := make([]float64, bins)
	segments := 0

	for start := 0; start+seg <= n; start += step {
		if err := e.accumulate(acc, signal[start:start+seg]); err != nil {
			return PSD{}, err
		}
		segments++
	}

	inv := 1 / (float64(segments) * e.winNorm)
	for i := range acc {
		acc[i] *= inv
		// One-sided spectrum: double everything except DC and Nyquist.
		if i != 0 && i != bins-1 {
			acc[i] *= 2
		}
	}

	return PSD{Values: acc, BinHz: e.BinHz()}, nil
}

func (e *Estimator) accumulate(acc, segment []float64) error {
	mean := 0.0
	for _, v := range segment {
		mean += v
	}
	mean /= float64(len(segment))

	for i := range e.in {
		if i < len(segment) {
			e.in[i] = complex((segment[i]-mean)*e.coeffs[i], 0)
		} else {
			e.in[i] = 0
		}
	}

	if err := e.plan.Forward(e.out, e.in); err != nil {
		return fmt.Errorf("welch fft: %w", err)
	}

	bins := e.fftSize/2 + 1
	for i := 0; i < bins; i++ {
		e.re[i] = real(e.out[i])
		e.im[i] = imag(e.out[i])
	}

	vecmath.Power(e.pw, e.re, e.im)
	for i := range acc {
		acc[i] += e.pw[i]
	}

	return nil
}

// Estimate is a one-shot convenience wrapper around NewEstimator.
func Estimate(signal []float64, cfg Config) (PSD, error) {
	est, err := NewEstimator(cfg)
	if err != nil {
		return PSD{}, err
	}
	return est.Estimate(signal)
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
