package feedback

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/neurofield/alphalink/dsp/filter/biquad"
	"github.com/neurofield/alphalink/dsp/filter/design"
	"github.com/neurofield/alphalink/dsp/welch"
	"github.com/neurofield/alphalink/neuro/baseline"
	"github.com/neurofield/alphalink/stream"
)

// Config configures a Loop.
type Config struct {
	// Source provides the rolling sample window.
	Source stream.Source

	// Sink receives normalized scores once the baseline is captured.
	Sink Sink

	// Channel selects which source channel is scored. Defaults to 0.
	Channel int

	// Interval is the polling cadence. Defaults to 250 ms.
	Interval time.Duration

	// FilterLowHz and FilterHighHz bound the band-pass filter applied to
	// the raw window. Default to 1 and 35 Hz.
	FilterLowHz  float64
	FilterHighHz float64

	// FilterOrder is the Butterworth order per edge. Defaults to 3.
	FilterOrder int

	// BandLowHz and BandHighHz bound the scored band. Default to the
	// alpha band, 8 to 12 Hz.
	BandLowHz  float64
	BandHighHz float64

	// CropSeconds is how much of the filtered window tail is scored.
	// Defaults to 1 s.
	CropSeconds float64

	// BaselineWindows is the number of reference scores captured before
	// any score is emitted. Defaults to 40.
	BaselineWindows int

	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

func normalizeConfig(cfg Config) Config {
	if cfg.Interval == 0 {
		cfg.Interval = 250 * time.Millisecond
	}

	if cfg.FilterLowHz == 0 {
		cfg.FilterLowHz = 1
	}

	if cfg.FilterHighHz == 0 {
		cfg.FilterHighHz = 35
	}

	if cfg.FilterOrder == 0 {
		cfg.FilterOrder = 3
	}

	if cfg.BandLowHz == 0 {
		cfg.BandLowHz = 8
	}

	if cfg.BandHighHz == 0 {
		cfg.BandHighHz = 12
	}

	if cfg.CropSeconds == 0 {
		cfg.CropSeconds = 1
	}

	if cfg.BaselineWindows == 0 {
		cfg.BaselineWindows = 40
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return cfg
}

// Loop is the neurofeedback control loop. It owns a single goroutine of
// control; Run blocks until the context is cancelled.
type Loop struct {
	cfg   Config
	log   *zap.Logger
	chain *biquad.Chain
	est   *welch.Estimator
	base  *baseline.Collector
	crop  int
}

// NewLoop creates a Loop from cfg. Zero fields take their defaults.
func NewLoop(cfg Config) (*Loop, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("feedback: source is required")
	}

	if cfg.Sink == nil {
		return nil, fmt.Errorf("feedback: sink is required")
	}

	cfg = normalizeConfig(cfg)

	if cfg.Channel < 0 || cfg.Channel >= cfg.Source.Channels() {
		return nil, fmt.Errorf("feedback: channel %d out of range for %d-channel source",
			cfg.Channel, cfg.Source.Channels())
	}

	rate := cfg.Source.SampleRate()
	if rate <= 0 {
		return nil, fmt.Errorf("feedback: source sample rate must be positive, got %v", rate)
	}

	if cfg.FilterLowHz >= cfg.FilterHighHz {
		return nil, fmt.Errorf("feedback: filter band %v..%v Hz is empty", cfg.FilterLowHz, cfg.FilterHighHz)
	}

	if cfg.BandLowHz >= cfg.BandHighHz {
		return nil, fmt.Errorf("feedback: scored band %v..%v Hz is empty", cfg.BandLowHz, cfg.BandHighHz)
	}

	crop := int(cfg.CropSeconds * rate)
	if crop <= 0 {
		return nil, fmt.Errorf("feedback: crop of %v s keeps no samples at %v Hz", cfg.CropSeconds, rate)
	}

	coeffs := design.ButterworthBand(cfg.FilterLowHz, cfg.FilterHighHz, cfg.FilterOrder, rate)

	est, err := welch.NewEstimator(welch.Config{
		SampleRate:    rate,
		SegmentLength: crop,
	})
	if err != nil {
		return nil, fmt.Errorf("feedback: estimator: %w", err)
	}

	base, err := baseline.NewCollector(cfg.BaselineWindows)
	if err != nil {
		return nil, fmt.Errorf("feedback: %w", err)
	}

	return &Loop{
		cfg:   cfg,
		log:   cfg.Logger,
		chain: biquad.NewChain(coeffs),
		est:   est,
		base:  base,
		crop:  crop,
	}, nil
}

// Run polls the source at the configured interval until ctx is cancelled.
// Processing time is subtracted from each sleep, so a slow iteration does
// not push later ones off cadence; when processing overruns the interval
// the next iteration starts immediately.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("feedback loop starting",
		zap.Duration("interval", l.cfg.Interval),
		zap.Float64("bandLowHz", l.cfg.BandLowHz),
		zap.Float64("bandHighHz", l.cfg.BandHighHz),
		zap.Int("baselineWindows", l.cfg.BaselineWindows))

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		started := time.Now()

		if err := l.step(ctx); err != nil {
			if ctx.Err() != nil {
				l.log.Info("feedback loop stopped")
				return ctx.Err()
			}

			return err
		}

		delay := l.cfg.Interval - time.Since(started)
		if delay < 0 {
			delay = 0
		}

		timer.Reset(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			l.log.Info("feedback loop stopped")
			return ctx.Err()
		}
	}
}

// step runs one iteration: acquire, filter, crop, score, normalize, emit.
func (l *Loop) step(ctx context.Context) error {
	win, err := l.cfg.Source.Window(ctx)
	if err != nil {
		return fmt.Errorf("feedback: acquire: %w", err)
	}

	score, err := l.Score(win)
	if err != nil {
		return err
	}

	if !l.base.Ready() {
		l.base.Add(score)

		if l.base.Ready() {
			l.log.Info("baseline captured",
				zap.Int("windows", l.base.Capacity()),
				zap.Float64("mean", l.base.Mean()),
				zap.Float64("std", l.base.Std()))
		}

		return nil
	}

	normalized := l.base.Normalize(score)

	if err := l.cfg.Sink.Emit(normalized); err != nil {
		return fmt.Errorf("feedback: emit: %w", err)
	}

	l.log.Debug("score emitted",
		zap.Float64("raw", score),
		zap.Float64("normalized", normalized))

	return nil
}

// Score computes the raw band-power score of one window: band-pass filter
// the selected channel, keep the most recent crop, estimate the PSD and
// average it over the scored band.
func (l *Loop) Score(win stream.Window) (float64, error) {
	samples := win.Data[l.cfg.Channel]
	if len(samples) < l.crop {
		return 0, fmt.Errorf("feedback: window of %d samples is shorter than the %d-sample crop",
			len(samples), l.crop)
	}

	filtered := make([]float64, len(samples))
	copy(filtered, samples)

	// The filter is stateless across iterations: each window is filtered
	// from rest, and the startup transient stays outside the scored crop.
	l.chain.Reset()
	l.chain.ProcessBlock(filtered)

	crop := filtered[len(filtered)-l.crop:]

	psd, err := l.est.Estimate(crop)
	if err != nil {
		return 0, fmt.Errorf("feedback: psd: %w", err)
	}

	avg, err := psd.BandAverage(l.cfg.BandLowHz, l.cfg.BandHighHz)
	if err != nil {
		return 0, fmt.Errorf("feedback: band average: %w", err)
	}

	return avg, nil
}

// BaselineReady reports whether the calibration phase has completed.
func (l *Loop) BaselineReady() bool {
	return l.base.Ready()
}
