// Package bands defines the clinical EEG frequency bands and extracts
// per-band power from a Welch PSD estimate.
package bands

import (
	"fmt"

	"github.com/neurofield/alphalink/dsp/welch"
)

// Band is a half-open frequency range [Lo, Hi) in Hz.
type Band struct {
	Name string
	Lo   float64
	Hi   float64
}

// The conventional EEG band edges.
var (
	Delta = Band{Name: "delta", Lo: 1, Hi: 4}
	Theta = Band{Name: "theta", Lo: 4, Hi: 8}
	Alpha = Band{Name: "alpha", Lo: 8, Hi: 12}
	Beta  = Band{Name: "beta", Lo: 12, Hi: 30}
	Gamma = Band{Name: "gamma", Lo: 30, Hi: 45}
)

// All lists the standard bands in ascending frequency order.
var All = []Band{Delta, Theta, Alpha, Beta, Gamma}

// ByName resolves a band by its lowercase name.
func ByName(name string) (Band, error) {
	for _, b := range All {
		if b.Name == name {
			return b, nil
		}
	}
	return Band{}, fmt.Errorf("unknown EEG band: %q", name)
}

// Width returns the band width in Hz.
func (b Band) Width() float64 {
	return b.Hi - b.Lo
}

// Average returns the mean PSD density inside the band.
func (b Band) Average(psd welch.PSD) (float64, error) {
	return psd.BandAverage(b.Lo, b.Hi)
}

// Power returns the integrated PSD power inside the band.
func (b Band) Power(psd welch.PSD) (float64, error) {
	return psd.BandPower(b.Lo, b.Hi)
}

// Powers holds the integrated power of every standard band.
type Powers struct {
	Delta float64
	Theta float64
	Alpha float64
	Beta  float64
	Gamma float64
}

// Extract computes the integrated power of all standard bands from psd.
func Extract(psd welch.PSD) (Powers, error) {
	var p Powers

	for _, pair := range []struct {
		band Band
		dst  *float64
	}{
		{Delta, &p.Delta},
		{Theta, &p.Theta},
		{Alpha, &p.Alpha},
		{Beta, &p.Beta},
		{Gamma, &p.Gamma},
	} {
		v, err := pair.band.Power(psd)
		if err != nil {
			return Powers{}, fmt.Errorf("band %s: %w", pair.band.Name, err)
		}
		*pair.dst = v
	}

	return p, nil
}

// RelativeAlpha returns alpha power as a fraction of the summed power of
// all standard bands. It returns 0 when total power is 0.
func (p Powers) RelativeAlpha() float64 {
	total := p.Delta + p.Theta + p.Alpha + p.Beta + p.Gamma
	if total == 0 {
		return 0
	}
	return p.Alpha / total
}
