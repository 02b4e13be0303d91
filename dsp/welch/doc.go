// Package welch estimates power spectral density via Welch's method of
// averaged, windowed periodograms. The estimate is one-sided and scaled
// as a density (signal²/Hz), so integrating a band yields the signal
// power contained in it.
package welch
