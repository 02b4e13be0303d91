// Package design computes biquad coefficients for the filter shapes the
// EEG pipeline needs: RBJ lowpass/highpass/bandpass/notch sections and
// Butterworth cascades built from them. The returned coefficient slices
// are applied with dsp/filter/biquad chains.
package design
