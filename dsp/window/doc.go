// Package window generates window function coefficients for spectral
// estimation. Only the window families used by the EEG pipeline are
// provided; all of them are short cosine sums plus the parametric Tukey
// taper.
package window
