// Package feedback runs the neurofeedback loop: poll a rolling window from
// the source, band-pass filter it, score the most recent second by its
// averaged band power, normalize against a calibration baseline and emit
// the score to a sink.
package feedback
