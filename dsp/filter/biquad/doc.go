// Package biquad implements second-order IIR filter sections and cascades
// in Direct Form II Transposed. Sections are designed by the
// dsp/filter/design package and applied sample-wise or block-wise.
package biquad
