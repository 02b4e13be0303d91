// Package stream provides the acquisition side of the feedback pipeline: a
// Source abstraction over live sample streams, a fixed-capacity rolling
// window, and a simulated source for tests and dry runs.
package stream
