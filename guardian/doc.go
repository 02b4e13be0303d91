// Package guardian implements the Guardian earbud wire protocol: the GATT
// characteristic layout, the command bytes written to the device, and the
// codec that authenticates and unpacks notification frames into EEG and
// motion samples.
package guardian
