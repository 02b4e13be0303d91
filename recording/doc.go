// Package recording turns captured cloud messages back into sample data and
// keeps a local index of recording sessions.
package recording
