// Package sqlite provides a fingerprint store backed by a single SQLite file,
// using the pure Go modernc.org/sqlite driver. It is an alternative to the
// BadgerDB store when fingerprints should be inspectable with ordinary tools.
package sqlite
