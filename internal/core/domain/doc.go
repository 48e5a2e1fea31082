// Package domain defines the core domain models for AeroSense.
//
// Domain models are pure value objects without any IO dependencies.
// This package contains:
//
//   - SensorSnapshot: one reading of every onboard channel
//   - LogRecord: snapshot plus sequence id, timestamp, validity and checksum
//   - Session: a recording interval ("flight") on removable storage
//   - Errors: coded domain errors shared by both logs and the protocol
//
// LogRecord has a fixed 84-byte little-endian layout so it can be stored
// in fixed slots of a flat file.
package domain
