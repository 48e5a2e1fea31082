// Package service provides domain services for AeroSense.
//
// It defines the views of the two logs that the rest of the system
// depends on (RingLog, SessionLog) and the Recorder, which turns sensor
// snapshots into checksummed records and routes each one to the active
// log: the open flight on removable storage, or the ring log on internal
// storage when no flight is open.
package service
