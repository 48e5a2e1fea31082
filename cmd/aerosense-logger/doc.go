// Package main provides the entry point for aerosense-logger.
//
// The logger is the onboard recording process. It provides:
//
//   - the ring log on internal storage and the flight log on the card
//   - the line command protocol on serial, tcp, unix or stdio
//   - a unix ingest socket fed by the sensor polling loop
//   - an optional monitoring endpoint with Prometheus metrics
//
// Usage:
//
//	aerosense-logger [flags]
//	aerosense-logger --config /etc/aerosense/logger.yaml
//
// Configuration is read from defaults, the file, then AEROSENSE_*
// variables. Changes to log.level in the file apply without a restart.
package main
