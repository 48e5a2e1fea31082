// Package localserver provides the ingest socket for the host polling loop.
//
// The polling loop that reads the sensor drivers runs as a separate process
// and hands each snapshot to the logger over a Unix domain socket:
//
//   - one JSON-encoded SensorSnapshot per line
//   - one reply line per snapshot: "OK <target> <sequence>" or
//     "ERR <code> <message>"
//
// Access is controlled by the socket's file permissions.
package localserver
