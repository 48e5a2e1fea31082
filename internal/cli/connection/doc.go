// Package connection talks to a running logger over its command protocol.
//
//   - client.go: line client that sends one command and collects its reply,
//     following multi-line frames such as HELP or DOWNLOAD_FLIGHT
//   - dial.go: TCP, unix socket and serial (Bluetooth SPP) transports
//   - manager.go: the current connection of a CLI invocation or console
package connection
