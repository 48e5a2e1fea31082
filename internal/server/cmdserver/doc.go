// Package cmdserver provides the line-oriented command protocol used by the
// ground station to control an AeroSense logger.
//
// Commands are ASCII lines terminated by CR or LF, matched case-insensitively.
// Numeric arguments follow the command name after a colon, as in
// DOWNLOAD_FLIGHT:12. Every command produces exactly one response line, or a
// bounded block framed by start and end lines (LIST_FLIGHTS,
// DOWNLOAD_FLIGHT, RING_DOWNLOAD, HELP).
//
// The same protocol is served over a serial port (the Bluetooth SPP bridge),
// TCP or unix sockets for bench testing, or stdin/stdout. Dispatch is
// serialised across transports so the logs never see interleaved commands.
package cmdserver
