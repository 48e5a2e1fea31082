// Package repl provides the interactive console of aerosense-cli.
//
// Each input line is sent to the connected logger as one protocol command
// and its full reply is printed. A few words are handled locally: exit,
// quit and history. Unknown commands get suggestions from the completer.
package repl
