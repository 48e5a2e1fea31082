// Package command provides the aerosense-cli command tree (urfave/cli/v2).
//
//   - root.go: application, global flags, shared helpers
//   - connect.go: console and send, over the logger's command link
//   - system.go: status and version
//   - ring.go: ring log inspection, offline against a storage image or
//     downloaded over the link
//   - flights.go: flight listing, verification and export, offline
//     against a mounted card or fetched over the link
//   - config.go: CLI and station configuration
package command
