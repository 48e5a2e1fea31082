// Package buildinfo reports the version of the AeroSense binaries.
//
// The logger answers VERSION with Short(), and aerosense-cli prints both
// its own and the logger's version. Release builds set the values with
// ldflags:
//
//	go build -ldflags "-X github.com/yndnr/aerosense-go/internal/infra/buildinfo.Version=2.1.0"
//
// Development builds fall back to the VCS stamp the toolchain embeds.
package buildinfo
