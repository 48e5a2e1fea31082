// Package config holds aerosense-cli's own settings (~/.aerosense/cli.yaml):
// named logger targets, default output format, reply timeout, the default
// ring image directory and card mount, and the console history file.
package config
