// Package main provides the entry point for aerosense-cli.
//
// aerosense-cli is the ground tool for AeroSense loggers. It talks the
// command protocol over a Bluetooth serial link or a socket, and decodes
// ring images and flight cards offline.
package main
