// Package cmdserver provides the line-oriented command protocol.
package cmdserver

import (
	"strconv"
	"strings"

	"github.com/yndnr/aerosense-go/internal/core/domain"
)

// Canonical command names.
const (
	CmdStart          = "START"
	CmdStop           = "STOP"
	CmdStatus         = "STATUS"
	CmdHelp           = "HELP"
	CmdLegacyStart    = "1"
	CmdLegacyStop     = "0"
	CmdStartFlight    = "LOG_START"
	CmdEndFlight      = "LOG_STOP"
	CmdListFlights    = "LIST_FLIGHTS"
	CmdDownloadFlight = "DOWNLOAD_FLIGHT"
	CmdDeleteFlight   = "DELETE_FLIGHT"
	CmdStorageInfo    = "STORAGE_INFO"
	CmdFormat         = "CLEAR_DATA"
	CmdVerify         = "VERIFY"
	CmdRingDownload   = "RING_DOWNLOAD"
	CmdRingClear      = "RING_CLEAR"
	CmdVersion        = "VERSION"
)

// commandSpec describes one command for dispatch and HELP.
type commandSpec struct {
	Name    string
	Aliases []string
	Arg     string // argument placeholder, empty when none is taken
	Help    string
}

// commands is the command table in HELP order.
var commands = []commandSpec{
	{CmdStart, []string{"BEGIN"}, "", "start ring logging"},
	{CmdStop, []string{"END"}, "", "stop ring logging"},
	{CmdStatus, nil, "", "logger status"},
	{CmdStartFlight, []string{"START_FLIGHT"}, "", "open a new flight on the card"},
	{CmdEndFlight, []string{"END_FLIGHT"}, "", "close the open flight"},
	{CmdListFlights, nil, "", "list recorded flights"},
	{CmdDownloadFlight, nil, "n", "stream flight n"},
	{CmdDeleteFlight, nil, "n", "delete the file of flight n"},
	{CmdStorageInfo, nil, "", "card status"},
	{CmdFormat, []string{"FORMAT"}, "", "erase every flight on the card"},
	{CmdVerify, nil, "", "check indexed flights against the card"},
	{CmdRingDownload, nil, "", "stream the ring log"},
	{CmdRingClear, nil, "", "erase the ring log"},
	{CmdVersion, nil, "", "firmware version"},
	{CmdHelp, []string{"?"}, "", "this list"},
}

var (
	specs   = make(map[string]commandSpec, len(commands)+2)
	aliases = make(map[string]string)
)

func init() {
	for _, c := range commands {
		specs[c.Name] = c
		for _, a := range c.Aliases {
			aliases[a] = c.Name
		}
	}
	specs[CmdLegacyStart] = commandSpec{Name: CmdLegacyStart}
	specs[CmdLegacyStop] = commandSpec{Name: CmdLegacyStop}
}

// Command is a parsed command line.
type Command struct {
	// Raw is the trimmed, upper-cased line.
	Raw string
	// Name is the canonical command name, empty when unknown.
	Name string
	// Arg is the text after the first colon.
	Arg    string
	HasArg bool
}

// ParseCommand normalises line and resolves aliases.
func ParseCommand(line string) Command {
	raw := strings.ToUpper(strings.TrimSpace(line))
	cmd := Command{Raw: raw}

	name := raw
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		name = strings.TrimSpace(raw[:i])
		cmd.Arg = strings.TrimSpace(raw[i+1:])
		cmd.HasArg = true
	}
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	if _, ok := specs[name]; ok {
		cmd.Name = name
	}
	return cmd
}

// ArgResult is the outcome of parsing a command argument.
type ArgResult struct {
	Value uint16
	Err   error
}

// OK reports whether the argument parsed.
func (r ArgResult) OK() bool { return r.Err == nil }

// FlightNumber parses the command's argument as a flight number (1..65535).
func (c Command) FlightNumber() ArgResult {
	if !c.HasArg || c.Arg == "" {
		return ArgResult{Err: domain.ErrMissingArgument.WithDetails("flight number")}
	}
	n, err := strconv.ParseUint(c.Arg, 10, 16)
	if err != nil || n == 0 {
		return ArgResult{Err: domain.ErrInvalidArgument.WithDetails("invalid flight number '" + c.Arg + "'")}
	}
	return ArgResult{Value: uint16(n)}
}

// takesArg reports whether the command expects an argument.
func (c Command) takesArg() bool {
	return specs[c.Name].Arg != ""
}
