package command

import (
	"fmt"
	"strconv"
	"strings"
)

// replyFields parses a "TAG: Key=Value Key=Value" reply.
func replyFields(line, tag string) (map[string]string, error) {
	rest, ok := strings.CutPrefix(line, tag+":")
	if !ok {
		return nil, fmt.Errorf("unexpected reply %q (want %s)", line, tag)
	}
	fields := make(map[string]string)
	for _, f := range strings.Fields(rest) {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		fields[k] = v
	}
	return fields, nil
}

// replyValue returns the text after "TAG: ".
func replyValue(line, tag string) (string, error) {
	rest, ok := strings.CutPrefix(line, tag+":")
	if !ok {
		return "", fmt.Errorf("unexpected reply %q (want %s)", line, tag)
	}
	return strings.TrimSpace(rest), nil
}

func fieldUint(fields map[string]string, key string) uint64 {
	return parseUint(fields[key])
}

// leadingCount returns the number that opens a "TAG: <n> ..." reply.
func leadingCount(line, tag string) uint64 {
	fields := strings.Fields(strings.TrimPrefix(line, tag+":"))
	if len(fields) == 0 {
		return 0
	}
	return parseUint(fields[0])
}

// parseUint returns 0 for anything that is not a decimal number.
func parseUint(s string) uint64 {
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}

// singleReply sends cmd and returns its one-line reply, failing on error
// replies.
func singleReply(client lineSender, cmd string) (string, error) {
	var first string
	err := client.Stream(cmd, func(line string) error {
		if first == "" {
			first = line
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	if isErrorReply(first) {
		return "", fmt.Errorf("%s: logger replied %q", cmd, first)
	}
	return first, nil
}

// lineSender is the part of connection.Client the commands use.
type lineSender interface {
	Stream(cmd string, fn func(line string) error) error
}
