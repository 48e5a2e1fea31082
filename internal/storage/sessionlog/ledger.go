// Package sessionlog provides the per-flight log on removable storage.
package sessionlog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/yndnr/aerosense-go/internal/core/domain"
)

// counters is the content of aerosense_config.txt.
type counters struct {
	LastFlight    uint16
	CurrentFlight uint16
	CurrentStart  uint32
	TotalFlights  uint32
	TotalRecords  uint32
	CardSizeMB    uint64
}

func (c counters) encode() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "last_flight=%d\n", c.LastFlight)
	fmt.Fprintf(&b, "current_flight=%d\n", c.CurrentFlight)
	fmt.Fprintf(&b, "current_start=%d\n", c.CurrentStart)
	fmt.Fprintf(&b, "total_flights=%d\n", c.TotalFlights)
	fmt.Fprintf(&b, "total_records=%d\n", c.TotalRecords)
	fmt.Fprintf(&b, "card_size_mb=%d\n", c.CardSizeMB)
	return b.Bytes()
}

// readCounters parses a counters file. A missing file yields zero counters;
// unknown keys and unparsable values are ignored.
func readCounters(path string) (counters, error) {
	var c counters
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, err
	}

	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			continue
		}
		switch strings.TrimSpace(key) {
		case "last_flight":
			c.LastFlight = uint16(n)
		case "current_flight":
			c.CurrentFlight = uint16(n)
		case "current_start":
			c.CurrentStart = uint32(n)
		case "total_flights":
			c.TotalFlights = uint32(n)
		case "total_records":
			c.TotalRecords = uint32(n)
		case "card_size_mb":
			c.CardSizeMB = n
		}
	}
	return c, sc.Err()
}

// formatIndexLine renders one index entry without the trailing newline.
func formatIndexLine(s domain.Session) string {
	return fmt.Sprintf("%d,%d,%d,%d,%s", s.Number, s.StartTime, s.EndTime, s.RecordCount, s.Name)
}

// parseIndexLine is the inverse of formatIndexLine.
func parseIndexLine(line string) (domain.Session, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 5 {
		return domain.Session{}, fmt.Errorf("index line has %d fields, want 5", len(parts))
	}
	number, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return domain.Session{}, fmt.Errorf("flight number: %w", err)
	}
	start, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return domain.Session{}, fmt.Errorf("start time: %w", err)
	}
	end, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return domain.Session{}, fmt.Errorf("end time: %w", err)
	}
	count, err := strconv.ParseUint(parts[3], 10, 32)
	if err != nil {
		return domain.Session{}, fmt.Errorf("record count: %w", err)
	}
	return domain.Session{
		Number:      uint16(number),
		StartTime:   uint32(start),
		EndTime:     uint32(end),
		RecordCount: uint32(count),
		Name:        parts[4],
	}, nil
}

// readIndex returns the index entries in append order and the number of
// lines that could not be parsed. A missing index is empty.
func readIndex(path string) ([]domain.Session, int, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var (
		entries []domain.Session
		bad     int
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		s, err := parseIndexLine(line)
		if err != nil {
			bad++
			continue
		}
		entries = append(entries, s)
	}
	return entries, bad, sc.Err()
}
