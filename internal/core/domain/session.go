// Package domain defines the core domain models for AeroSense.
package domain

import "fmt"

// Session is one recording interval on removable storage (a "flight").
//
// Number is 1-based and never reused across the lifetime of the medium.
// EndTime is zero while the session is open.
type Session struct {
	Number      uint16 `json:"number"`
	StartTime   uint32 `json:"start_time" table:"unix"`
	EndTime     uint32 `json:"end_time" table:"unix"`
	RecordCount uint32 `json:"record_count"`
	Name        string `json:"name"`

	// Missing is derived when listing: the index still references the
	// session but its file is gone.
	Missing bool `json:"missing,omitempty" table:"wide"`
}

// IsOpen reports whether the session has not been ended.
func (s *Session) IsOpen() bool {
	return s.EndTime == 0
}

// Duration returns the recorded interval in seconds (0 while open).
func (s *Session) Duration() uint32 {
	if s.IsOpen() || s.EndTime < s.StartTime {
		return 0
	}
	return s.EndTime - s.StartTime
}

// SessionFileName derives the deterministic data file name for a session number.
func SessionFileName(number uint16) string {
	return fmt.Sprintf("flight_%04d.csv", number)
}

// ParseSessionFileName is the inverse of SessionFileName.
func ParseSessionFileName(name string) (uint16, bool) {
	var n uint16
	var tail string
	if _, err := fmt.Sscanf(name, "flight_%d.%s", &n, &tail); err != nil || tail != "csv" {
		return 0, false
	}
	if SessionFileName(n) != name {
		return 0, false
	}
	return n, true
}
