// Package ringlog provides the fixed-capacity ring log on internal storage.
package ringlog

// Mode is the ring log's logging state.
type Mode uint8

const (
	Stopped Mode = iota
	Active
	DownloadMode
)

// String returns the name used in STATUS replies.
func (m Mode) String() string {
	switch m {
	case Stopped:
		return "STOPPED"
	case Active:
		return "LOGGING"
	case DownloadMode:
		return "DOWNLOAD"
	default:
		return "UNKNOWN"
	}
}
