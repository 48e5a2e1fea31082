package connection

import "strings"

// frame is a multi-line reply: it opens with a line starting with start and
// runs until a line starting with end or with one of abort.
type frame struct {
	start string
	end   string
	abort []string
}

var frames = []frame{
	{start: "HELP:", end: "HELP_END"},
	{start: "SD_FLIGHTS:", end: "SD_FLIGHTS_END"},
	{start: "SD_FLIGHT_DATA_START:", end: "SD_FLIGHT_DATA_END:", abort: []string{"SD_ERROR:"}},
	{start: "DATA_START:", end: "DATA_END:"},
}

// frameOf returns the frame opened by first, or nil for a single-line reply.
func frameOf(first string) *frame {
	for i := range frames {
		if strings.HasPrefix(first, frames[i].start) {
			return &frames[i]
		}
	}
	return nil
}

func (f *frame) ends(line string) bool {
	if strings.HasPrefix(line, f.end) {
		return true
	}
	for _, a := range f.abort {
		if strings.HasPrefix(line, a) {
			return true
		}
	}
	return false
}
