package domain

import "testing"

func TestSessionFileName(t *testing.T) {
	tests := []struct {
		number uint16
		want   string
	}{
		{1, "flight_0001.csv"},
		{42, "flight_0042.csv"},
		{9999, "flight_9999.csv"},
		{12345, "flight_12345.csv"},
	}
	for _, tt := range tests {
		if got := SessionFileName(tt.number); got != tt.want {
			t.Errorf("SessionFileName(%d) = %q, want %q", tt.number, got, tt.want)
		}
	}
}

func TestParseSessionFileName(t *testing.T) {
	tests := []struct {
		name   string
		want   uint16
		wantOK bool
	}{
		{"flight_0001.csv", 1, true},
		{"flight_0420.csv", 420, true},
		{"flight_1.csv", 0, false},
		{"flight_0001.txt", 0, false},
		{"flight_index.txt", 0, false},
		{"notes.csv", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSessionFileName(tt.name)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseSessionFileName(%q) = (%d, %v), want (%d, %v)", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSession_Duration(t *testing.T) {
	s := Session{Number: 1, StartTime: 100}
	if !s.IsOpen() {
		t.Error("IsOpen() = false for session without end time")
	}
	if s.Duration() != 0 {
		t.Errorf("Duration() = %d, want 0 while open", s.Duration())
	}

	s.EndTime = 160
	if s.IsOpen() {
		t.Error("IsOpen() = true after end time is set")
	}
	if s.Duration() != 60 {
		t.Errorf("Duration() = %d, want 60", s.Duration())
	}
}
