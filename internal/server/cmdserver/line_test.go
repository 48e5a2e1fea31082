package cmdserver

import "testing"

func pushAll(a *LineAccumulator, s string) (lines []string, overflows int) {
	for i := 0; i < len(s); i++ {
		line, res := a.Push(s[i])
		switch res {
		case Complete:
			lines = append(lines, line)
		case Overflow:
			overflows++
		}
	}
	return lines, overflows
}

func TestLineAccumulator(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      []string
		overflows int
	}{
		{"lf", "STATUS\n", []string{"STATUS"}, 0},
		{"cr", "STATUS\r", []string{"STATUS"}, 0},
		{"crlf", "STATUS\r\nHELP\r\n", []string{"STATUS", "HELP"}, 0},
		{"empty lines ignored", "\r\n\n\rSTART\n\n", []string{"START"}, 0},
		{"unterminated", "STA", nil, 0},
		{"exact max", "12345678\n", []string{"12345678"}, 0},
		{"overflow", "123456789\nSTOP\n", []string{"STOP"}, 1},
		{"overflow reported once", "1234567890123456789012\r\nOK\n", []string{"OK"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewLineAccumulator(8)
			lines, overflows := pushAll(a, tt.input)
			if len(lines) != len(tt.want) {
				t.Fatalf("lines = %q, want %q", lines, tt.want)
			}
			for i := range lines {
				if lines[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, lines[i], tt.want[i])
				}
			}
			if overflows != tt.overflows {
				t.Errorf("overflows = %d, want %d", overflows, tt.overflows)
			}
		})
	}
}

func TestLineAccumulator_DefaultMax(t *testing.T) {
	if got := NewLineAccumulator(0).Max(); got != DefaultMaxLine {
		t.Errorf("Max() = %d, want %d", got, DefaultMaxLine)
	}
}
