package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

type flightRow struct {
	Number  uint16 `json:"number"`
	Start   uint32 `json:"start_time" table:"unix"`
	Records uint32 `json:"record_count"`
	Size    int64  `json:"size" table:"bytes"`
	File    string `json:"name" table:"wide"`
	Digest  string `json:"digest" table:"-"`
	Missing bool   `json:"missing"`
}

type mode uint8

func (m mode) String() string { return "LOGGING" }

func render(t *testing.T, f *TableFormatter, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return buf.String()
}

func TestTableFormatter_Slice(t *testing.T) {
	rows := []flightRow{
		{Number: 1, Start: 1700000000, Records: 120, Size: 2048, File: "flight_0001.csv", Digest: "abc"},
		{Number: 2, Records: 0, Size: 0, File: "flight_0002.csv", Missing: true},
	}

	out := render(t, &TableFormatter{}, rows)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3:\n%s", len(lines), out)
	}

	header := strings.Fields(lines[0])
	want := []string{"NUMBER", "START_TIME", "RECORD_COUNT", "SIZE", "MISSING"}
	if !reflect.DeepEqual(header, want) {
		t.Errorf("header = %v, want %v", header, want)
	}

	for _, s := range []string{"2023-11-14 22:13:20", "2.0 KiB", "120"} {
		if !strings.Contains(lines[1], s) {
			t.Errorf("row 1 missing %q: %q", s, lines[1])
		}
	}
	if !strings.Contains(lines[2], " - ") || !strings.Contains(lines[2], "true") {
		t.Errorf("row 2 = %q, want zero start as '-' and missing=true", lines[2])
	}
	if strings.Contains(out, "abc") || strings.Contains(out, "flight_0001.csv") {
		t.Errorf("hidden or wide columns rendered:\n%s", out)
	}
}

func TestTableFormatter_SliceWide(t *testing.T) {
	out := render(t, &TableFormatter{Wide: true}, []*flightRow{{Number: 1, File: "flight_0001.csv"}, nil})
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "flight_0001.csv") {
		t.Errorf("wide output missing name column:\n%s", out)
	}
	if strings.Contains(out, "DIGEST") {
		t.Error("table:\"-\" column rendered in wide mode")
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	out := render(t, &TableFormatter{}, struct {
		Mode  mode   `json:"mode"`
		Total uint64 `json:"total_bytes" table:"bytes"`
		Name  string `json:"name"`
	}{Total: 3 << 20})

	for _, s := range []string{"FIELD", "mode", "LOGGING", "3.0 MiB", "name", "-"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestTableFormatter_MapSorted(t *testing.T) {
	out := render(t, &TableFormatter{NoHeaders: true}, map[string]int{"b": 2, "a": 1, "c": 3})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "a") || !strings.HasPrefix(lines[2], "c") {
		t.Errorf("map rows not sorted:\n%s", out)
	}
}

func TestTableFormatter_Edges(t *testing.T) {
	if out := render(t, &TableFormatter{}, nil); out != "" {
		t.Errorf("Format(nil) = %q, want empty", out)
	}
	if out := render(t, &TableFormatter{}, []flightRow{}); out != "" {
		t.Errorf("Format(empty slice) = %q, want empty", out)
	}
	if out := render(t, &TableFormatter{}, []string{"x", "y"}); !strings.Contains(out, "VALUE") {
		t.Errorf("scalar slice missing VALUE header:\n%s", out)
	}
	// Unsupported kinds fall back to JSON.
	if out := render(t, &TableFormatter{}, 42); strings.TrimSpace(out) != "42" {
		t.Errorf("Format(42) = %q, want JSON fallback", out)
	}
}

func TestTable_Render(t *testing.T) {
	table := &Table{}
	table.SetHeaders("COL1", "COL2")
	table.AddRow("a", "b")
	table.AddRow("c", "d")

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 3 {
		t.Errorf("lines = %d, want 3", len(lines))
	}

	buf.Reset()
	if err := (&TableFormatter{NoHeaders: true}).Format(&buf, *table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(buf.String(), "COL1") {
		t.Error("NoHeaders rendered headers")
	}
}

func TestFormatValue(t *testing.T) {
	var nilPtr *string
	tests := []struct {
		name  string
		input reflect.Value
		want  string
	}{
		{"string", reflect.ValueOf("hello"), "hello"},
		{"empty string", reflect.ValueOf(""), "-"},
		{"int", reflect.ValueOf(-42), "-42"},
		{"uint16", reflect.ValueOf(uint16(99)), "99"},
		{"float", reflect.ValueOf(3.14159), "3.14"},
		{"bool", reflect.ValueOf(true), "true"},
		{"empty slice", reflect.ValueOf([]int{}), "-"},
		{"slice", reflect.ValueOf([]uint16{1, 2, 3}), "[3 items]"},
		{"map", reflect.ValueOf(map[string]int{"a": 1}), "{1 keys}"},
		{"stringer", reflect.ValueOf(mode(1)), "LOGGING"},
		{"time", reflect.ValueOf(time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)), "2024-06-15 14:30"},
		{"zero time", reflect.ValueOf(time.Time{}), "-"},
		{"nil pointer", reflect.ValueOf(nilPtr), ""},
		{"invalid", reflect.Value{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.input); got != tt.want {
				t.Errorf("formatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatSizeAndUnix(t *testing.T) {
	if got := formatSize(reflect.ValueOf(int64(-1))); got != "-" {
		t.Errorf("formatSize(-1) = %q, want -", got)
	}
	if got := formatSize(reflect.ValueOf(uint64(1536))); got != "1.5 KiB" {
		t.Errorf("formatSize(1536) = %q, want 1.5 KiB", got)
	}
	if got := formatUnix(reflect.ValueOf(uint32(0))); got != "-" {
		t.Errorf("formatUnix(0) = %q, want -", got)
	}
	if got := formatUnix(reflect.ValueOf(int64(86400))); got != "1970-01-02 00:00:00" {
		t.Errorf("formatUnix(86400) = %q", got)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":          "Name",
		"RecordCount":   "Record_Count",
		"already_snake": "already_snake",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
