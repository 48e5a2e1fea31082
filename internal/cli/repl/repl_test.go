package repl

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yndnr/aerosense-go/internal/cli/connection"
)

type fakeSender struct {
	replies map[string][]string
	errs    map[string]error
	sent    []string
}

func (f *fakeSender) Stream(cmd string, fn func(line string) error) error {
	f.sent = append(f.sent, cmd)
	if err, ok := f.errs[cmd]; ok {
		return err
	}
	lines, ok := f.replies[cmd]
	if !ok {
		lines = []string{"ERROR: unknown command '" + strings.ToUpper(cmd) + "'. Send HELP for a list of commands."}
	}
	for _, l := range lines {
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}

func run(t *testing.T, s *fakeSender, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	r := New(s, strings.NewReader(input), &out, nil)
	err := r.Run()
	return out.String(), err
}

func TestREPL_Exit(t *testing.T) {
	for _, input := range []string{"exit\n", "QUIT\n", "", "\n\n"} {
		s := &fakeSender{}
		if _, err := run(t, s, input); err != nil {
			t.Errorf("Run(%q) error: %v", input, err)
		}
		if len(s.sent) != 0 {
			t.Errorf("Run(%q) sent %v", input, s.sent)
		}
	}
}

func TestREPL_SendsCommands(t *testing.T) {
	s := &fakeSender{replies: map[string][]string{
		"status": {"STATUS: State=STOPPED Records=0/500 Total=0 Flight=NONE SD=READY"},
		"LIST_FLIGHTS": {
			"SD_FLIGHTS: 1",
			"FLIGHT: 1,10,20,3,flight_0001.csv",
			"SD_FLIGHTS_END",
		},
	}}

	out, err := run(t, s, "status\n  LIST_FLIGHTS  \nexit\nSTOP\n")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if want := []string{"status", "LIST_FLIGHTS"}; strings.Join(s.sent, ",") != strings.Join(want, ",") {
		t.Errorf("sent %v, want %v", s.sent, want)
	}
	for _, want := range []string{"aerosense> ", "State=STOPPED", "FLIGHT: 1,10,20,3,flight_0001.csv", "SD_FLIGHTS_END"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestREPL_UnknownSuggests(t *testing.T) {
	out, err := run(t, &fakeSender{}, "STATS\n")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(out, "ERROR: unknown command 'STATS'") {
		t.Errorf("reply not printed:\n%s", out)
	}
	if !strings.Contains(out, "did you mean: START, START_FLIGHT, STATUS") {
		t.Errorf("suggestions not printed:\n%s", out)
	}
}

func TestREPL_History(t *testing.T) {
	s := &fakeSender{replies: map[string][]string{"VERSION": {"VERSION: dev"}}}
	out, err := run(t, s, "VERSION\nhistory\n")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(out, "   1  VERSION") || !strings.Contains(out, "   2  history") {
		t.Errorf("history not listed:\n%s", out)
	}
	if len(s.sent) != 1 {
		t.Errorf("history was sent to the logger: %v", s.sent)
	}
}

func TestREPL_ReplyErrors(t *testing.T) {
	s := &fakeSender{errs: map[string]error{
		"DELETE_FLIGHT:x": connection.ErrNoReply,
		"HELP":            connection.ErrTruncated,
	}}
	out, err := run(t, s, "DELETE_FLIGHT:x\nHELP\n")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(out, "(no reply)") || !strings.Contains(out, "(reply truncated)") {
		t.Errorf("reply errors not reported:\n%s", out)
	}
}

func TestREPL_TransportFailure(t *testing.T) {
	s := &fakeSender{errs: map[string]error{"STATUS": io.ErrClosedPipe}}
	_, err := run(t, s, "STATUS\nVERSION\n")
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("Run() error = %v, want transport error", err)
	}
	if len(s.sent) != 1 {
		t.Errorf("commands sent after failure: %v", s.sent)
	}
}

func TestREPL_SetPrompt(t *testing.T) {
	var out bytes.Buffer
	r := New(&fakeSender{}, strings.NewReader(""), &out, NewHistory(""))
	r.SetPrompt("drone> ")
	if err := r.Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "drone> ") {
		t.Errorf("prompt = %q", out.String())
	}
}
