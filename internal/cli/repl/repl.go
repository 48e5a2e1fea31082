package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/aerosense-go/internal/cli/connection"
)

// Sender delivers one command and streams its reply.
type Sender interface {
	Stream(cmd string, fn func(line string) error) error
}

// REPL is the console loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	sender    Sender
	prompt    string
	completer *Completer
	history   *History
}

// New creates a console reading commands from in and printing replies to
// out.
func New(sender Sender, in io.Reader, out io.Writer, history *History) *REPL {
	if history == nil {
		history = NewHistory("")
	}
	return &REPL{
		input:     in,
		output:    out,
		sender:    sender,
		prompt:    "aerosense> ",
		completer: NewCompleter(),
		history:   history,
	}
}

// SetPrompt replaces the prompt.
func (r *REPL) SetPrompt(p string) {
	r.prompt = p
}

// Run reads commands until exit, quit or end of input. It returns an error
// when the transport fails.
func (r *REPL) Run() error {
	reader := bufio.NewReader(r.input)

	for {
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		case "history":
			for i, h := range r.history.Entries() {
				fmt.Fprintf(r.output, "%4d  %s\n", i+1, h)
			}
			continue
		}

		if err := r.execute(line); err != nil {
			return err
		}
	}
}

// execute sends line and prints the reply. Only transport failures are
// returned.
func (r *REPL) execute(line string) error {
	unknown := false
	err := r.sender.Stream(line, func(reply string) error {
		fmt.Fprintln(r.output, reply)
		if strings.HasPrefix(reply, "ERROR: unknown command") {
			unknown = true
		}
		return nil
	})

	switch {
	case errors.Is(err, connection.ErrNoReply):
		fmt.Fprintln(r.output, "(no reply)")
	case errors.Is(err, connection.ErrTruncated):
		fmt.Fprintf(r.output, "(%v)\n", err)
	case err != nil:
		return err
	}

	if unknown {
		if s := r.completer.Suggest(line); len(s) > 0 {
			fmt.Fprintf(r.output, "did you mean: %s\n", strings.Join(s, ", "))
		}
	}
	return nil
}
