package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aerosense-go/internal/cli/config"
	"github.com/yndnr/aerosense-go/internal/cli/connection"
	"github.com/yndnr/aerosense-go/internal/cli/repl"
)

// ConsoleCommand returns the interactive console command.
func ConsoleCommand() *cli.Command {
	return &cli.Command{
		Name:      "console",
		Usage:     "Interactive session with a logger",
		ArgsUsage: "[TARGET]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file (default ~/.aerosense/history)",
			},
		},
		Action: consoleAction,
	}
}

func consoleAction(c *cli.Context) error {
	client, err := EnsureConnected(c, c.Args().First())
	if err != nil {
		return err
	}

	histFile := c.String("history")
	if histFile == "" {
		histFile = GetCLIConfig(c).HistoryFile
	}
	if histFile == "" {
		histFile = config.DefaultHistoryPath()
	}
	history := repl.NewHistory(histFile)
	if err := history.Load(); err != nil {
		fmt.Fprintf(errWriter(c), "warning: history not loaded: %v\n", err)
	}

	out := stdout(c)
	conn := GetConnectionManager(c).Current()
	fmt.Fprintf(out, "Connected to %s (%s). Type HELP for commands, exit to leave.\n", conn.Address, conn.Kind)

	r := repl.New(client, c.App.Reader, out, history)
	runErr := r.Run()
	if err := history.Save(); err != nil {
		fmt.Fprintf(errWriter(c), "warning: history not saved: %v\n", err)
	}
	if runErr != nil {
		return fmt.Errorf("connection lost: %w", runErr)
	}
	return nil
}

// SendCommand returns the one-shot command.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send one protocol command and print the reply",
		ArgsUsage: "COMMAND",
		Action:    sendAction,
	}
}

func sendAction(c *cli.Context) error {
	cmd := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if cmd == "" {
		return fmt.Errorf("command required")
	}

	client, err := EnsureConnected(c, "")
	if err != nil {
		return err
	}

	out := stdout(c)
	var failed string
	err = client.Stream(cmd, func(line string) error {
		fmt.Fprintln(out, line)
		if failed == "" && isErrorReply(line) {
			failed = line
		}
		return nil
	})
	if errors.Is(err, connection.ErrNoReply) {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	if err != nil {
		return err
	}
	if failed != "" {
		return fmt.Errorf("logger replied %q", failed)
	}
	return nil
}

// isErrorReply reports whether line is a protocol error reply.
func isErrorReply(line string) bool {
	return strings.HasPrefix(line, "ERROR:") || strings.HasPrefix(line, "SD_ERROR:")
}
