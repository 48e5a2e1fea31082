package command

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aerosense-go/internal/cli/config"
	"github.com/yndnr/aerosense-go/internal/cli/connection"
	"github.com/yndnr/aerosense-go/internal/cli/output"
	"github.com/yndnr/aerosense-go/internal/infra/buildinfo"
	"github.com/yndnr/aerosense-go/internal/telemetry/logger"
)

const (
	metaConnMgr   = "connMgr"
	metaCLIConfig = "cliConfig"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "aerosense-cli",
		Usage:   "AeroSense ground tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ConsoleCommand(),
			SendCommand(),
			StatusCommand(),
			RingCommand(),
			FlightsCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			c.App.Metadata[metaCLIConfig] = cfg
			c.App.Metadata[metaConnMgr] = connection.NewManager()
			return nil
		},
		After: func(c *cli.Context) error {
			if mgr := GetConnectionManager(c); mgr != nil {
				return mgr.Disconnect()
			}
			return nil
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI configuration file (default ~/.aerosense/cli.yaml)",
			EnvVars: []string{"AEROSENSE_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "target",
			Aliases: []string{"t"},
			Usage:   "Logger address or configured target name (host:port, /path.sock, /dev/rfcomm0, serial:///dev/ttyUSB0?baud=9600)",
			EnvVars: []string{"AEROSENSE_TARGET"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Reply timeout",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log storage access to stderr",
		},
	}
}

// GlobalFlags defines flags available to all commands, with unset values
// filled from the CLI configuration.
type GlobalFlags struct {
	Target  string
	Timeout time.Duration

	Output string // table, json, yaml
	Wide   bool

	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	cfg := GetCLIConfig(c)
	flags := &GlobalFlags{
		Target:  cfg.Resolve(c.String("target")),
		Timeout: c.Duration("timeout"),
		Output:  c.String("output"),
		Wide:    c.Bool("wide"),
		Verbose: c.Bool("verbose"),
	}
	if !c.IsSet("timeout") {
		flags.Timeout = cfg.Timeout
	}
	if flags.Output == "" {
		flags.Output = cfg.DefaultOutput
	}
	return flags
}

// GetConnectionManager retrieves the connection manager from context.
func GetConnectionManager(c *cli.Context) *connection.Manager {
	if mgr, ok := c.App.Metadata[metaConnMgr].(*connection.Manager); ok {
		return mgr
	}
	return nil
}

// GetCLIConfig retrieves the CLI configuration, or the defaults when
// none was loaded.
func GetCLIConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaCLIConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// EnsureConnected connects to target, or to the --target logger when
// target is empty, and returns its client. An existing connection is
// reused.
func EnsureConnected(c *cli.Context, target string) (*connection.Client, error) {
	mgr := GetConnectionManager(c)
	if mgr == nil {
		return nil, fmt.Errorf("connection manager not initialized")
	}
	if mgr.IsConnected() {
		return mgr.Client()
	}

	flags := ParseGlobalFlags(c)
	if target == "" {
		target = flags.Target
	} else {
		target = GetCLIConfig(c).Resolve(target)
	}
	conn, err := connection.ParseTarget(target)
	if err != nil {
		return nil, err
	}

	mgr.SetTimeout(flags.Timeout)
	if err := mgr.Connect(conn); err != nil {
		return nil, fmt.Errorf("connect %s: %w", conn.Name, err)
	}
	return mgr.Client()
}

// Formatter returns the formatter selected by --output.
func Formatter(c *cli.Context) (output.Formatter, error) {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format, flags.Wide), nil
}

// storageLogger returns the logger handed to offline storage access.
func storageLogger(c *cli.Context) *slog.Logger {
	if !c.Bool("verbose") {
		return logger.Discard()
	}
	l, err := logger.New(logger.Config{Level: "debug", Format: "text", Output: errWriter(c)})
	if err != nil {
		return logger.Discard()
	}
	return l
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
