package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aerosense-go/internal/cli/config"
	"github.com/yndnr/aerosense-go/internal/cli/connection"
	"github.com/yndnr/aerosense-go/internal/cli/output"
	stationconfig "github.com/yndnr/aerosense-go/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:  "cli",
				Usage: "CLI local configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Show the effective CLI configuration",
						Action: configCLIShow,
					},
					{
						Name:   "validate",
						Usage:  "Validate the CLI configuration file",
						Action: configCLIValidate,
					},
					{
						Name:      "add-target",
						Usage:     "Save a named logger target",
						ArgsUsage: "NAME ADDRESS",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "default",
								Usage: "Also make it the default target",
							},
						},
						Action: configCLIAddTarget,
					},
				},
			},
			{
				Name:    "station",
				Aliases: []string{"logger"},
				Usage:   "Logger (station) configuration",
				Subcommands: []*cli.Command{
					{
						Name:      "show",
						Usage:     "Show the effective station configuration: defaults, FILE, then AEROSENSE_* variables",
						ArgsUsage: "[FILE]",
						Action:    configStationShow,
					},
					{
						Name:      "validate",
						Usage:     "Validate a station configuration file",
						ArgsUsage: "FILE",
						Action:    configStationValidate,
					},
				},
			},
		},
	}
}

func cliConfigPath(c *cli.Context) string {
	if p := c.String("config"); p != "" {
		return p
	}
	return config.DefaultConfigPath()
}

func configCLIShow(c *cli.Context) error {
	formatter, err := Formatter(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(errWriter(c), "# %s\n", cliConfigPath(c))
	return formatter.Format(stdout(c), GetCLIConfig(c))
}

func configCLIValidate(c *cli.Context) error {
	path := cliConfigPath(c)
	if _, err := config.Load(path); err != nil {
		return err
	}
	fmt.Fprintf(stdout(c), "configuration valid: %s\n", path)
	return nil
}

func configCLIAddTarget(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: config cli add-target NAME ADDRESS")
	}
	name, addr := c.Args().Get(0), c.Args().Get(1)
	if _, err := connection.ParseTarget(addr); err != nil {
		return err
	}

	cfg := GetCLIConfig(c)
	cfg.Targets[name] = addr
	if c.Bool("default") {
		cfg.DefaultTarget = name
	}
	path := cliConfigPath(c)
	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	fmt.Fprintf(stdout(c), "target %s -> %s saved to %s\n", name, addr, path)
	return nil
}

func configStationShow(c *cli.Context) error {
	var formatter output.Formatter = &output.YAMLFormatter{}
	if c.IsSet("output") {
		f, err := Formatter(c)
		if err != nil {
			return err
		}
		formatter = f
	}
	cfg, err := stationconfig.Load(c.Args().First())
	if err != nil {
		return err
	}
	return formatter.Format(stdout(c), cfg)
}

func configStationValidate(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("configuration file path required")
	}
	if _, err := stationconfig.Load(path); err != nil {
		return err
	}
	fmt.Fprintf(stdout(c), "configuration valid: %s\n", path)
	return nil
}
