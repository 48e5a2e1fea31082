package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aerosense-go/internal/infra/buildinfo"
)

// LoggerStatus combines the STATUS, STORAGE_INFO and VERSION replies.
type LoggerStatus struct {
	Target    string `json:"target" table:"wide"`
	State     string `json:"state"`
	Records   uint64 `json:"records"`
	Capacity  uint64 `json:"capacity"`
	Total     uint64 `json:"total"`
	Flight    string `json:"flight"`
	SD        string `json:"sd"`
	Flights   uint64 `json:"flights"`
	SDRecords uint64 `json:"sd_records"`
	SDSize    uint64 `json:"sd_size" table:"bytes"`
	SDUsed    uint64 `json:"sd_used" table:"bytes"`
	Version   string `json:"version" table:"wide"`
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show logger and card status",
		Action: statusAction,
	}
}

func statusAction(c *cli.Context) error {
	client, err := EnsureConnected(c, "")
	if err != nil {
		return err
	}
	formatter, err := Formatter(c)
	if err != nil {
		return err
	}

	st, err := fetchStatus(client)
	if err != nil {
		return err
	}
	st.Target = GetConnectionManager(c).Current().Name
	return formatter.Format(stdout(c), st)
}

func fetchStatus(client lineSender) (*LoggerStatus, error) {
	line, err := singleReply(client, "STATUS")
	if err != nil {
		return nil, err
	}
	f, err := replyFields(line, "STATUS")
	if err != nil {
		return nil, err
	}

	st := &LoggerStatus{
		State:  f["State"],
		Total:  fieldUint(f, "Total"),
		Flight: f["Flight"],
		SD:     f["SD"],
	}
	stored, capacity, _ := strings.Cut(f["Records"], "/")
	st.Records, st.Capacity = parseUint(stored), parseUint(capacity)

	line, err = singleReply(client, "STORAGE_INFO")
	if err != nil {
		return nil, err
	}
	f, err = replyFields(line, "SD_STATUS")
	if err != nil {
		return nil, err
	}
	st.Flights = fieldUint(f, "Flights")
	st.SDRecords = fieldUint(f, "Records")
	st.SDSize = fieldUint(f, "Size") << 20
	st.SDUsed = fieldUint(f, "Used") << 20

	line, err = singleReply(client, "VERSION")
	if err != nil {
		return nil, err
	}
	if st.Version, err = replyValue(line, "VERSION"); err != nil {
		return nil, err
	}
	return st, nil
}

// VersionInfo is printed by the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version" table:"wide"`
	Logger    string `json:"logger,omitempty"`
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show CLI version, and the logger's with --remote",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Also query the connected logger",
			},
		},
		Action: versionAction,
	}
}

func versionAction(c *cli.Context) error {
	formatter, err := Formatter(c)
	if err != nil {
		return err
	}

	bi := buildinfo.Get()
	info := VersionInfo{
		Version:   bi.Version,
		Commit:    bi.Commit,
		BuildTime: bi.BuildTime,
		GoVersion: bi.GoVersion,
	}
	if c.Bool("remote") {
		client, err := EnsureConnected(c, "")
		if err != nil {
			return err
		}
		line, err := singleReply(client, "VERSION")
		if err != nil {
			return err
		}
		if info.Logger, err = replyValue(line, "VERSION"); err != nil {
			return fmt.Errorf("version: %w", err)
		}
	}
	return formatter.Format(stdout(c), info)
}
