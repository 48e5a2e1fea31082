package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/aerosense-go/internal/cli/output"
	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/storage/sessionlog"
)

// FlightsCommand returns the flights subcommand group.
func FlightsCommand() *cli.Command {
	mountFlag := &cli.StringFlag{
		Name:    "mount",
		Aliases: []string{"m"},
		Usage:   "Card mount point",
	}
	outFlag := &cli.StringFlag{
		Name:  "out",
		Usage: "Output file (default stdout)",
	}

	return &cli.Command{
		Name:    "flights",
		Aliases: []string{"flight"},
		Usage:   "Flights recorded on the removable card",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List flights on a mounted card, or over the link with --remote",
				Flags: []cli.Flag{
					mountFlag,
					&cli.BoolFlag{
						Name:  "remote",
						Usage: "Ask the connected logger",
					},
				},
				Action: flightsList,
			},
			{
				Name:   "verify",
				Usage:  "Check indexed flights against the files on a mounted card",
				Flags:  []cli.Flag{mountFlag},
				Action: flightsVerify,
			},
			{
				Name:      "export",
				Usage:     "Copy a flight file from a mounted card",
				ArgsUsage: "NUMBER",
				Flags:     []cli.Flag{mountFlag, outFlag},
				Action:    flightsExport,
			},
			{
				Name:      "fetch",
				Usage:     "Download a flight over the link and check its digest",
				ArgsUsage: "NUMBER",
				Flags:     []cli.Flag{outFlag},
				Action:    flightsFetch,
			},
		},
	}
}

func openCard(c *cli.Context) (*sessionlog.Log, error) {
	mount := c.String("mount")
	if mount == "" {
		mount = GetCLIConfig(c).Mount
	}
	return sessionlog.Open(sessionlog.Config{
		Mount:  mount,
		Logger: storageLogger(c),
	})
}

func flightNumber(c *cli.Context) (uint16, error) {
	arg := c.Args().First()
	if arg == "" {
		return 0, fmt.Errorf("flight number required")
	}
	n, err := strconv.ParseUint(arg, 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid flight number %q", arg)
	}
	return uint16(n), nil
}

func flightsList(c *cli.Context) error {
	formatter, err := Formatter(c)
	if err != nil {
		return err
	}

	var list []domain.Session
	if c.Bool("remote") {
		client, err := EnsureConnected(c, "")
		if err != nil {
			return err
		}
		list, err = fetchFlightList(client)
		if err != nil {
			return err
		}
	} else {
		card, err := openCard(c)
		if err != nil {
			return err
		}
		defer card.Close()
		if list, err = card.ListSessions(0); err != nil {
			return err
		}
	}
	return formatter.Format(stdout(c), list)
}

// fetchFlightList parses a LIST_FLIGHTS reply.
func fetchFlightList(client lineSender) ([]domain.Session, error) {
	var (
		list   []domain.Session
		header string
	)
	err := client.Stream("LIST_FLIGHTS", func(line string) error {
		if header == "" {
			header = line
			if isErrorReply(line) {
				return fmt.Errorf("logger replied %q", line)
			}
			return nil
		}
		entry, ok := strings.CutPrefix(line, "FLIGHT:")
		if !ok {
			return nil
		}
		s, err := parseFlightEntry(strings.TrimSpace(entry))
		if err != nil {
			return err
		}
		list = append(list, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if n := leadingCount(header, "SD_FLIGHTS"); n != uint64(len(list)) {
		return nil, fmt.Errorf("LIST_FLIGHTS announced %d flights, received %d", n, len(list))
	}
	return list, nil
}

// parseFlightEntry parses "number,start,end,count,name[,MISSING]".
func parseFlightEntry(entry string) (domain.Session, error) {
	parts := strings.Split(entry, ",")
	if len(parts) < 5 {
		return domain.Session{}, fmt.Errorf("malformed flight entry %q", entry)
	}
	nums := make([]uint64, 4)
	for i := range nums {
		n, err := strconv.ParseUint(parts[i], 10, 32)
		if err != nil {
			return domain.Session{}, fmt.Errorf("malformed flight entry %q: %w", entry, err)
		}
		nums[i] = n
	}
	return domain.Session{
		Number:      uint16(nums[0]),
		StartTime:   uint32(nums[1]),
		EndTime:     uint32(nums[2]),
		RecordCount: uint32(nums[3]),
		Name:        parts[4],
		Missing:     len(parts) > 5 && parts[5] == "MISSING",
	}, nil
}

func flightsVerify(c *cli.Context) error {
	formatter, err := Formatter(c)
	if err != nil {
		return err
	}
	card, err := openCard(c)
	if err != nil {
		return err
	}
	defer card.Close()

	rep, err := card.VerifyIntegrity()
	if err != nil {
		return err
	}
	if err := formatter.Format(stdout(c), rep); err != nil {
		return err
	}
	if len(rep.Missing) > 0 {
		return fmt.Errorf("%d of %d indexed flights missing", len(rep.Missing), rep.Expected)
	}
	return nil
}

func flightsExport(c *cli.Context) error {
	number, err := flightNumber(c)
	if err != nil {
		return err
	}
	card, err := openCard(c)
	if err != nil {
		return err
	}
	defer card.Close()

	var total int64
	if list, err := card.ListSessions(0); err == nil {
		for _, s := range list {
			if s.Number == number {
				total = int64(s.RecordCount) + 1
			}
		}
	}

	out, err := createOut(c, c.String("out"))
	if err != nil {
		return err
	}

	var progress *output.ProgressBar
	if out.isFile() {
		progress = output.NewLineProgress(errWriter(c), domain.SessionFileName(number))
		progress.SetTotal(total)
	}
	sum, err := card.DownloadSession(number, func(line string) error {
		if progress != nil {
			progress.Increment(1)
		}
		_, err := fmt.Fprintln(out.w, line)
		return err
	})
	if progress != nil {
		progress.Finish()
	}
	if err := out.finish(err); err != nil {
		return err
	}

	fmt.Fprintf(errWriter(c), "flight %d: %d lines, %d bytes, digest %s\n", number, sum.Lines, sum.Bytes, sum.DigestHex())
	return nil
}

func flightsFetch(c *cli.Context) error {
	number, err := flightNumber(c)
	if err != nil {
		return err
	}
	client, err := EnsureConnected(c, "")
	if err != nil {
		return err
	}
	out, err := createOut(c, c.String("out"))
	if err != nil {
		return err
	}
	return out.finish(fetchFlight(c, client, number, out))
}

// fetchFlight streams DOWNLOAD_FLIGHT:n into out and checks the line count
// and digest announced by the closing line.
func fetchFlight(c *cli.Context, client lineSender, number uint16, out *outFile) error {
	var (
		progress *output.ProgressBar
		started  bool
		end      string
		lines    int
	)
	h := murmur3.New64()

	err := client.Stream(fmt.Sprintf("DOWNLOAD_FLIGHT:%d", number), func(line string) error {
		switch {
		case !started:
			if isErrorReply(line) {
				return fmt.Errorf("logger replied %q", line)
			}
			if _, err := replyValue(line, "SD_FLIGHT_DATA_START"); err != nil {
				return err
			}
			started = true
			if out.isFile() {
				progress = output.NewLineProgress(errWriter(c), domain.SessionFileName(number))
			}
			return nil
		case strings.HasPrefix(line, "SD_FLIGHT_DATA_END:"):
			end = line
			return nil
		case strings.HasPrefix(line, "SD_ERROR:"):
			return fmt.Errorf("download aborted: logger replied %q", line)
		}

		h.Write([]byte(line))
		h.Write([]byte{'\n'})
		lines++
		if progress != nil {
			progress.Increment(1)
		}
		_, err := fmt.Fprintln(out.w, line)
		return err
	})
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	f, err := replyFields(end, "SD_FLIGHT_DATA_END")
	if err != nil {
		return err
	}
	if want := fieldUint(f, "Lines"); want != uint64(lines) {
		return fmt.Errorf("flight %d: logger sent %d lines, received %d", number, want, lines)
	}
	digest := fmt.Sprintf("%016x", h.Sum64())
	if f["Digest"] != digest {
		return fmt.Errorf("flight %d: digest mismatch (logger %s, received %s)", number, f["Digest"], digest)
	}

	fmt.Fprintf(errWriter(c), "flight %d: %d lines, digest %s verified\n", number, lines, digest)
	return nil
}
