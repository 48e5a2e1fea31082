package command

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aerosense-go/internal/cli/output"
	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/storage/ringlog"
	"github.com/yndnr/aerosense-go/internal/storage/sessionlog"
)

// RingStatus is the offline view of a ring image.
type RingStatus struct {
	Mode         string `json:"mode"`
	Capacity     uint16 `json:"capacity"`
	Stored       uint16 `json:"stored"`
	Lifetime     uint32 `json:"lifetime"`
	LastSequence uint32 `json:"last_sequence"`
	StartedAt    uint32 `json:"started_at" table:"unix"`
	WriteCursor  uint16 `json:"write_cursor" table:"wide"`
	OldestCursor uint16 `json:"oldest_cursor" table:"wide"`
}

// RingRecord is one decoded ring record.
type RingRecord struct {
	Index       int     `json:"index"`
	SequenceID  uint32  `json:"sequence_id"`
	Timestamp   uint32  `json:"timestamp" table:"unix"`
	Temperature int32   `json:"temperature"`
	Humidity    int32   `json:"humidity"`
	Pressure    int32   `json:"pressure"`
	CO2         int32   `json:"co2"`
	Methane     int32   `json:"methane" table:"wide"`
	Ozone       int32   `json:"ozone" table:"wide"`
	Latitude    float64 `json:"latitude" table:"wide"`
	Longitude   float64 `json:"longitude" table:"wide"`
	GPSValid    bool    `json:"gps_valid"`
	Error       string  `json:"error,omitempty"`
}

// RingCommand returns the ring subcommand group.
func RingCommand() *cli.Command {
	dirFlag := &cli.StringFlag{
		Name:    "dir",
		Aliases: []string{"d"},
		Usage:   "Ring image directory holding " + ringlog.DataFile + " and " + ringlog.MetaFile,
	}

	return &cli.Command{
		Name:  "ring",
		Usage: "Internal ring log",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show the state of a ring image",
				Flags:  []cli.Flag{dirFlag},
				Action: ringStatus,
			},
			{
				Name:  "dump",
				Usage: "Decode the records of a ring image, oldest first",
				Flags: []cli.Flag{
					dirFlag,
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Write CSV in flight file format instead of --output",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Decode at most this many records (0 for all)",
					},
				},
				Action: ringDump,
			},
			{
				Name:  "download",
				Usage: "Download the ring log over the link as CSV (logging stops)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output file (default stdout)",
					},
				},
				Action: ringDownload,
			},
		},
	}
}

func openRing(c *cli.Context) (*ringlog.Log, error) {
	dir := c.String("dir")
	if dir == "" {
		dir = GetCLIConfig(c).RingDir
	}
	return ringlog.Open(ringlog.Config{
		Dir:      dir,
		ReadOnly: true,
		Logger:   storageLogger(c),
	})
}

func ringStatus(c *cli.Context) error {
	formatter, err := Formatter(c)
	if err != nil {
		return err
	}
	ring, err := openRing(c)
	if err != nil {
		return err
	}
	defer ring.Close()

	s := ring.Status()
	return formatter.Format(stdout(c), RingStatus{
		Mode:         s.Mode.String(),
		Capacity:     s.Capacity,
		Stored:       s.StoredCount,
		Lifetime:     s.LifetimeCount,
		LastSequence: s.LastSequence,
		StartedAt:    s.StartedAt,
		WriteCursor:  s.WriteCursor,
		OldestCursor: s.OldestCursor,
	})
}

func ringDump(c *cli.Context) error {
	var formatter output.Formatter
	if !c.Bool("csv") {
		f, err := Formatter(c)
		if err != nil {
			return err
		}
		formatter = f
	}

	ring, err := openRing(c)
	if err != nil {
		return err
	}
	defer ring.Close()

	n := int(ring.Status().StoredCount)
	if limit := c.Int("limit"); limit > 0 && limit < n {
		n = limit
	}

	var cw *csv.Writer
	if formatter == nil {
		cw = csv.NewWriter(stdout(c))
		cw.Write(sessionlog.Header)
	}

	var rows []RingRecord
	corrupt := 0
	for i := 0; i < n; i++ {
		rec, err := ring.ReadAt(i)
		if err != nil && !errors.Is(err, domain.ErrChecksumMismatch) {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if err != nil {
			corrupt++
			fmt.Fprintf(errWriter(c), "record %d: %v\n", i, err)
		}

		if cw != nil {
			if err == nil {
				cw.Write(sessionlog.FormatRecord(rec))
			}
			continue
		}
		row := ringRow(i, rec)
		if err != nil {
			row.Error = domain.GetErrorCode(err)
		}
		rows = append(rows, row)
	}

	if cw != nil {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
	} else if err := formatter.Format(stdout(c), rows); err != nil {
		return err
	}

	if corrupt > 0 {
		fmt.Fprintf(errWriter(c), "%d of %d records failed verification\n", corrupt, n)
	}
	return nil
}

func ringRow(i int, rec domain.LogRecord) RingRecord {
	s := rec.Snapshot
	return RingRecord{
		Index:       i,
		SequenceID:  rec.SequenceID,
		Timestamp:   rec.Timestamp,
		Temperature: s.Temperature,
		Humidity:    s.Humidity,
		Pressure:    s.Pressure,
		CO2:         s.CO2,
		Methane:     s.Methane,
		Ozone:       s.Ozone,
		Latitude:    s.GPS.Latitude,
		Longitude:   s.GPS.Longitude,
		GPSValid:    s.GPS.Valid,
	}
}

func ringDownload(c *cli.Context) error {
	client, err := EnsureConnected(c, "")
	if err != nil {
		return err
	}
	out, err := createOut(c, c.String("out"))
	if err != nil {
		return err
	}
	return out.finish(downloadRing(c, client, out))
}

func downloadRing(c *cli.Context, client lineSender, out *outFile) error {
	var (
		progress *output.ProgressBar
		first    = true
		end      string
		id       string
		errs     int
	)

	err := client.Stream("RING_DOWNLOAD", func(line string) error {
		switch {
		case first:
			first = false
			if isErrorReply(line) {
				return fmt.Errorf("logger replied %q", line)
			}
			f, err := replyFields(line, "DATA_START")
			if err != nil {
				return err
			}
			id = f["Id"]
			if out.isFile() {
				progress = output.NewLineProgress(errWriter(c), "ring")
				progress.SetTotal(int64(leadingCount(line, "DATA_START")) + 1)
			}
			return nil
		case strings.HasPrefix(line, "DATA_END:"):
			end = line
			return nil
		case strings.HasPrefix(line, "DATA_ERROR:"):
			errs++
			fmt.Fprintln(errWriter(c), line)
			return nil
		}
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
	if end == "" {
		return fmt.Errorf("ring download %s ended without DATA_END", id)
	}

	f, err := replyFields(end, "DATA_END")
	if err != nil {
		return err
	}
	if n := fieldUint(f, "Errors"); n != uint64(errs) {
		return fmt.Errorf("ring download %s: logger reported %d errors, received %d", id, n, errs)
	}
	fmt.Fprintf(errWriter(c), "ring download %s: %s, %d corrupt\n", id, strings.TrimSpace(strings.TrimPrefix(end, "DATA_END:")), errs)
	return nil
}
