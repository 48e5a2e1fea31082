package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// outFile is the destination of an export. Stdout is used for "" and "-".
type outFile struct {
	w    io.Writer
	f    *os.File
	path string
}

func createOut(c *cli.Context, path string) (*outFile, error) {
	if path == "" || path == "-" {
		return &outFile{w: stdout(c)}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &outFile{w: f, f: f, path: path}, nil
}

// isFile reports whether output goes to a file, which enables progress.
func (o *outFile) isFile() bool { return o.f != nil }

// finish closes the file, removing it when the export failed.
func (o *outFile) finish(failed error) error {
	if o.f == nil {
		return failed
	}
	closeErr := o.f.Close()
	if failed != nil {
		os.Remove(o.path)
		return failed
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", o.path, closeErr)
	}
	return nil
}
