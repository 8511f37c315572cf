// Package export renders merged fabric data into the tool's output formats:
// the topology document, per-snapshot port counter tables and per-snapshot
// switch routing tables.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile creates outFile with the content produced by write. Output goes
// to a temporary file in the same directory that is renamed into place once
// write succeeded and all data was flushed, so a failed write never leaves a
// truncated outFile behind.
func WriteFile(outFile string, write func(io.Writer) error) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("WriteFile: %w (file: %s)", err, outFile)
		}
	}()

	dir, base := filepath.Split(outFile)
	if dir == "" {
		dir = "."
	}
	fd, err := os.CreateTemp(dir, "."+base+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(fd.Name())
		}
	}()

	bw := bufio.NewWriter(fd)
	if err := write(bw); err != nil {
		fd.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		fd.Close()
		return err
	}
	if err := fd.Chmod(0o644); err != nil {
		fd.Close()
		return err
	}
	if err := fd.Close(); err != nil {
		return err
	}

	return os.Rename(fd.Name(), outFile)
}
