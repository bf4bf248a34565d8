// Package ingest reads delimited sensor data, normalizing one measurement per
// line and counting anomalous readings.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"

	homedir "github.com/mitchellh/go-homedir"
)

// Lines longer than this cause a read error rather than being split.
const maxLineSize = 4 * 1024 * 1024

// SourceError is returned when a source can't be opened or read. It's fatal for
// that source; per-line problems never produce one.
type SourceError struct {
	Name string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("error opening %s: %v", e.Name, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Result is the dataset produced from one source along with counters
// describing how it was built.
type Result struct {
	// Data holds the normalized values in input order.
	Data []float64

	// Anomalies is the number of values in Data above the anomaly threshold.
	Anomalies int

	// Lines is the number of lines read after the header.
	Lines int

	// Skipped counts lines that contributed no value, by reason.
	Skipped map[SkipReason]int
}

// SkippedTotal returns the number of lines that contributed no value.
func (r Result) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// Read consumes r front to back. The first line is a header and is discarded
// unconditionally.
func Read(r io.Reader, opts Options) (Result, error) {
	res := Result{
		Skipped: make(map[SkipReason]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	// Header.
	if !scanner.Scan() {
		return res, scanner.Err()
	}

	for scanner.Scan() {
		res.Lines++

		rec := ParseRecord(scanner.Text(), opts)
		if !rec.OK() {
			res.Skipped[rec.Skip]++
			continue
		}

		res.Data = append(res.Data, rec.Value)
		if rec.Value > opts.AnomalyThreshold {
			res.Anomalies++
		}
	}

	if err := scanner.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// File opens the named file and reads it with Read. A leading ~ in name is
// expanded to the user's home directory. Any failure to open or read the file
// is returned as a *SourceError.
func File(name string, opts Options) (Result, error) {
	path, err := homedir.Expand(name)
	if err != nil {
		return Result{}, &SourceError{Name: name, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, &SourceError{Name: name, Err: err}
	}
	defer f.Close()

	res, err := Read(f, opts)
	if err != nil {
		return Result{}, &SourceError{Name: name, Err: err}
	}
	return res, nil
}
