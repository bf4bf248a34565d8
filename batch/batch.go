// Package batch runs ingestion and analysis over a list of files and reports
// the results for each.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	humanize "github.com/dustin/go-humanize"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"

	"github.com/mtraver/sensor-stats/cache"
	"github.com/mtraver/sensor-stats/config"
	"github.com/mtraver/sensor-stats/ingest"
	"github.com/mtraver/sensor-stats/report"
	"github.com/mtraver/sensor-stats/trend"
)

// FileResult is the outcome of processing one file.
type FileResult struct {
	Block report.Block

	// Lines and Skipped are carried over from ingestion for diagnostics.
	Lines   int
	Skipped map[ingest.SkipReason]int
}

type Runner struct {
	Config config.Config
	Out    io.Writer
	Log    *log.Logger

	// If non-nil, results are reused for files whose size and modification
	// time haven't changed since they were last processed.
	Cache *cache.Cache[FileResult]
}

func (r *Runner) logger() *log.Logger {
	if r.Log == nil {
		return log.StandardLogger()
	}
	return r.Log
}

// Run processes each configured file in order, writing a report block for each
// to Out. A file that can't be opened or read ends the run with an
// *ingest.SourceError unless Config.ContinueOnError is set, in which case the
// remaining files are processed and all such errors are returned joined.
// ctx is checked between files.
func (r *Runner) Run(ctx context.Context) error {
	var errs []error
	for _, name := range r.Config.Files {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		res, err := r.File(name)
		if err != nil {
			var serr *ingest.SourceError
			if !errors.As(err, &serr) || !r.Config.ContinueOnError {
				return err
			}

			r.logger().WithFields(log.Fields{"file": name}).Errorf("Skipping file: %v", err)
			errs = append(errs, err)
			continue
		}

		if err := report.Write(r.Out, res.Block); err != nil {
			return fmt.Errorf("failed to write results for %s: %w", name, err)
		}
	}

	return errors.Join(errs...)
}

// File ingests and analyzes a single file. A file with no retained values
// yields a result with Block.NoData set rather than an error.
func (r *Runner) File(name string) (FileResult, error) {
	key, cacheable := r.cacheKey(name)
	if cacheable {
		if res, ok := r.Cache.Get(key); ok {
			r.logger().WithFields(log.Fields{"file": name}).Debug("Reusing results for unchanged file")
			return res, nil
		}
	}

	processStart := time.Now()
	data, err := ingest.File(name, r.Config.IngestOptions())
	processTime := time.Since(processStart)
	if err != nil {
		return FileResult{}, err
	}

	calcStart := time.Now()
	stats, err := trend.Analyze(data.Data, r.Config.Window)
	calcTime := time.Since(calcStart)

	res := FileResult{
		Block: report.Block{
			Name:        name,
			Stats:       stats,
			Anomalies:   data.Anomalies,
			Processing:  processTime,
			Calculation: calcTime,
		},
		Lines:   data.Lines,
		Skipped: data.Skipped,
	}

	switch {
	case errors.Is(err, trend.ErrEmpty):
		res.Block.NoData = true
	case err != nil:
		return FileResult{}, fmt.Errorf("failed to analyze %s: %w", name, err)
	}

	r.logDiagnostics(name, data)

	if cacheable {
		r.Cache.Set(key, res, r.Config.CacheTTL)
	}
	return res, nil
}

func (r *Runner) logDiagnostics(name string, data ingest.Result) {
	fields := log.Fields{
		"file":      name,
		"lines":     humanize.Comma(int64(data.Lines)),
		"kept":      humanize.Comma(int64(len(data.Data))),
		"anomalies": data.Anomalies,
	}
	for reason, n := range data.Skipped {
		fields["skipped_"+reason.String()] = n
	}

	entry := r.logger().WithFields(fields)
	if len(data.Data) == 0 {
		entry.Warn("No values retained")
		return
	}
	entry.Debugf("Skipped %s of %s lines", humanize.Comma(int64(data.SkippedTotal())), humanize.Comma(int64(data.Lines)))
}

// cacheKey identifies the current contents of the named file by its path, size,
// and modification time. It reports false if caching is off or the file can't
// be stat'd, in which case the error surfaces when the file is opened.
func (r *Runner) cacheKey(name string) (string, bool) {
	if r.Cache == nil {
		return "", false
	}

	path, err := homedir.Expand(name)
	if err != nil {
		return "", false
	}

	fi, err := os.Stat(path)
	if err != nil {
		return "", false
	}

	return fmt.Sprintf("%s#%d#%d", path, fi.Size(), fi.ModTime().UnixNano()), true
}
