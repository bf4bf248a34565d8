// Program sensorstats reads CSV files of sensor readings and prints summary
// statistics, a trend, and an anomaly count for each.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"syscall"

	cron "github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/mtraver/sensor-stats/batch"
	"github.com/mtraver/sensor-stats/cache"
	"github.com/mtraver/sensor-stats/config"
	"github.com/mtraver/sensor-stats/ingest"
)

const usageStr = `usage: %v [options] [csv_file ...]

Reads each CSV file in turn and prints its mean, variance, standard deviation,
trend, and anomaly count. The first line of each file is a header and is
ignored. The third field of every other line is the measurement; "NA" marks a
missing one. Lines that can't be parsed are skipped.

Files given as arguments replace the list from the config file.

Options:
`

type options struct {
	configPath string
	window     int
	cont       bool
	cronSpec   string
	verbose    bool
}

func newFlagSet(name string, opts *options, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	fs.IntVarP(&opts.window, "window", "w", 0, "moving-average window size (overrides config)")
	fs.BoolVar(&opts.cont, "continue", false, "keep going when a file can't be opened instead of aborting")
	fs.StringVar(&opts.cronSpec, "cronspec", "", "cron spec on which to rerun the batch (overrides config)")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log per-file diagnostics")

	fs.Usage = func() {
		fmt.Fprintf(out, usageStr, path.Base(name))
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs builds the run configuration from the command line, layering flags
// and positional file arguments over the config file and defaults.
func parseArgs(name string, args []string, stderr io.Writer) (config.Config, options, error) {
	var opts options
	fs := newFlagSet(name, &opts, stderr)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, opts, err
	}

	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return config.Config{}, opts, err
		}
	}

	if fs.Changed("window") {
		cfg.Window = opts.window
	}
	if fs.Changed("continue") {
		cfg.ContinueOnError = opts.cont
	}
	if fs.Changed("cronspec") {
		cfg.CronSpec = opts.cronSpec
	}
	if fs.NArg() > 0 {
		cfg.Files = fs.Args()
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, opts, err
	}
	return cfg, opts, nil
}

func newLogger(verbose bool, out io.Writer) *log.Logger {
	l := log.New()
	l.Out = out
	l.Formatter = &log.TextFormatter{FullTimestamp: true}
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// schedule runs the batch on cfg.CronSpec until the process is signaled.
func schedule(ctx context.Context, r *batch.Runner) error {
	cr := cron.New()
	if _, err := cr.AddJob(r.Config.CronSpec, batch.Job{Runner: r}); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", r.Config.CronSpec, err)
	}

	r.Log.Infof("Starting cron scheduler with spec %q", r.Config.CronSpec)
	cr.Start()

	<-ctx.Done()
	r.Log.Info("Waiting for running jobs to finish...")
	<-cr.Stop().Done()
	return nil
}

// run executes the command and returns its exit status: 2 for an argument or
// config error, 1 if a file couldn't be opened or read, and 0 otherwise.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	name := "sensorstats"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	cfg, opts, err := parseArgs(name, args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	} else if err != nil {
		fmt.Fprintf(stderr, "argument error: %v\n", err)
		return 2
	}

	r := &batch.Runner{
		Config: cfg,
		Out:    stdout,
		Log:    newLogger(opts.verbose, stderr),
	}

	if cfg.CronSpec != "" {
		r.Cache = cache.New[batch.FileResult]()
		if err := schedule(ctx, r); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		return 0
	}

	if err := r.Run(ctx); err != nil {
		var serr *ingest.SourceError
		if errors.As(err, &serr) {
			fmt.Fprintf(stderr, "Error opening: %s\n", serr.Name)
			r.Log.Debug(err)
		} else {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
