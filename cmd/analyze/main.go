// Command analyze runs the visit analysis over a CSV export of device pings
// and writes the reports to a directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stuartshay/poi-visits/internal/config"
	"github.com/stuartshay/poi-visits/internal/ingest"
	"github.com/stuartshay/poi-visits/internal/ping"
	"github.com/stuartshay/poi-visits/internal/report"
	"github.com/stuartshay/poi-visits/internal/tracing"
	"github.com/stuartshay/poi-visits/internal/visits"
)

// version is set at build time
var version = "dev"

type options struct {
	input   string
	output  string
	workers int
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(consoleWriter())

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setLogLevel(cfg.LogLevel)

	opts, err := parseFlags(cfg, os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	shutdownTracer, err := tracing.InitTracer(tracing.FromConfig(cfg, "analyze", version))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, opts)
	stop()

	if shutdownErr := shutdownTracer(context.Background()); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("Failed to shutdown tracer")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
}

// parseFlags reads command line overrides of the configuration
func parseFlags(cfg *config.Config, args []string, out io.Writer) (options, error) {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(out)

	opts := options{}
	fs.StringVar(&opts.input, "input", cfg.InputCSV, "CSV file with device_id,timestamp,latitude,longitude columns")
	fs.StringVar(&opts.output, "output", cfg.OutputPath, "directory the reports are written to")
	fs.IntVar(&opts.workers, "workers", cfg.AnalysisWorkers, "number of device shards analyzed concurrently")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %v", fs.Args())
		fmt.Fprintln(out, err)
		return options{}, err
	}
	return opts, nil
}

// run reads, projects, analyzes and reports one CSV file
func run(ctx context.Context, cfg *config.Config, opts options) error {
	start := time.Now()

	proj, registry, err := cfg.BuildRegistry()
	if err != nil {
		return err
	}

	raws, err := ingest.ReadFile(ctx, opts.input)
	if err != nil {
		return err
	}

	ds := ping.Project(raws, proj)

	res, err := visits.Analyze(ctx, ds, registry, visits.Options{
		Workers:  opts.workers,
		Location: cfg.Location,
	})
	if err != nil {
		return err
	}

	files, err := report.Writer{Dir: opts.output}.WriteAll(res, registry, cfg.Location)
	if err != nil {
		return err
	}

	summary := visits.SummarizeDataset(ds)
	log.Info().
		Int("pings", summary.Pings).
		Int("skipped", summary.Skipped).
		Int("devices", summary.Devices).
		Time("first_seen", summary.FirstSeen).
		Time("last_seen", summary.LastSeen).
		Msg("Dataset summary")

	for _, s := range visits.SummarizePOIs(res.Visits, registry) {
		log.Info().
			Str("poi", s.POI).
			Int("visits", s.Visits).
			Int("paths", s.Paths).
			Float64("mean_duration_min", s.DurationMinutes.Mean).
			Float64("max_duration_min", s.DurationMinutes.Max).
			Float64("mean_trajectory_m", s.TrajectoryMeters.Mean).
			Float64("total_trajectory_m", s.TrajectoryMeters.Total).
			Msg("POI summary")
	}

	log.Info().
		Str("visits_csv", files.Visits).
		Str("trajectories", files.Trajectories).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis complete")

	return nil
}

// consoleWriter is the human readable log output, on stdout like the server
func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
}

// setLogLevel configures the global log level
func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
