// Command fabtopo merges the fabric snapshots recorded in history files into
// a single topology. It writes a topology document for the merged fabric and,
// for every snapshot, a port counter table and a routing table.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"slrz.net/fabtopo/config"
	"slrz.net/fabtopo/metrics"
	"slrz.net/fabtopo/runner"
	"slrz.net/fabtopo/state"
)

var (
	configFile = flag.String("config", os.Getenv("FABTOPO_CONFIG"),
		"read settings from TOML `file`")
	outputDir = flag.String("o", ".",
		"write output files to `dir`")
	topologyFile = flag.String("topo", "network.topo",
		"write the merged topology to `file`")
	countersExt = flag.String("countersext", ".count",
		"name counter tables with extension `ext`")
	routingExt = flag.String("routingext", ".rtable",
		"name routing tables with extension `ext`")
	historyExt = flag.String("historyext", ".his",
		"read history files with extension `ext` from directories")
	prefixOutputs = flag.Bool("prefix", false,
		"prefix per-snapshot outputs with the history file's tag")
	dedupRouting = flag.Bool("dedup", false,
		"skip routing tables identical to the previous one")
	dotFile = flag.String("dot", "",
		"also write the merged fabric as DOT graph to `file`")
	stateDB = flag.String("state", "",
		"restore and save the merged topology in database `file`")
	metricsFile = flag.String("metrics", "",
		"write run metrics in Prometheus text format to `file`")
	logLevel = flag.String("loglevel", "info",
		"log messages at `level` and above")
)

const usage = "usage: fabtopo [options…] <history file | directory>"

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()

	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	if flag.Parse(); flag.NArg() != 1 || flag.Arg(0) == "help" {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	lvl, _ := cfg.Level()
	log = log.Level(lvl)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Error().Str("path", path).Msg("incorrect path")
			flag.Usage()
			os.Exit(1)
		}
		log.Fatal().Err(err).Send()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, log, cfg, path)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("merge failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, log zerolog.Logger, cfg *config.Config, path string) (err error) {
	runnerOpts := []runner.RunnerOption{
		runner.WithLogger(log),
		runner.WithMetrics(metrics.New()),
		runner.WithOutputDir(cfg.OutputDir),
		runner.WithTopologyFile(cfg.TopologyFile),
		runner.WithExtensions(cfg.CountersExt, cfg.RoutingExt, cfg.HistoryExt),
	}
	if cfg.PrefixOutputs {
		runnerOpts = append(runnerOpts, runner.WithPrefixedOutputs)
	}
	if cfg.DedupRouting {
		runnerOpts = append(runnerOpts, runner.WithRoutingDedup)
	}
	if s := cfg.DOTFile; s != "" {
		runnerOpts = append(runnerOpts, runner.WithDOTFile(s))
	}
	if s := cfg.MetricsFile; s != "" {
		runnerOpts = append(runnerOpts, runner.WithMetricsFile(s))
	}
	if s := cfg.StateDB; s != "" {
		store, err := state.Open(s)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := store.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing state database: %w", cerr)
			}
		}()
		runnerOpts = append(runnerOpts, runner.WithStateStore(store))
	}

	return runner.New(runnerOpts...).Run(ctx, path)
}

// loadConfig assembles the configuration from the builtin defaults, the
// config file, the environment and explicitly set flags, each overriding the
// ones before.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		c, err := config.Load(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = *c
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			cfg.OutputDir = *outputDir
		case "topo":
			cfg.TopologyFile = *topologyFile
		case "countersext":
			cfg.CountersExt = *countersExt
		case "routingext":
			cfg.RoutingExt = *routingExt
		case "historyext":
			cfg.HistoryExt = *historyExt
		case "prefix":
			cfg.PrefixOutputs = *prefixOutputs
		case "dedup":
			cfg.DedupRouting = *dedupRouting
		case "dot":
			cfg.DOTFile = *dotFile
		case "state":
			cfg.StateDB = *stateDB
		case "metrics":
			cfg.MetricsFile = *metricsFile
		case "loglevel":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
