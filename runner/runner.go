// Package runner drives a merge run: it reads history files, merges their
// snapshots into one topology and writes the per-snapshot and final outputs.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"slrz.net/fabtopo/export"
	"slrz.net/fabtopo/metrics"
	"slrz.net/fabtopo/routing"
	"slrz.net/fabtopo/snapshot"
	"slrz.net/fabtopo/state"
	"slrz.net/fabtopo/topology"
)

// Runner merges fabric histories. A Runner is meant for a single Run.
type Runner struct {
	topo    *topology.T
	log     zerolog.Logger
	metrics *metrics.Metrics
	store   *state.Store
	pending []pendingSnapshot

	// fields below are immutable after initialization
	outDir        string
	topoFile      string
	countersExt   string
	routingExt    string
	historyExt    string
	dotFile       string
	metricsFile   string
	prefixOutputs bool
	dedupRouting  bool
}

// A pendingSnapshot is a merged snapshot whose per-snapshot outputs are yet
// to be written.
type pendingSnapshot struct {
	name     string // output base name without extension
	routes   []routing.Route
	counters []snapshot.Counter
}

// A RunnerOption may be passed to New to customize the Runner's behaviour.
type RunnerOption func(*Runner)

// WithTopology makes the Runner merge into t instead of a fresh topology.
func WithTopology(t *topology.T) RunnerOption {
	return func(r *Runner) {
		r.topo = t
	}
}

// WithLogger sets the logger for progress and diagnostics. The default
// discards all output.
func WithLogger(l zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithMetricsFile writes the run metrics to file after a successful run.
func WithMetricsFile(file string) RunnerOption {
	return func(r *Runner) {
		r.metricsFile = file
	}
}

// WithStateStore restores the topology from s before merging and saves it
// back after a successful run.
func WithStateStore(s *state.Store) RunnerOption {
	return func(r *Runner) {
		r.store = s
	}
}

// WithOutputDir sets the directory receiving all output files. Defaults to
// the current directory.
func WithOutputDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.outDir = dir
	}
}

// WithTopologyFile sets the name of the topology document. Defaults to
// "network.topo".
func WithTopologyFile(name string) RunnerOption {
	return func(r *Runner) {
		r.topoFile = name
	}
}

// WithExtensions sets the file name extensions of counter tables, routing
// tables and history files.
func WithExtensions(counters, routing, history string) RunnerOption {
	return func(r *Runner) {
		r.countersExt = counters
		r.routingExt = routing
		r.historyExt = history
	}
}

// WithDOTFile additionally writes the merged fabric as a DOT graph to name.
func WithDOTFile(name string) RunnerOption {
	return func(r *Runner) {
		r.dotFile = name
	}
}

// WithPrefixedOutputs prefixes per-snapshot output files with the tag
// guessed from their history file's name (see HistoryPrefix).
func WithPrefixedOutputs(r *Runner) {
	r.prefixOutputs = true
}

// WithRoutingDedup skips routing tables equal to the previously written
// one.
func WithRoutingDedup(r *Runner) {
	r.dedupRouting = true
}

// New constructs a runner configured with the specified options.
func New(opts ...RunnerOption) *Runner {
	r := &Runner{
		log:         zerolog.Nop(),
		outDir:      ".",
		topoFile:    "network.topo",
		countersExt: ".count",
		routingExt:  ".rtable",
		historyExt:  ".his",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.topo == nil {
		r.topo = topology.New()
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	return r
}

// Topology returns the topology merged into.
func (r *Runner) Topology() *topology.T {
	return r.topo
}

// Run merges all snapshots of the history files found at path, a single
// file or a directory. All snapshots are merged before any output is
// written; the first consistency violation aborts the run without output.
func (r *Runner) Run(ctx context.Context, path string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("runner.(*Runner).Run: %w", err)
		}
	}()

	files, err := HistoryFiles(path, r.historyExt)
	if err != nil {
		return err
	}
	if err := r.restore(); err != nil {
		return err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.mergeFile(ctx, file); err != nil {
			return err
		}
	}

	if err := r.mkdirOutput(); err != nil {
		return err
	}
	if err := r.writeSnapshotOutputs(); err != nil {
		return err
	}
	if err := r.writeFabricOutputs(); err != nil {
		return err
	}
	r.summarize()

	if r.store != nil {
		if err := r.store.Save(r.topo); err != nil {
			return err
		}
	}
	if r.metricsFile != "" {
		if err := r.metrics.WriteFile(r.outPath(r.metricsFile)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) restore() error {
	if r.store == nil {
		return nil
	}
	nodes, err := r.store.Load()
	if err != nil {
		return err
	}
	if err := r.topo.Restore(nodes...); err != nil {
		return err
	}
	if len(nodes) > 0 {
		r.log.Info().
			Int("nodes", r.topo.Len()).
			Int("ports", r.topo.ConnectedPorts()).
			Msg("restored saved topology")
	}
	return nil
}

func (r *Runner) mergeFile(ctx context.Context, file string) error {
	h, err := snapshot.ReadFile(file)
	if err != nil {
		return err
	}
	r.metrics.HistoryFiles.Inc()

	log := r.log.With().Str("file", file).Logger()
	log.Info().Int("snapshots", h.Len()).Msg("processing history file")

	prefix := ""
	if r.prefixOutputs {
		prefix = HistoryPrefix(file) + "."
	}
	for i := range h.Snapshots {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := &h.Snapshots[i]
		stamp, err := s.Stamp()
		if err != nil {
			log.Warn().Err(err).Int("snapshot", s.Index).
				Msg("skipping snapshot with unusable timestamp")
			r.metrics.Snapshots.WithLabelValues("skipped").Inc()
			continue
		}
		if err := r.merge(log, s); err != nil {
			return fmt.Errorf("%s: snapshot %d (%s): %w", file, s.Index, s.Timestamp, err)
		}
		r.metrics.Snapshots.WithLabelValues("merged").Inc()
		r.pending = append(r.pending, pendingSnapshot{
			name:     prefix + stamp,
			routes:   s.Routes,
			counters: s.Counters,
		})
	}
	return nil
}

// merge applies one snapshot: all nodes first, then all links.
func (r *Runner) merge(log zerolog.Logger, s *snapshot.Snapshot) error {
	log = log.With().Int("snapshot", s.Index).Str("timestamp", s.Timestamp).Logger()

	stats, err := r.topo.MergeNodes(s.Nodes)
	if err != nil {
		return fmt.Errorf("adding nodes: %w", err)
	}
	r.metrics.ObserveNodes(stats)
	counts := r.topo.Counts()
	if stats.Total() > 0 {
		log.Info().
			Int("nodes", stats.Nodes).
			Int("switches", stats.Switches).
			Int("total", r.topo.Len()).
			Int("total_nodes", counts.Nodes).
			Int("total_switches", counts.Switches).
			Msg("created nodes")
	} else {
		log.Debug().Int("total", r.topo.Len()).Msg("no new nodes")
	}

	connected, err := r.topo.MergeLinks(s.Links)
	if err != nil {
		return fmt.Errorf("adding links: %w", err)
	}
	r.metrics.PortsConnected.Add(float64(connected))
	if connected > 0 {
		log.Info().
			Int("ports", connected).
			Int("total", r.topo.ConnectedPorts()).
			Msg("connected ports")
	} else {
		log.Debug().Int("total", r.topo.ConnectedPorts()).Msg("no new ports")
	}
	return nil
}

func (r *Runner) writeSnapshotOutputs() error {
	var prev *routing.Tables
	for _, p := range r.pending {
		countFile := r.outPath(p.name + r.countersExt)
		err := export.WriteFile(countFile, func(w io.Writer) error {
			return export.WriteCounters(w, p.counters)
		})
		if err != nil {
			return err
		}
		r.metrics.OutputFiles.WithLabelValues("counters", "written").Inc()
		r.log.Debug().Str("file", countFile).Msg("wrote port counters")

		ts := routing.Invert(p.routes)
		if n := ts.Overrides(); n > 0 {
			r.log.Warn().Str("snapshot", p.name).Int("lids", n).
				Msg("routes map a LID to more than one port, last route wins")
			r.metrics.RoutingOverrides.Add(float64(n))
		}
		rtFile := r.outPath(p.name + r.routingExt)
		if r.dedupRouting && prev != nil && prev.Equal(ts) {
			r.log.Debug().Str("file", rtFile).Msg("routing unchanged, not writing")
			r.metrics.OutputFiles.WithLabelValues("routing", "redundant").Inc()
			continue
		}
		err = export.WriteFile(rtFile, func(w io.Writer) error {
			return export.WriteRouting(w, ts)
		})
		if err != nil {
			return err
		}
		prev = &ts
		r.metrics.OutputFiles.WithLabelValues("routing", "written").Inc()
		r.log.Debug().Str("file", rtFile).Int("switches", ts.Len()).Msg("wrote routing table")
	}
	r.pending = nil
	return nil
}

func (r *Runner) writeFabricOutputs() error {
	topoFile := r.outPath(r.topoFile)
	err := export.WriteFile(topoFile, func(w io.Writer) error {
		return export.WriteTopology(w, r.topo)
	})
	if err != nil {
		return err
	}
	r.metrics.OutputFiles.WithLabelValues("topology", "written").Inc()
	r.log.Info().Str("file", topoFile).Msg("wrote network")

	if r.dotFile == "" {
		return nil
	}
	p, err := r.topo.MarshalDOT("fabric")
	if err != nil {
		return err
	}
	dotFile := r.outPath(r.dotFile)
	err = export.WriteFile(dotFile, func(w io.Writer) error {
		_, err := w.Write(p)
		return err
	})
	if err != nil {
		return err
	}
	r.metrics.OutputFiles.WithLabelValues("dot", "written").Inc()
	r.log.Info().Str("file", dotFile).Msg("wrote DOT graph")
	return nil
}

func (r *Runner) summarize() {
	r.metrics.ObserveFabric(r.topo)
	counts := r.topo.Counts()
	unresolved := 0
	for _, n := range r.topo.All() {
		if _, ok := n.LID(); !ok {
			unresolved++
		}
	}
	ev := r.log.Info()
	if unresolved > 0 {
		ev = r.log.Warn().Int("unresolved_lids", unresolved)
	}
	ev.Int("nodes", counts.Nodes).
		Int("switches", counts.Switches).
		Int("ports", r.topo.ConnectedPorts()).
		Int("components", len(r.topo.Components())).
		Msg("complete")
}

func (r *Runner) outPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.outDir, name)
}

// mkdirOutput makes sure the output directory exists.
func (r *Runner) mkdirOutput() error {
	return os.MkdirAll(r.outDir, 0o755)
}
