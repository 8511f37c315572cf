// Package metrics defines the Prometheus metrics of a merge run. Metrics
// live on a private registry and are exported once at the end of a run in
// the node_exporter textfile format.
// All metrics use the "fabtopo_" prefix.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"slrz.net/fabtopo/topology"
)

const namespace = "fabtopo"

// Metrics holds the collectors of one run.
type Metrics struct {
	reg *prometheus.Registry

	// HistoryFiles counts history files read.
	HistoryFiles prometheus.Counter

	// Snapshots counts snapshots by result (merged, skipped).
	Snapshots *prometheus.CounterVec

	// NodesCreated counts nodes first seen during the run, by kind.
	NodesCreated *prometheus.CounterVec

	// PortsConnected counts newly connected ports.
	PortsConnected prometheus.Counter

	// RoutingOverrides counts LIDs whose outgoing port was replaced by a
	// later route of the same switch.
	RoutingOverrides prometheus.Counter

	// OutputFiles counts written artifacts by kind (topology, counters,
	// routing, dot) and routing tables suppressed as redundant.
	OutputFiles *prometheus.CounterVec

	// FabricNodes is the size of the merged fabric, by kind.
	FabricNodes *prometheus.GaugeVec

	// FabricConnectedPorts is the number of connected ports in the merged
	// fabric.
	FabricConnectedPorts prometheus.Gauge

	// FabricComponents is the number of connected components.
	FabricComponents prometheus.Gauge
}

// New creates the metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		HistoryFiles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_files_total",
			Help:      "Total history files processed.",
		}),
		Snapshots: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Total snapshots, by result (merged, skipped).",
		}, []string{"result"}),
		NodesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Total nodes first observed, by kind (node, switch).",
		}, []string{"kind"}),
		PortsConnected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ports_connected_total",
			Help:      "Total ports newly connected by link merges.",
		}),
		RoutingOverrides: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_overrides_total",
			Help:      "Total LIDs reassigned to a different port while inverting routes.",
		}),
		OutputFiles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_files_total",
			Help:      "Total output files, by kind and result (written, redundant).",
		}, []string{"kind", "result"}),
		FabricNodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fabric_nodes",
			Help:      "Number of nodes in the merged fabric, by kind.",
		}, []string{"kind"}),
		FabricConnectedPorts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fabric_connected_ports",
			Help:      "Number of connected ports in the merged fabric.",
		}),
		FabricComponents: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fabric_components",
			Help:      "Number of connected components of the merged fabric.",
		}),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveNodes records nodes created by a merge.
func (m *Metrics) ObserveNodes(s topology.NodeStats) {
	m.NodesCreated.WithLabelValues(topology.KindNode.String()).Add(float64(s.Nodes))
	m.NodesCreated.WithLabelValues(topology.KindSwitch.String()).Add(float64(s.Switches))
}

// ObserveFabric sets the fabric gauges from t.
func (m *Metrics) ObserveFabric(t *topology.T) {
	c := t.Counts()
	m.FabricNodes.WithLabelValues(topology.KindNode.String()).Set(float64(c.Nodes))
	m.FabricNodes.WithLabelValues(topology.KindSwitch.String()).Set(float64(c.Switches))
	m.FabricConnectedPorts.Set(float64(t.ConnectedPorts()))
	m.FabricComponents.Set(float64(len(t.Components())))
}

// WriteFile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
