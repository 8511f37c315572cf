// Package snapshot decodes fabric history files. A history file holds a
// time-ordered sequence of snapshots, each describing the nodes, links,
// forwarding routes and port counters observed at one point in time.
//
// History files are YAML documents (JSON is accepted as well):
//
//	snapshots:
//	  - timestamp: Mar 14 09:26:53 2017
//	    nodes:
//	      - {guid: "0002:c903:00a1:b2c3", desc: "sw1", ports: 36, switch: true}
//	    links:
//	      - a: {guid: "0002:c903:00a1:b2c3", lid: 1, port: 1}
//	        b: {guid: "0002:c903:00f0:0001", lid: 7, port: 1}
//	    routes:
//	      - {switch: "0002:c903:00a1:b2c3", port: 1, lids: [7]}
//	    counters:
//	      - {guid: "0002:c903:00a1:b2c3", port: 1, rcv_data: 1024}
package snapshot

import (
	"fmt"
	"time"

	"slrz.net/fabtopo/routing"
	"slrz.net/fabtopo/topology"
)

// Layouts of snapshot timestamps as found in history files and as used in
// output file names.
const (
	TimeLayout  = "Jan 2 15:04:05 2006"
	StampLayout = "20060102-150405"
)

// A Counter holds the performance counters sampled on one port. RcvData is
// nil when the port reported no data.
type Counter struct {
	GUID    string  `yaml:"guid" json:"guid"`
	Port    int     `yaml:"port" json:"port"`
	RcvData *uint64 `yaml:"rcv_data" json:"rcv_data"`
}

// Snapshot is one time step of a history file.
type Snapshot struct {
	// Index is the 1-based position of the snapshot in its file.
	Index     int                 `yaml:"-" json:"-"`
	Timestamp string              `yaml:"timestamp" json:"timestamp"`
	Nodes     []topology.NodeInfo `yaml:"nodes" json:"nodes"`
	Links     []topology.Link     `yaml:"links" json:"links"`
	Routes    []routing.Route     `yaml:"routes" json:"routes"`
	Counters  []Counter           `yaml:"counters" json:"counters"`
}

// Time parses the snapshot's timestamp.
func (s *Snapshot) Time() (time.Time, error) {
	if s.Timestamp == "" {
		return time.Time{}, fmt.Errorf("snapshot %d: missing timestamp", s.Index)
	}
	ts, err := time.Parse(TimeLayout, s.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("snapshot %d: %w", s.Index, err)
	}
	return ts, nil
}

// Stamp returns the timestamp formatted for use in file names, e.g.
// "20170314-092653".
func (s *Snapshot) Stamp() (string, error) {
	ts, err := s.Time()
	if err != nil {
		return "", err
	}
	return ts.Format(StampLayout), nil
}

// validate checks the shape of the decoded data and rewrites all GUIDs into
// canonical form. It does not check consistency between records.
func (s *Snapshot) validate() error {
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if err := canonicalize(&n.GUID); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		if n.NumPorts < 0 {
			return fmt.Errorf("node %s: negative port count %d",
				n.GUID, n.NumPorts)
		}
	}
	for i := range s.Links {
		l := &s.Links[i]
		for _, e := range []*topology.Endpoint{&l.A, &l.B} {
			if err := canonicalize(&e.GUID); err != nil {
				return fmt.Errorf("link %d: %w", i, err)
			}
			if e.LID < 0 || e.LID > 0xffff {
				return fmt.Errorf("link %d: lid %d out of range", i, e.LID)
			}
		}
	}
	for i := range s.Routes {
		r := &s.Routes[i]
		if err := canonicalize(&r.Switch); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
	}
	for i := range s.Counters {
		c := &s.Counters[i]
		if err := canonicalize(&c.GUID); err != nil {
			return fmt.Errorf("counter %d: %w", i, err)
		}
	}
	return nil
}

func canonicalize(guid *string) error {
	s, err := topology.CanonicalGUID(*guid)
	if err != nil {
		return err
	}
	*guid = s
	return nil
}
