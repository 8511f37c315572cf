package export

import (
	"encoding/json"
	"io"

	"slrz.net/fabtopo/topology"
)

// Document is the topology document: end nodes and switches, each ordered
// by GUID.
type Document struct {
	Nodes    []NodeEntry `json:"nodes"`
	Switches []NodeEntry `json:"switches"`
}

// NodeEntry describes one node of the topology document. LID is -1 for
// nodes whose address was never resolved.
type NodeEntry struct {
	ID    string      `json:"id"`
	Desc  string      `json:"desc"`
	LID   int         `json:"lid"`
	Ports []PortEntry `json:"ports"`
}

// PortEntry is one port of a node. Unconnected ports have an empty DestNode
// and a DestPort of -1.
type PortEntry struct {
	Num      int    `json:"num"`
	DestNode string `json:"dest_node"`
	DestPort int    `json:"dest_port"`
}

// NewDocument builds the topology document for t.
func NewDocument(t *topology.T) *Document {
	return &Document{
		Nodes:    entries(t.Nodes(topology.KindNode)),
		Switches: entries(t.Nodes(topology.KindSwitch)),
	}
}

func entries(ns []*topology.Node) []NodeEntry {
	es := make([]NodeEntry, 0, len(ns))
	for _, n := range ns {
		lid, ok := n.LID()
		if !ok {
			lid = topology.NoLID
		}
		e := NodeEntry{
			ID:    n.GUID,
			Desc:  n.Desc,
			LID:   lid,
			Ports: make([]PortEntry, 0, n.NumPorts),
		}
		for _, p := range n.Ports() {
			pe := PortEntry{Num: p.Num, DestPort: -1}
			if p.Connected() {
				pe.DestNode = p.Peer
				pe.DestPort = p.PeerPort
			}
			e.Ports = append(e.Ports, pe)
		}
		es = append(es, e)
	}
	return es
}

// WriteTopology writes the topology document for t to w as indented JSON.
func WriteTopology(w io.Writer, t *topology.T) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(NewDocument(t))
}
