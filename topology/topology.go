// Package topology accumulates the nodes, ports and links observed in a
// sequence of fabric snapshots into a single, consistency-checked view of
// the fabric.
package topology

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// T represents the cumulative fabric topology. The zero value is not usable;
// construct one with New. A T is owned by a single merge driver and is not
// safe for concurrent use.
type T struct {
	nodes map[string]*Node

	// counters
	numNodes    int
	numSwitches int
	connected   int
}

// NodeInfo describes a node as reported by one snapshot.
type NodeInfo struct {
	GUID     string `yaml:"guid" json:"guid"`
	Desc     string `yaml:"desc" json:"desc"`
	NumPorts int    `yaml:"ports" json:"ports"`
	Switch   bool   `yaml:"switch" json:"switch"`
}

// NodeStats counts nodes created by a merge.
type NodeStats struct {
	Nodes    int // end nodes
	Switches int
}

// Total returns the sum of end nodes and switches.
func (s NodeStats) Total() int { return s.Nodes + s.Switches }

// New returns an empty topology.
func New() *T {
	return &T{nodes: make(map[string]*Node)}
}

// MergeNodes registers the nodes of one snapshot. Unknown nodes are created
// with an unresolved address and unconnected ports. Known nodes must agree
// on port count and switch classification; the description is taken from
// the first observation and not compared. The returned stats count newly
// created nodes only.
func (t *T) MergeNodes(infos []NodeInfo) (NodeStats, error) {
	var stats NodeStats
	for _, info := range infos {
		created, err := t.mergeNode(info)
		if err != nil {
			return stats, err
		}
		if !created {
			continue
		}
		if info.Switch {
			stats.Switches++
		} else {
			stats.Nodes++
		}
	}
	return stats, nil
}

func (t *T) mergeNode(info NodeInfo) (created bool, err error) {
	if n := t.nodes[info.GUID]; n != nil {
		if n.NumPorts != info.NumPorts || n.Switch != info.Switch {
			return false, &ConsistencyError{
				Kind: NodeMismatch,
				GUID: info.GUID,
				Have: describeShape(n.NumPorts, n.Switch),
				Got:  describeShape(info.NumPorts, info.Switch),
			}
		}
		return false, nil
	}
	if info.NumPorts < 0 {
		return false, fmt.Errorf("node %s: negative port count %d",
			info.GUID, info.NumPorts)
	}

	t.nodes[info.GUID] = newNode(info)
	if info.Switch {
		t.numSwitches++
	} else {
		t.numNodes++
	}
	return true, nil
}

func describeShape(numPorts int, isSwitch bool) string {
	kind := KindNode
	if isSwitch {
		kind = KindSwitch
	}
	return fmt.Sprintf("%s with %d ports", kind, numPorts)
}

// ResolveAddress sets the LID of node guid. A node's LID is assigned once;
// later observations must present the same value.
func (t *T) ResolveAddress(guid string, lid int) error {
	n := t.nodes[guid]
	if n == nil {
		return &ConsistencyError{Kind: UnknownNode, GUID: guid}
	}
	if n.lid == NoLID {
		n.lid = lid
		return nil
	}
	if n.lid != lid {
		return &ConsistencyError{
			Kind: AddressMismatch,
			GUID: guid,
			Have: strconv.Itoa(n.lid),
			Got:  strconv.Itoa(lid),
		}
	}
	return nil
}

// ConnectPort records that port num of node guid is cabled to port peerPort
// of node peer. Only this half of the link is recorded. Reconnecting a port
// to the peer it already has is a no-op; connecting it to a different peer
// is an error.
func (t *T) ConnectPort(guid string, num int, peer string, peerPort int) error {
	n := t.nodes[guid]
	if n == nil {
		return &ConsistencyError{Kind: UnknownNode, GUID: guid}
	}
	if num < 1 || num > n.NumPorts {
		return &ConsistencyError{
			Kind: PortIndexOutOfRange,
			GUID: guid,
			Port: num,
			Have: strconv.Itoa(n.NumPorts),
		}
	}

	p := &n.ports[num-1]
	if p.Connected() {
		if p.Peer != peer || p.PeerPort != peerPort {
			return &ConsistencyError{
				Kind: PortConflict,
				GUID: guid,
				Port: num,
				Have: fmt.Sprintf("%s-%d", p.Peer, p.PeerPort),
				Got:  fmt.Sprintf("%s-%d", peer, peerPort),
			}
		}
		return nil
	}
	p.Peer = peer
	p.PeerPort = peerPort
	t.connected++
	return nil
}

// ConnectedPeers returns the distinct nodes that have at least one port
// connected to guid, sorted by GUID.
func (t *T) ConnectedPeers(guid string) ([]string, error) {
	n := t.nodes[guid]
	if n == nil {
		return nil, &ConsistencyError{Kind: UnknownNode, GUID: guid}
	}
	seen := make(map[string]bool)
	var peers []string
	for _, p := range n.ports {
		if !p.Connected() || seen[p.Peer] {
			continue
		}
		seen[p.Peer] = true
		peers = append(peers, p.Peer)
	}
	slices.Sort(peers)
	return peers, nil
}

// Node returns the node identified by guid, or nil.
func (t *T) Node(guid string) *Node {
	return t.nodes[guid]
}

// Len returns the number of known nodes, switches included.
func (t *T) Len() int {
	return len(t.nodes)
}

// Counts returns the number of end nodes and switches known.
func (t *T) Counts() NodeStats {
	return NodeStats{Nodes: t.numNodes, Switches: t.numSwitches}
}

// ConnectedPorts returns the number of ports connected so far, counting
// each half of a link separately.
func (t *T) ConnectedPorts() int {
	return t.connected
}

// Nodes returns all nodes of the given kind, ordered by GUID.
func (t *T) Nodes(kind NodeKind) []*Node {
	var ns []*Node
	for _, n := range t.nodes {
		if n.Kind() == kind {
			ns = append(ns, n)
		}
	}
	slices.SortFunc(ns, func(a, b *Node) int {
		return strings.Compare(a.GUID, b.GUID)
	})
	return ns
}

// All returns every known node ordered by GUID.
func (t *T) All() []*Node {
	ns := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		ns = append(ns, n)
	}
	slices.SortFunc(ns, func(a, b *Node) int {
		return strings.Compare(a.GUID, b.GUID)
	})
	return ns
}

// Restore replays previously saved nodes into t. Every node passes through
// the same checks as freshly observed data, so restoring into a non-empty
// topology fails on any contradiction.
func (t *T) Restore(nodes ...*Node) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Restore: %w", err)
		}
	}()

	infos := make([]NodeInfo, len(nodes))
	for i, n := range nodes {
		infos[i] = n.Info()
	}
	if _, err := t.MergeNodes(infos); err != nil {
		return err
	}
	for _, n := range nodes {
		if lid, ok := n.LID(); ok {
			if err := t.ResolveAddress(n.GUID, lid); err != nil {
				return err
			}
		}
		for _, p := range n.ports {
			if !p.Connected() {
				continue
			}
			if err := t.ConnectPort(n.GUID, p.Num, p.Peer, p.PeerPort); err != nil {
				return err
			}
		}
	}
	return nil
}
