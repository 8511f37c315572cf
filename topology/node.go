package topology

import (
	"encoding/json"
	"fmt"
)

// NoLID is reported for nodes whose address was never resolved from link
// data.
const NoLID = -1

// A Node corresponds to one physical entity of the fabric, a switch or an
// end node, as accumulated across all merged snapshots.
type Node struct {
	GUID     string
	Desc     string
	NumPorts int
	Switch   bool

	lid   int
	ports []Port
}

// A Port is the state of a single port on a node. A port is connected iff
// both Peer and PeerPort are set.
type Port struct {
	Num      int
	Peer     string
	PeerPort int
}

// Connected reports whether p has a peer.
func (p Port) Connected() bool {
	return p.Peer != "" && p.PeerPort >= 0
}

func (p Port) String() string {
	if !p.Connected() {
		return fmt.Sprintf("%d -- (none)", p.Num)
	}
	return fmt.Sprintf("%d -- %s:%d", p.Num, p.Peer, p.PeerPort)
}

func newNode(info NodeInfo) *Node {
	n := &Node{
		GUID:     info.GUID,
		Desc:     info.Desc,
		NumPorts: info.NumPorts,
		Switch:   info.Switch,
		lid:      NoLID,
		ports:    make([]Port, info.NumPorts),
	}
	for i := range n.ports {
		n.ports[i] = Port{Num: i + 1, PeerPort: -1}
	}
	return n
}

// LID returns the node's resolved address. The boolean is false while the
// address is unresolved.
func (n *Node) LID() (int, bool) {
	return n.lid, n.lid != NoLID
}

// Kind returns whether n is a switch or an end node.
func (n *Node) Kind() NodeKind {
	if n.Switch {
		return KindSwitch
	}
	return KindNode
}

// Port returns the state of port num (1-based).
func (n *Node) Port(num int) (Port, bool) {
	if num < 1 || num > n.NumPorts {
		return Port{}, false
	}
	return n.ports[num-1], true
}

// Ports returns the state of all ports, ordered by port number.
func (n *Node) Ports() []Port {
	ps := make([]Port, len(n.ports))
	copy(ps, n.ports)
	return ps
}

// ConnectedPorts returns the number of ports of n that have a peer.
func (n *Node) ConnectedPorts() int {
	c := 0
	for _, p := range n.ports {
		if p.Connected() {
			c++
		}
	}
	return c
}

// Info returns the descriptor n was created from.
func (n *Node) Info() NodeInfo {
	return NodeInfo{
		GUID:     n.GUID,
		Desc:     n.Desc,
		NumPorts: n.NumPorts,
		Switch:   n.Switch,
	}
}

type jsonPort struct {
	Peer     string `json:"peer,omitempty"`
	PeerPort int    `json:"peer_port"`
}

type jsonNode struct {
	GUID     string     `json:"guid"`
	Desc     string     `json:"desc"`
	NumPorts int        `json:"num_ports"`
	Switch   bool       `json:"switch"`
	LID      int        `json:"lid"`
	Ports    []jsonPort `json:"ports"`
}

// MarshalJSON encodes the full state of n, including its address and port
// connections.
func (n *Node) MarshalJSON() ([]byte, error) {
	jn := jsonNode{
		GUID:     n.GUID,
		Desc:     n.Desc,
		NumPorts: n.NumPorts,
		Switch:   n.Switch,
		LID:      n.lid,
		Ports:    make([]jsonPort, len(n.ports)),
	}
	for i, p := range n.ports {
		jn.Ports[i] = jsonPort{Peer: p.Peer, PeerPort: p.PeerPort}
	}
	return json.Marshal(jn)
}

// UnmarshalJSON is the inverse of MarshalJSON. The decoded node is not
// checked against any topology; use (*T).Restore for that.
func (n *Node) UnmarshalJSON(p []byte) error {
	var jn jsonNode
	if err := json.Unmarshal(p, &jn); err != nil {
		return err
	}
	if jn.NumPorts < 0 || len(jn.Ports) != jn.NumPorts {
		return fmt.Errorf("node %s: got %d port records, want %d",
			jn.GUID, len(jn.Ports), jn.NumPorts)
	}
	*n = *newNode(NodeInfo{
		GUID:     jn.GUID,
		Desc:     jn.Desc,
		NumPorts: jn.NumPorts,
		Switch:   jn.Switch,
	})
	n.lid = jn.LID
	for i, jp := range jn.Ports {
		n.ports[i].Peer = jp.Peer
		n.ports[i].PeerPort = jp.PeerPort
	}
	return nil
}

// NodeKind distinguishes switches from end nodes (channel adapters,
// routers).
type NodeKind int

const (
	KindNode NodeKind = iota
	KindSwitch
)

func (k NodeKind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindSwitch:
		return "switch"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}
