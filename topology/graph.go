package topology

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/topo"
)

// dotGraph wraps a multi.UndirectedGraph for DOT marshaling. Parallel cables
// between the same two nodes become parallel lines.
type dotGraph struct {
	*multi.UndirectedGraph
	byGUID map[string]*dotNode
}

func newDotGraph() *dotGraph {
	return &dotGraph{
		UndirectedGraph: multi.NewUndirectedGraph(),
		byGUID:          make(map[string]*dotNode),
	}
}

// DOTAttributers sets the graph-wide attributes.
func (g *dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return attrs{{Key: "overlap", Value: "false"}},
		attrs{{Key: "shape", Value: "box"}},
		attrs{}
}

type attrs []encoding.Attribute

func (a attrs) Attributes() []encoding.Attribute { return a }

type dotPortLabels struct {
	Port, Compass string
}

// dotLine is a DOT-aware line carrying the port numbers at both ends.
type dotLine struct {
	multi.Line

	FromPortLabels dotPortLabels
	ToPortLabels   dotPortLabels
}

// ReversedLine returns a copy of e with its ends, port labels included,
// swapped.
func (e *dotLine) ReversedLine() graph.Line {
	return &dotLine{
		Line:           e.Line.ReversedLine().(multi.Line),
		FromPortLabels: e.ToPortLabels,
		ToPortLabels:   e.FromPortLabels,
	}
}

func (e *dotLine) FromPort() (port, compass string) {
	return e.FromPortLabels.Port, e.FromPortLabels.Compass
}

func (e *dotLine) ToPort() (port, compass string) {
	return e.ToPortLabels.Port, e.ToPortLabels.Compass
}

// dotNode is a DOT-aware node.
type dotNode struct {
	graph.Node
	dotID string
	attrs map[string]string
}

// DOTID returns the node's GUID.
func (n *dotNode) DOTID() string { return n.dotID }

func (n *dotNode) String() string { return n.dotID }

// Attributes returns the DOT attributes of the node.
func (n *dotNode) Attributes() []encoding.Attribute {
	return toAttributeSlice(n.attrs)
}

// toAttributeSlice returns the attributes of m ordered by key.
func toAttributeSlice(m map[string]string) []encoding.Attribute {
	as := make([]encoding.Attribute, 0, len(m))
	for k, v := range m {
		as = append(as, encoding.Attribute{
			Key:   k,
			Value: v,
		})
	}
	slices.SortFunc(as, func(a, b encoding.Attribute) int {
		return strings.Compare(a.Key, b.Key)
	})
	return as
}

// graph builds the graph of the fabric. Node IDs follow GUID order and each
// cable yields one line, regardless of whether one or both of its halves
// were recorded.
func (t *T) graph() *dotGraph {
	g := newDotGraph()
	all := t.All()
	for i, n := range all {
		lid := strconv.Itoa(n.lid)
		dn := &dotNode{
			Node:  multi.Node(i),
			dotID: n.GUID,
			attrs: map[string]string{
				"desc":   n.Desc,
				"lid":    lid,
				"switch": strconv.FormatBool(n.Switch),
			},
		}
		g.AddNode(dn)
		g.byGUID[n.GUID] = dn
	}

	type half struct {
		guid string
		port int
	}
	seen := make(map[half]bool)
	for _, n := range all {
		for _, p := range n.ports {
			if !p.Connected() || seen[half{n.GUID, p.Num}] {
				continue
			}
			peer := g.byGUID[p.Peer]
			if peer == nil {
				// dangling half; the peer was never registered
				continue
			}
			seen[half{n.GUID, p.Num}] = true
			seen[half{p.Peer, p.PeerPort}] = true

			from := g.byGUID[n.GUID]
			l := g.NewLine(from, peer).(multi.Line)
			g.SetLine(&dotLine{
				Line:           l,
				FromPortLabels: dotPortLabels{Port: strconv.Itoa(p.Num)},
				ToPortLabels:   dotPortLabels{Port: strconv.Itoa(p.PeerPort)},
			})
		}
	}
	return g
}

// MarshalDOT renders the fabric as an undirected DOT multigraph named name.
// Nodes carry desc, lid and switch attributes; edges carry the port numbers
// at both ends.
func (t *T) MarshalDOT(name string) ([]byte, error) {
	p, err := dot.MarshalMulti(t.graph(), name, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("MarshalDOT: %w", err)
	}
	return append(p, '\n'), nil
}

// Components returns the connected components of the fabric, each as a
// sorted list of GUIDs, ordered by their first GUID.
func (t *T) Components() [][]string {
	g := t.graph()
	var cs [][]string
	for _, c := range topo.ConnectedComponents(g) {
		guids := make([]string, len(c))
		for i, n := range c {
			guids[i] = n.(*dotNode).dotID
		}
		slices.Sort(guids)
		cs = append(cs, guids)
	}
	slices.SortFunc(cs, func(a, b []string) int {
		return strings.Compare(a[0], b[0])
	})
	return cs
}
