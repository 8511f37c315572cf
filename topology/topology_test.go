package topology

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var twoNodes = []NodeInfo{
	{GUID: "A", Desc: "sw-a", NumPorts: 4, Switch: true},
	{GUID: "B", Desc: "hca-b", NumPorts: 2},
	{GUID: "C", Desc: "hca-c", NumPorts: 3},
}

func newTestTopology(t *testing.T) *T {
	t.Helper()
	topo := New()
	if _, err := topo.MergeNodes(twoNodes); err != nil {
		t.Fatal(err)
	}
	return topo
}

func TestMergeNodes(t *testing.T) {
	topo := New()
	stats, err := topo.MergeNodes(twoNodes)
	if err != nil {
		t.Fatal(err)
	}
	if want := (NodeStats{Nodes: 2, Switches: 1}); stats != want {
		t.Errorf("got stats %+v, want %+v", stats, want)
	}
	n := topo.Node("A")
	if n == nil {
		t.Fatal("node A missing")
	}
	if lid, ok := n.LID(); ok || lid != NoLID {
		t.Errorf("got lid %d (resolved=%t), want unresolved", lid, ok)
	}
	if c := n.ConnectedPorts(); c != 0 {
		t.Errorf("got %d connected ports on new node, want 0", c)
	}
	if ps := n.Ports(); len(ps) != 4 || ps[0].Num != 1 || ps[3].Num != 4 {
		t.Errorf("got ports %v, want 1..4", ps)
	}
}

func TestMergeNodesIdempotent(t *testing.T) {
	topo := newTestTopology(t)
	before := topo.All()

	stats, err := topo.MergeNodes(twoNodes)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total() != 0 {
		t.Errorf("got %d new nodes on re-merge, want 0", stats.Total())
	}
	if n := topo.Len(); n != 3 {
		t.Errorf("got %d nodes, want 3", n)
	}
	after := topo.All()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("node %s was replaced on re-merge", before[i].GUID)
		}
	}
	if c := topo.Counts(); c != (NodeStats{Nodes: 2, Switches: 1}) {
		t.Errorf("got counts %+v after re-merge", c)
	}
}

func TestMergeNodesDescriptionNotCompared(t *testing.T) {
	topo := newTestTopology(t)
	_, err := topo.MergeNodes([]NodeInfo{{GUID: "B", Desc: "renamed", NumPorts: 2}})
	if err != nil {
		t.Fatalf("got err=%v for changed description, want nil", err)
	}
	if d := topo.Node("B").Desc; d != "hca-b" {
		t.Errorf("got desc %q, want first observation hca-b", d)
	}
}

func TestMergeNodesMismatch(t *testing.T) {
	tests := []struct {
		name string
		info NodeInfo
	}{
		{"port count", NodeInfo{GUID: "B", NumPorts: 3}},
		{"switch flag", NodeInfo{GUID: "B", NumPorts: 2, Switch: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo := newTestTopology(t)
			_, err := topo.MergeNodes([]NodeInfo{tt.info})
			if !errors.Is(err, ErrNodeMismatch) {
				t.Fatalf("got err=%v, want %v", err, ErrNodeMismatch)
			}
			var ce *ConsistencyError
			if !errors.As(err, &ce) || ce.GUID != "B" {
				t.Errorf("got %#v, want ConsistencyError for B", err)
			}
		})
	}
}

func TestResolveAddress(t *testing.T) {
	topo := newTestTopology(t)
	if err := topo.ResolveAddress("A", 12); err != nil {
		t.Fatal(err)
	}
	if err := topo.ResolveAddress("A", 12); err != nil {
		t.Errorf("got err=%v for same lid, want nil", err)
	}
	err := topo.ResolveAddress("A", 13)
	if k, ok := KindOf(err); !ok || k != AddressMismatch {
		t.Errorf("got err=%v, want %s", err, AddressMismatch)
	}
	if lid, _ := topo.Node("A").LID(); lid != 12 {
		t.Errorf("got lid %d after mismatch, want 12", lid)
	}
	if err := topo.ResolveAddress("Z", 1); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("got err=%v, want %v", err, ErrUnknownNode)
	}
}

func TestConnectPortRange(t *testing.T) {
	topo := newTestTopology(t) // A has 4 ports
	for _, port := range []int{0, 5, -1} {
		err := topo.ConnectPort("A", port, "B", 1)
		if !errors.Is(err, ErrPortIndexOutOfRange) {
			t.Errorf("port %d: got err=%v, want %v", port, err, ErrPortIndexOutOfRange)
		}
	}
	for _, port := range []int{1, 4} {
		if err := topo.ConnectPort("A", port, "B", port); err != nil {
			t.Errorf("port %d: got err=%v, want nil", port, err)
		}
	}
}

func TestConnectPortConflict(t *testing.T) {
	topo := newTestTopology(t)
	if err := topo.ConnectPort("A", 1, "B", 2); err != nil {
		t.Fatal(err)
	}
	if n := topo.ConnectedPorts(); n != 1 {
		t.Errorf("got %d connected ports, want 1", n)
	}

	// same peer again: no-op
	if err := topo.ConnectPort("A", 1, "B", 2); err != nil {
		t.Errorf("got err=%v on reconnect, want nil", err)
	}
	if n := topo.ConnectedPorts(); n != 1 {
		t.Errorf("got %d connected ports after reconnect, want 1", n)
	}

	err := topo.ConnectPort("A", 1, "C", 3)
	if !errors.Is(err, ErrPortConflict) {
		t.Fatalf("got err=%v, want %v", err, ErrPortConflict)
	}
	if !strings.Contains(err.Error(), "[B-2]") || !strings.Contains(err.Error(), "[C-3]") {
		t.Errorf("error %q does not name both peers", err)
	}
	// different port of the same peer is a conflict too
	if err := topo.ConnectPort("A", 1, "B", 1); !errors.Is(err, ErrPortConflict) {
		t.Errorf("got err=%v, want %v", err, ErrPortConflict)
	}
	p, _ := topo.Node("A").Port(1)
	if p.Peer != "B" || p.PeerPort != 2 {
		t.Errorf("got port %v after conflict, want peer B:2", p)
	}
}

func TestConnectedPeers(t *testing.T) {
	topo := newTestTopology(t)
	for _, c := range []struct {
		port     int
		peer     string
		peerPort int
	}{
		{1, "C", 1},
		{2, "B", 1},
		{3, "C", 2},
	} {
		if err := topo.ConnectPort("A", c.port, c.peer, c.peerPort); err != nil {
			t.Fatal(err)
		}
	}
	got, err := topo.ConnectedPeers("A")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"B", "C"}, got); diff != "" {
		t.Errorf("peers mismatch (-want +got):\n%s", diff)
	}
	if got, _ := topo.ConnectedPeers("B"); len(got) != 0 {
		t.Errorf("got peers %v for B, want none (no auto-symmetry)", got)
	}
	if _, err := topo.ConnectedPeers("nope"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("got err=%v, want %v", err, ErrUnknownNode)
	}
}

func TestRestore(t *testing.T) {
	src := newTestTopology(t)
	if _, err := src.MergeLinks([]Link{{
		A: Endpoint{GUID: "A", LID: 1, Port: 1},
		B: Endpoint{GUID: "B", LID: 2, Port: 2},
	}}); err != nil {
		t.Fatal(err)
	}

	dst := New()
	if err := dst.Restore(src.All()...); err != nil {
		t.Fatal(err)
	}
	if dst.Len() != src.Len() || dst.ConnectedPorts() != src.ConnectedPorts() {
		t.Errorf("got %d nodes/%d ports, want %d/%d", dst.Len(),
			dst.ConnectedPorts(), src.Len(), src.ConnectedPorts())
	}
	if lid, _ := dst.Node("B").LID(); lid != 2 {
		t.Errorf("got lid %d for B, want 2", lid)
	}

	// Restoring into a topology that disagrees must fail.
	other := New()
	if _, err := other.MergeNodes([]NodeInfo{{GUID: "A", NumPorts: 8, Switch: true}}); err != nil {
		t.Fatal(err)
	}
	if err := other.Restore(src.All()...); !errors.Is(err, ErrNodeMismatch) {
		t.Errorf("got err=%v, want %v", err, ErrNodeMismatch)
	}
}
