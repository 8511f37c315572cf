package snapshot

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"slrz.net/fabtopo/topology"
)

func TestReadFile(t *testing.T) {
	h, err := ReadFile("testdata/fabric.his")
	if err != nil {
		t.Fatal(err)
	}
	if n := h.Len(); n != 2 {
		t.Fatalf("got %d snapshots, want 2", n)
	}
	if h.Path != "testdata/fabric.his" {
		t.Errorf("got path %q, want testdata/fabric.his", h.Path)
	}

	s := h.Snapshots[0]
	if s.Index != 1 {
		t.Errorf("got index %d, want 1", s.Index)
	}
	wantNodes := []topology.NodeInfo{
		{GUID: "0002:c903:00a1:b2c3", Desc: "leaf01", NumPorts: 4, Switch: true},
		{GUID: "0002:c903:00f0:0001", Desc: "node001 HCA-1", NumPorts: 1},
	}
	if diff := cmp.Diff(wantNodes, s.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	wantLink := topology.Link{
		A: topology.Endpoint{GUID: "0002:c903:00a1:b2c3", LID: 1, Port: 2},
		B: topology.Endpoint{GUID: "0002:c903:00f0:0001", LID: 7, Port: 1},
	}
	if diff := cmp.Diff([]topology.Link{wantLink}, s.Links); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
	if n := len(s.Routes); n != 2 {
		t.Errorf("got %d routes, want 2", n)
	}
	if n := len(s.Counters); n != 3 {
		t.Fatalf("got %d counters, want 3", n)
	}
	if c := s.Counters[1]; c.RcvData != nil {
		t.Errorf("got rcv_data %d for port without data, want nil", *c.RcvData)
	}
	if c := s.Counters[0]; c.RcvData == nil || *c.RcvData != 100 {
		t.Errorf("got rcv_data %v, want 100", c.RcvData)
	}
}

func TestStamp(t *testing.T) {
	h, err := ReadFile("testdata/bad-timestamp.his")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		want    string
		wantErr bool
	}{
		{wantErr: true},
		{wantErr: true},
		{want: "20170314-093653"},
	}
	for i, tt := range tests {
		got, err := h.Snapshots[i].Stamp()
		if (err != nil) != tt.wantErr {
			t.Errorf("snapshot %d: got err=%v, want error %t", i+1, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("snapshot %d: got stamp %q, want %q", i+1, got, tt.want)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name, doc, wantErr string
	}{
		{"empty", "", "empty history"},
		{"unknown field", "snapshots:\n  - timestamp: x\n    bogus: 1\n", "bogus"},
		{
			"bad guid",
			"snapshots:\n  - nodes:\n      - {guid: \"nope\", ports: 1}\n",
			"invalid GUID",
		},
		{
			"negative ports",
			"snapshots:\n  - nodes:\n      - {guid: \"0x1\", ports: -1}\n",
			"negative port count",
		},
		{
			"lid out of range",
			"snapshots:\n  - links:\n      - a: {guid: \"0x1\", lid: 70000, port: 1}\n" +
				"        b: {guid: \"0x2\", lid: 1, port: 1}\n",
			"out of range",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got err=%v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	const doc = `{"snapshots": [{"timestamp": "Mar 14 09:26:53 2017",
		"nodes": [{"guid": "0x2", "desc": "a", "ports": 2, "switch": true}]}]}`
	h, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if got := h.Snapshots[0].Nodes[0].GUID; got != "0000:0000:0000:0002" {
		t.Errorf("got guid %q, want 0000:0000:0000:0002", got)
	}
}
