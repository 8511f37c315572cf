package topology

import "fmt"

// An Endpoint is one end of a link as reported by a snapshot: the node, the
// node's LID and the port number the cable is plugged into.
type Endpoint struct {
	GUID string `yaml:"guid" json:"guid"`
	LID  int    `yaml:"lid" json:"lid"`
	Port int    `yaml:"port" json:"port"`
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.GUID, e.Port)
}

// A Link connects two endpoints.
type Link struct {
	A Endpoint `yaml:"a" json:"a"`
	B Endpoint `yaml:"b" json:"b"`
}

func (l Link) String() string {
	return fmt.Sprintf("%s -- %s", l.A, l.B)
}

// MergeLinks applies the links of one snapshot. Every endpoint must name a
// node already registered with MergeNodes. For each endpoint its LID is
// resolved and its port connected to the opposite endpoint, so both halves
// of every link are recorded. It returns the number of ports that were newly
// connected.
func (t *T) MergeLinks(links []Link) (int, error) {
	before := t.connected
	for _, l := range links {
		if err := t.mergeLink(l); err != nil {
			return t.connected - before, fmt.Errorf("link %s: %w", l, err)
		}
	}
	return t.connected - before, nil
}

func (t *T) mergeLink(l Link) error {
	for _, e := range [...]Endpoint{l.A, l.B} {
		if t.nodes[e.GUID] == nil {
			return &ConsistencyError{Kind: UnknownNode, GUID: e.GUID}
		}
	}

	if err := t.ResolveAddress(l.A.GUID, l.A.LID); err != nil {
		return err
	}
	if err := t.ConnectPort(l.A.GUID, l.A.Port, l.B.GUID, l.B.Port); err != nil {
		return err
	}
	if err := t.ResolveAddress(l.B.GUID, l.B.LID); err != nil {
		return err
	}
	return t.ConnectPort(l.B.GUID, l.B.Port, l.A.GUID, l.A.Port)
}
