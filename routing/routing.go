// Package routing turns per-port forwarding data of fabric switches into
// per-switch destination lookup tables.
package routing

import (
	"maps"
	"slices"
)

// A Route lists the destination LIDs a switch forwards out of one port.
type Route struct {
	Switch string `yaml:"switch" json:"switch"`
	Port   int    `yaml:"port" json:"port"`
	LIDs   []int  `yaml:"lids" json:"lids"`
}

// An Entry is one row of a switch's lookup table.
type Entry struct {
	LID  int
	Port int
}

// Table maps destination LIDs to the outgoing port of a single switch.
type Table struct {
	Switch string

	ports     map[int]int
	overrides int
}

func newTable(sw string) *Table {
	return &Table{Switch: sw, ports: make(map[int]int)}
}

// Lookup returns the port used to reach lid.
func (t *Table) Lookup(lid int) (port int, ok bool) {
	port, ok = t.ports[lid]
	return port, ok
}

// Len returns the number of destinations in t.
func (t *Table) Len() int {
	return len(t.ports)
}

// Overrides returns how many times Invert replaced the port of a LID that
// an earlier route already mapped to a different port.
func (t *Table) Overrides() int {
	return t.overrides
}

// Entries returns the table ordered by ascending LID.
func (t *Table) Entries() []Entry {
	es := make([]Entry, 0, len(t.ports))
	for _, lid := range slices.Sorted(maps.Keys(t.ports)) {
		es = append(es, Entry{LID: lid, Port: t.ports[lid]})
	}
	return es
}

// Equal reports whether t and u map the same LIDs to the same ports.
func (t *Table) Equal(u *Table) bool {
	return t.Switch == u.Switch && maps.Equal(t.ports, u.ports)
}

// Tables holds the lookup tables of all switches of one snapshot.
type Tables struct {
	bySwitch map[string]*Table
}

// Invert builds per-switch LID→port tables from routes, processed in the
// order given. When a LID is reachable through more than one port of the
// same switch the last route wins; the replacement is counted in
// Table.Overrides.
func Invert(routes []Route) Tables {
	ts := Tables{bySwitch: make(map[string]*Table)}
	for _, r := range routes {
		t := ts.bySwitch[r.Switch]
		if t == nil {
			t = newTable(r.Switch)
			ts.bySwitch[r.Switch] = t
		}
		for _, lid := range r.LIDs {
			if prev, ok := t.ports[lid]; ok && prev != r.Port {
				t.overrides++
			}
			t.ports[lid] = r.Port
		}
	}
	return ts
}

// Table returns the table of switch sw, or nil.
func (ts Tables) Table(sw string) *Table {
	return ts.bySwitch[sw]
}

// Len returns the number of switches with a table.
func (ts Tables) Len() int {
	return len(ts.bySwitch)
}

// Switches returns the tables ordered by switch GUID.
func (ts Tables) Switches() []*Table {
	out := make([]*Table, 0, len(ts.bySwitch))
	for _, sw := range slices.Sorted(maps.Keys(ts.bySwitch)) {
		out = append(out, ts.bySwitch[sw])
	}
	return out
}

// Overrides sums Table.Overrides over all switches.
func (ts Tables) Overrides() int {
	n := 0
	for _, t := range ts.bySwitch {
		n += t.overrides
	}
	return n
}

// Equal reports whether ts and us hold equal tables for the same switches.
func (ts Tables) Equal(us Tables) bool {
	return maps.EqualFunc(ts.bySwitch, us.bySwitch, (*Table).Equal)
}
