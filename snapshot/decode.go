package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// History is the decoded content of one history file.
type History struct {
	Path      string     `yaml:"-"`
	Snapshots []Snapshot `yaml:"snapshots"`
}

// Len returns the number of snapshots in h.
func (h *History) Len() int {
	return len(h.Snapshots)
}

// Decode reads a history document from r. Unknown fields are rejected.
func Decode(r io.Reader) (*History, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var h History
	if err := dec.Decode(&h); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty history document")
		}
		return nil, err
	}
	for i := range h.Snapshots {
		s := &h.Snapshots[i]
		s.Index = i + 1
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", s.Index, err)
		}
	}
	return &h, nil
}

// ReadFile is like Decode but reads the history from the file located by
// path.
func ReadFile(path string) (*History, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: %w", err)
	}
	defer f.Close()

	h, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("ReadFile %s: %w", path, err)
	}
	h.Path = path
	return h, nil
}
