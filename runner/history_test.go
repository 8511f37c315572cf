package runner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistoryFiles(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"b.his", "a.his", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "old.his"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := HistoryFiles(dir, ".his")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.his"), filepath.Join(dir, "b.his")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HistoryFiles mismatch (-want +got):\n%s", diff)
	}

	// explicitly named files are taken regardless of extension
	file := filepath.Join(dir, "notes.txt")
	got, err = HistoryFiles(file, ".his")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != file {
		t.Errorf("got %v, want [%s]", got, file)
	}

	if _, err := HistoryFiles(dir, ".hist"); err == nil {
		t.Error("got nil error for directory without history files")
	}
	if _, err := HistoryFiles(filepath.Join(dir, "missing"), ".his"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got err=%v, want fs.ErrNotExist", err)
	}
}

func TestHistoryPrefix(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/ib/clusterA.20170314.his", "clusterA"},
		{"20170314.clusterA.his", "clusterA"},
		{"fabric.his", "fabric"},
		{"20170314.0930.his", "20170314.0930"},
		{"hist/x.y/20170314.his", "20170314"},
		{"clusterA.sub.net.his", "clusterA"},
	}
	for _, tt := range tests {
		if got := HistoryPrefix(tt.path); got != tt.want {
			t.Errorf("HistoryPrefix(%q): got %q, want %q", tt.path, got, tt.want)
		}
	}
}
