package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// HistoryFiles returns the history files to process for path. A regular
// file is returned as is. For a directory, all regular files named with
// extension ext are returned in lexical order; subdirectories are not
// descended into.
func HistoryFiles(path, ext string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []string{path}, nil
	}

	ents, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range ents {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ext {
			continue
		}
		files = append(files, filepath.Join(path, ent.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no %s files", path, ext)
	}
	sort.Strings(files)
	return files, nil
}

// HistoryPrefix guesses a tag for the outputs derived from the history file
// at path. History files are usually named either <tag>.<time>.his or
// <time>.<tag>.his; the half starting with a letter is taken as the tag.
// Without a dot, or if neither half qualifies, the whole base name is used.
func HistoryPrefix(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	p1, p2, ok := strings.Cut(base, ".")
	if !ok {
		return base
	}
	switch {
	case startsWithLetter(p1):
		return p1
	case startsWithLetter(p2):
		return p2
	}
	return base
}

func startsWithLetter(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r)
}
