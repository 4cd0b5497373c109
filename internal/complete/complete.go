// Package complete lists filesystem entries for tab completion.
package complete

import (
	"os"
	"sort"
	"strings"
)

// Provider lists entries of a directory whose names start with a prefix.
type Provider struct {
	// Dir returns the directory to list. Nil means the process working directory.
	Dir func() (string, error)
	// ShowHidden includes dot entries even when the prefix does not start with ".".
	ShowHidden bool
}

// Complete returns the sorted names in the directory that start with prefix.
// Directories carry a trailing "/". Errors yield no candidates.
func (p Provider) Complete(prefix string) []string {
	dir := "."
	if p.Dir != nil {
		d, err := p.Dir()
		if err != nil {
			return nil
		}
		dir = d
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") && !p.ShowHidden {
			continue
		}
		if entry.IsDir() {
			name += "/"
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
