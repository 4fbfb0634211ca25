package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover resolves each path into statement files. A directory contributes
// its .csv and .xlsx entries (not recursive) in name order; a file is taken
// as given.
func Discover(paths ...string) ([]DiscoveredFile, error) {
	var files []DiscoveredFile
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, newDiscovered(p))
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		var found []DiscoveredFile
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".csv", ".xlsx":
				found = append(found, newDiscovered(filepath.Join(p, e.Name())))
			}
		}
		sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
		files = append(files, found...)
	}
	return files, nil
}

func newDiscovered(path string) DiscoveredFile {
	name := filepath.Base(path)
	return DiscoveredFile{Path: path, Name: name, Format: FormatFor(name)}
}
