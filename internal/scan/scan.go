// Package scan locates catalog record files on disk.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/marc2iiif/internal/marc"
)

// Source is a record file found below a scan root
type Source struct {
	Path    string
	RelPath string
	Size    int64
}

// Sources returns the record files at root. A regular file yields itself
// (whatever its extension); a directory is walked recursively for files the
// marc loader supports, skipping hidden directories. Results are sorted by
// relative path.
func Sources(root string) ([]Source, error) {
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s is neither a directory nor a regular file", root)
		}
		return []Source{{Path: root, RelPath: filepath.Base(root), Size: info.Size()}}, nil
	}

	sources := make([]Source, 0, 32)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !marc.IsSupported(path) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		sources = append(sources, Source{Path: path, RelPath: rel, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].RelPath < sources[j].RelPath })
	return sources, nil
}
