// Package frames defines the frame-source boundary: anything that can hand
// the pipeline an encoded still image on demand.
package frames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Source produces one encoded image per call. The pipeline polls it on a
// fixed cadence and treats production as a black box; camera integrations
// implement this outside the module.
type Source interface {
	NextFrame(ctx context.Context) ([]byte, error)
}

// StaticSource returns the same encoded frame on every call. Useful for
// demos and tests.
type StaticSource []byte

func (s StaticSource) NextFrame(context.Context) ([]byte, error) {
	return s, nil
}

// DirSource cycles through the image files of a directory in name order,
// wrapping around at the end.
type DirSource struct {
	mu    sync.Mutex
	paths []string
	next  int
}

// NewDirSource scans dir for jpeg/png files. It fails when none are found.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("frames: read dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("frames: no image files in %s", dir)
	}
	sort.Strings(paths)
	return &DirSource{paths: paths}, nil
}

func (d *DirSource) NextFrame(context.Context) ([]byte, error) {
	d.mu.Lock()
	path := d.paths[d.next]
	d.next = (d.next + 1) % len(d.paths)
	d.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("frames: read %s: %w", path, err)
	}
	return data, nil
}

var _ Source = (StaticSource)(nil)
var _ Source = (*DirSource)(nil)
