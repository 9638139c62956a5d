package device

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bnema/banishd/internal/logger"
)

// ClassifyFunc opens and classifies a candidate device path.
type ClassifyFunc func(path string) (*Source, error)

// Registry owns the live set of classified input sources, keyed by
// device path so an add is O(1)-idempotent across both roles.
//
// The registry is not safe for concurrent use: it belongs to the event
// loop goroutine, which performs every add and remove. Per-source
// reader goroutines only touch their own Source.
type Registry struct {
	classify ClassifyFunc
	sources  map[string]*Source
}

// NewRegistry creates a registry. A nil classify falls back to the
// real evdev classifier.
func NewRegistry(classify ClassifyFunc) *Registry {
	if classify == nil {
		classify = Classify
	}
	return &Registry{
		classify: classify,
		sources:  make(map[string]*Source),
	}
}

// Add classifies and registers path. It returns the new source, or nil
// when the path is already registered or the device was rejected.
// Device churn is expected; every failure here is non-fatal and only
// surfaces in debug logs.
func (r *Registry) Add(path string) *Source {
	if _, ok := r.sources[path]; ok {
		return nil
	}

	src, err := r.classify(path)
	if err != nil {
		if errors.Is(err, ErrNotApplicable) {
			logger.Debugf("skipping %s: %v", path, err)
		} else {
			logger.Debugf("cannot add %s: %v", path, err)
		}
		return nil
	}

	r.sources[path] = src
	logger.Debugf("found %s: %s (%s)", src.Role, path, src.Name)
	return src
}

// Remove closes and forgets the source registered for path. Absent
// paths and duplicate removal notifications are no-ops.
func (r *Registry) Remove(path string) bool {
	src, ok := r.sources[path]
	if !ok {
		return false
	}
	logger.Debugf("removing %s: %s", src.Role, path)
	if err := src.Close(); err != nil {
		logger.Debugf("closing %s: %v", path, err)
	}
	delete(r.sources, path)
	return true
}

// Sources returns every live source ordered by path.
func (r *Registry) Sources() []*Source {
	out := make([]*Source, 0, len(r.sources))
	for _, src := range r.sources {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Keyboards returns the live keyboard sources ordered by path.
func (r *Registry) Keyboards() []*Source {
	return r.byRole(RoleKeyboard)
}

// Pointers returns the live pointer sources ordered by path.
func (r *Registry) Pointers() []*Source {
	return r.byRole(RolePointer)
}

func (r *Registry) byRole(role Role) []*Source {
	var out []*Source
	for _, src := range r.sources {
		if src.Role == role {
			out = append(out, src)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len reports the number of live sources across both roles.
func (r *Registry) Len() int {
	return len(r.sources)
}

// Scan sweeps dir for event device nodes and adds each one, returning
// the sources that were newly registered.
func (r *Registry) Scan(dir string) []*Source {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warnf("cannot read %s: %v", dir, err)
		return nil
	}

	var added []*Source
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "event") {
			continue
		}
		if src := r.Add(filepath.Join(dir, entry.Name())); src != nil {
			added = append(added, src)
		}
	}
	return added
}

// Close releases every live source.
func (r *Registry) Close() {
	for path, src := range r.sources {
		if err := src.Close(); err != nil {
			logger.Debugf("closing %s: %v", path, err)
		}
		delete(r.sources, path)
	}
}
