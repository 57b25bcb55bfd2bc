package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// Library loads images from an fs.FS and caches them by cleaned path.
// Load is called from the simulation goroutine and Image from the
// presentation goroutine, so the maps are guarded.
type Library struct {
	fsys fs.FS

	mu      sync.RWMutex
	handles map[string]Handle
	paths   map[Handle]string
	images  map[Handle]image.Image
	version map[Handle]uint64
	next    Handle
}

func NewLibrary(fsys fs.FS) *Library {
	return &Library{
		fsys:    fsys,
		handles: make(map[string]Handle),
		paths:   make(map[Handle]string),
		images:  make(map[Handle]image.Image),
		version: make(map[Handle]uint64),
	}
}

// Load returns the handle for p, decoding it on first use.
func (l *Library) Load(p string) (Handle, error) {
	clean := cleanAssetPath(p)
	l.mu.RLock()
	h, ok := l.handles[clean]
	l.mu.RUnlock()
	if ok {
		return h, nil
	}

	img, err := l.decode(clean)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.handles[clean]; ok {
		return h, nil
	}
	l.next++
	h = l.next
	l.handles[clean] = h
	l.paths[h] = clean
	l.images[h] = img
	l.version[h] = 1
	return h, nil
}

// Reload decodes p again and bumps the handle version so presenters drop
// cached GPU copies. Unknown paths are loaded fresh.
func (l *Library) Reload(p string) (Handle, error) {
	clean := cleanAssetPath(p)
	img, err := l.decode(clean)
	if err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.handles[clean]
	if !ok {
		l.next++
		h = l.next
		l.handles[clean] = h
		l.paths[h] = clean
	}
	l.images[h] = img
	l.version[h]++
	return h, nil
}

// Image returns the decoded image for h and its version.
func (l *Library) Image(h Handle) (image.Image, uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	img, ok := l.images[h]
	return img, l.version[h], ok
}

// Path returns the path h was loaded from.
func (l *Library) Path(h Handle) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.paths[h]
	return p, ok
}

func (l *Library) decode(clean string) (image.Image, error) {
	if l == nil || l.fsys == nil {
		return nil, fmt.Errorf("%w: %s: no filesystem", ErrAssetUnavailable, clean)
	}
	b, err := fs.ReadFile(l.fsys, clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: %s", ErrAssetUnavailable, ErrAssetNotFound, clean)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrAssetUnavailable, clean, err)
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %s: %v", ErrAssetUnavailable, ErrAssetCorrupt, clean, err)
	}
	return img, nil
}

func cleanAssetPath(p string) string {
	s := strings.ReplaceAll(p, "\\", "/")
	s = strings.TrimPrefix(path.Clean(s), "/")
	if after, ok := strings.CutPrefix(s, "assets/"); ok {
		s = after
	}
	return s
}
