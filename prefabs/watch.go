package prefabs

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind tells the reload layer how to apply an edited file.
type ChangeKind int

const (
	PrefabChange ChangeKind = iota
	ScriptChange
)

func (k ChangeKind) String() string {
	if k == ScriptChange {
		return "script"
	}
	return "prefab"
}

// Change is one edited file. Path is what the file system reported; Name is
// the file name that Source.Path and Script.Path are matched against.
type Change struct {
	Path string
	Kind ChangeKind
}

func (c Change) Name() string {
	return filepath.Base(c.Path)
}

// classify maps a file to the change it produces. Other files are ignored.
func classify(path string) (ChangeKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return PrefabChange, true
	case ".tengo":
		return ScriptChange, true
	}
	return 0, false
}

// Watcher reports edited prefab and script files. Edits are held until the
// directory has been quiet for the settle window, then every touched file is
// reported once, in path order. Editors that save in several writes produce
// a single change for the finished file.
type Watcher struct {
	watcher *fsnotify.Watcher
	Changes chan Change
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
	settle  time.Duration
}

const settleWindow = 100 * time.Millisecond

func NewWatcher(dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		watcher: fw,
		Changes: make(chan Change, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
		settle:  settleWindow,
	}
	go w.run()
	return w, nil
}

// Close stops the watcher and closes Changes and Errors.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Changes)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	pending := make(map[string]ChangeKind)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			kind, ok := classify(event.Name)
			if !ok {
				continue
			}
			pending[event.Name] = kind
			if timer == nil {
				timer = time.NewTimer(w.settle)
			} else {
				timer.Reset(w.settle)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if !w.flush(pending) {
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// flush sends every pending change. It reports false when the watcher was
// closed while sending.
func (w *Watcher) flush(pending map[string]ChangeKind) bool {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		select {
		case w.Changes <- Change{Path: p, Kind: pending[p]}:
		case <-w.closeCh:
			return false
		}
		delete(pending, p)
	}
	return true
}
