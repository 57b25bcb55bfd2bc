package prefabs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/milk9111/stagehand/animation"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const blinkerV1 = `
name: blinker
components:
  transform: {}
  animations:
    - name: flash
      duration: 300ms
      modifiers:
        - kind: blink
          count: 2
    - name: spin
      duration: 1s
      modifiers:
        - kind: transform
          ticks: 10
          rotate: 3.14
`

const blinkerV2 = `
name: blinker
components:
  transform: {}
  animations:
    - name: flash
      duration: 600ms
      modifiers:
        - kind: blink
          count: 4
    - name: spin
      duration: 2s
      modifiers:
        - kind: transform
          ticks: 10
          rotate: 3.14
`

func spawnFrom(t *testing.T, w *ecs.World, src, path string) ecs.Entity {
	t.Helper()
	e, err := NewBuilder(nil).Build(w, decodeEntity(t, src))
	require.NoError(t, err)
	require.NoError(t, ecs.Add(w, e, SourceComponent.Kind(), &Source{Path: path}))
	return e
}

func files(m map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		data, ok := m[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(data), nil
	}
}

func TestReloadSwapsAnimations(t *testing.T) {
	w := ecs.NewWorld()
	e := spawnFrom(t, w, blinkerV1, "blinker.yaml")
	other := spawnFrom(t, w, blinkerV1, "other.yaml")

	reg, _ := ecs.Get(w, e, animation.RegistryComponent.Kind())
	_, err := reg.Loop("flash")
	require.NoError(t, err)

	l := &ReloadLayer{read: files(map[string]string{"/work/prefabs/blinker.yaml": blinkerV2})}
	n, err := l.Apply(w, "/work/prefabs/blinker.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	flash, err := reg.Get("flash")
	require.NoError(t, err)
	assert.Equal(t, 600*time.Millisecond, flash.Duration())
	assert.True(t, flash.Running(), "running animations restart with the new definition")
	assert.Equal(t, animation.Looping, flash.Mode())

	spin, err := reg.Get("spin")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, spin.Duration())
	assert.False(t, spin.Running())

	otherReg, _ := ecs.Get(w, other, animation.RegistryComponent.Kind())
	otherFlash, _ := otherReg.Get("flash")
	assert.Equal(t, 300*time.Millisecond, otherFlash.Duration())
}

func TestReloadRejectsBadFile(t *testing.T) {
	w := ecs.NewWorld()
	e := spawnFrom(t, w, blinkerV1, "blinker.yaml")
	reg, _ := ecs.Get(w, e, animation.RegistryComponent.Kind())
	before, _ := reg.Get("flash")

	broken := `
components:
  animations:
    - name: flash
      duration: 1s
      modifiers:
        - kind: nope
`
	l := &ReloadLayer{read: files(map[string]string{"blinker.yaml": broken, "bad.yaml": "components: ["})}

	_, err := l.Apply(w, "blinker.yaml")
	assert.ErrorIs(t, err, animation.ErrConfiguration)
	_, err = l.Apply(w, "bad.yaml")
	assert.Error(t, err)
	_, err = l.Apply(w, "missing.yaml")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	after, _ := reg.Get("flash")
	assert.Same(t, before, after)
}

func TestReloadLayerDrainsChanges(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := ecs.NewWorld()
	spawnFrom(t, w, blinkerV1, "blinker.yaml")

	changes := make(chan Change, 4)
	errs := make(chan error, 1)
	var scripts []string
	l := &ReloadLayer{
		changes:  changes,
		errs:     errs,
		read:     files(map[string]string{"blinker.yaml": blinkerV2}),
		OnScript: func(path string) { scripts = append(scripts, path) },
	}

	sched := engine.NewScheduler(w, engine.Options{Log: zap.New(core)})
	sched.Layers().Add(engine.Weak, l)

	changes <- Change{Path: "blinker.yaml", Kind: PrefabChange}
	changes <- Change{Path: "scripts/hud.tengo", Kind: ScriptChange}
	changes <- Change{Path: "gone.yaml", Kind: PrefabChange}
	errs <- errors.New("watch overflow")
	require.NoError(t, sched.Tick())

	assert.Equal(t, []string{"scripts/hud.tengo"}, scripts)
	assert.Equal(t, 1, logs.FilterMessage("prefab reloaded").Len())
	assert.Equal(t, 1, logs.FilterMessage("prefab reload failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("prefab watcher error").Len())

	close(changes)
	close(errs)
	require.NoError(t, sched.Tick(), "closed channels are ignored")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		kind ChangeKind
		ok   bool
	}{
		{"prefabs/coin.yaml", PrefabChange, true},
		{"prefabs/Coin.YML", PrefabChange, true},
		{"prefabs/scripts/hud.tengo", ScriptChange, true},
		{"prefabs/notes.txt", 0, false},
		{"prefabs/hud.lua", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			kind, ok := classify(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
	assert.Equal(t, "coin.yaml", Change{Path: "/game/prefabs/coin.yaml"}.Name())
}

func TestWatcherReportsEdits(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	target := filepath.Join(dir, "coin.yaml")
	require.NoError(t, os.WriteFile(target, []byte("name: coin\n"), 0o644))

	select {
	case got := <-w.Changes:
		assert.Equal(t, Change{Path: target, Kind: PrefabChange}, got)
	case err := <-w.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	target := filepath.Join(dir, "hud.tengo")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte("update := func(e, s) {}\n"), 0o644))
	}

	select {
	case got := <-w.Changes:
		assert.Equal(t, Change{Path: target, Kind: ScriptChange}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case got := <-w.Changes:
		t.Fatalf("burst reported twice: %v", got)
	case <-time.After(3 * settleWindow):
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, ok := <-w.Changes
	assert.False(t, ok)
}
