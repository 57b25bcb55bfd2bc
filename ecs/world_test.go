package ecs

import (
	"errors"
	"testing"

	"github.com/milk9111/stagehand/ecs/component"
)

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}

func TestEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_destroy_middle", 3, 1},
		{"none_destroyed", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, CreateEntity(w))
			}
			if got := len(Entities(w)); got != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, got)
			}
			if c.destroyIndex < 0 {
				return
			}
			dead := ents[c.destroyIndex]
			if !DestroyEntity(w, dead) {
				t.Fatalf("DestroyEntity should return true for a live entity")
			}
			if IsAlive(w, dead) {
				t.Fatalf("entity should not be alive after destruction")
			}
			if DestroyEntity(w, dead) {
				t.Fatalf("destroying twice should return false")
			}
			if got := len(Entities(w)); got != c.create-1 {
				t.Fatalf("expected %d entities, got %d", c.create-1, got)
			}
		})
	}
}

func TestRecycledIndexGetsNewGeneration(t *testing.T) {
	w := NewWorld()
	kind := component.NewComponentKind[int]()

	old := CreateEntity(w)
	if err := Add(w, old, kind, intPtr(1)); err != nil {
		t.Fatal(err)
	}
	DestroyEntity(w, old)

	fresh := CreateEntity(w)
	if fresh.Index() != old.Index() {
		t.Fatalf("expected index %d to be recycled, got %d", old.Index(), fresh.Index())
	}
	if fresh == old {
		t.Fatalf("recycled entity must not equal the stale handle")
	}
	if IsAlive(w, old) {
		t.Fatalf("stale handle reported alive")
	}
	if Has(w, fresh, kind) {
		t.Fatalf("components of a destroyed entity leaked into its successor")
	}
	if err := Add(w, old, kind, intPtr(2)); !errors.Is(err, component.ErrEntityNotAlive) {
		t.Fatalf("expected ErrEntityNotAlive, got %v", err)
	}
}

func TestComponentTable(t *testing.T) {
	w := NewWorld()
	ints := component.NewComponent[int]()
	strs := component.NewComponent[string]()
	e1 := CreateEntity(w)
	e2 := CreateEntity(w)

	tests := []struct {
		name     string
		setup    func() error
		check    func(t *testing.T)
		teardown func() bool
	}{
		{
			name:  "add_int",
			setup: func() error { return Add(w, e1, ints.Kind(), intPtr(10)) },
			check: func(t *testing.T) {
				v, ok := Get(w, e1, ints.Kind())
				if !ok || *v != 10 {
					t.Fatalf("expected 10, got %v ok=%v", v, ok)
				}
			},
			teardown: func() bool { return Remove(w, e1, ints.Kind()) },
		},
		{
			name: "replace_int",
			setup: func() error {
				if err := Add(w, e1, ints.Kind(), intPtr(1)); err != nil {
					return err
				}
				return Add(w, e1, ints.Kind(), intPtr(2))
			},
			check: func(t *testing.T) {
				v, _ := Get(w, e1, ints.Kind())
				if *v != 2 {
					t.Fatalf("expected replacement value 2, got %d", *v)
				}
			},
			teardown: func() bool { return Remove(w, e1, ints.Kind()) },
		},
		{
			name: "string_on_both",
			setup: func() error {
				if err := Add(w, e1, strs.Kind(), stringPtr("a")); err != nil {
					return err
				}
				return Add(w, e2, strs.Kind(), stringPtr("b"))
			},
			check: func(t *testing.T) {
				if !Has(w, e1, strs.Kind()) || !Has(w, e2, strs.Kind()) {
					t.Fatalf("expected both entities to have the string component")
				}
			},
			teardown: func() bool { return Remove(w, e1, strs.Kind()) && Remove(w, e2, strs.Kind()) },
		},
		{
			name:  "nil_value_rejected",
			setup: func() error { return nil },
			check: func(t *testing.T) {
				if err := Add(w, e1, ints.Kind(), nil); !errors.Is(err, component.ErrNilComponent) {
					t.Fatalf("expected ErrNilComponent, got %v", err)
				}
			},
			teardown: func() bool { return !Has(w, e1, ints.Kind()) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.setup(); err != nil {
				t.Fatalf("setup failed: %v", err)
			}
			tc.check(t)
			if !tc.teardown() {
				t.Fatalf("teardown failed for %s", tc.name)
			}
		})
	}
}

func TestQueryOrderAndIntersection(t *testing.T) {
	w := NewWorld()
	ka := component.NewComponentKind[int]()
	kb := component.NewComponentKind[int]()

	ents := make([]Entity, 5)
	for i := range ents {
		ents[i] = CreateEntity(w)
	}
	// insert out of order so dense order differs from index order
	for _, i := range []int{4, 0, 2, 3} {
		if err := Add(w, ents[i], ka, intPtr(i)); err != nil {
			t.Fatal(err)
		}
	}
	for _, i := range []int{3, 2, 1} {
		if err := Add(w, ents[i], kb, intPtr(i)); err != nil {
			t.Fatal(err)
		}
	}

	var seen []int
	ForEach(w, ka, func(_ Entity, v *int) { seen = append(seen, *v) })
	want := []int{0, 2, 3, 4}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}

	var both []Entity
	ForEach2(w, ka, kb, func(e Entity, _ *int, _ *int) { both = append(both, e) })
	if len(both) != 2 || both[0] != ents[2] || both[1] != ents[3] {
		t.Fatalf("expected [%s %s], got %v", ents[2], ents[3], both)
	}

	first, ok := w.First(kb)
	if !ok || first != ents[1] {
		t.Fatalf("expected First to return %s, got %s ok=%v", ents[1], first, ok)
	}
}

func TestForEachIntersections(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "three_kinds",
			run: func(t *testing.T) {
				w := NewWorld()
				e1 := CreateEntity(w)
				e2 := CreateEntity(w)
				ka := component.NewComponentKind[int]()
				kb := component.NewComponentKind[int]()
				kc := component.NewComponentKind[int]()

				_ = Add(w, e1, ka, intPtr(1))
				_ = Add(w, e2, ka, intPtr(2))
				_ = Add(w, e2, kb, intPtr(3))
				_ = Add(w, e2, kc, intPtr(4))

				var res []Entity
				ForEach3(w, ka, kb, kc, func(e Entity, _, _, _ *int) { res = append(res, e) })
				if len(res) != 1 || res[0].id() != e2.id() {
					t.Fatalf("expected only e2, got %v", res)
				}
			},
		},
		{
			name: "four_kinds_ignores_dead",
			run: func(t *testing.T) {
				w := NewWorld()
				e := CreateEntity(w)
				kinds := []component.ComponentKind[int]{
					component.NewComponentKind[int](),
					component.NewComponentKind[int](),
					component.NewComponentKind[int](),
					component.NewComponentKind[int](),
				}
				for i, k := range kinds {
					_ = Add(w, e, k, intPtr(i))
				}
				DestroyEntity(w, e)

				var res []Entity
				ForEach4(w, kinds[0], kinds[1], kinds[2], kinds[3], func(e Entity, _, _, _, _ *int) { res = append(res, e) })
				if len(res) != 0 {
					t.Fatalf("expected empty result after destroy, got %v", res)
				}
			},
		},
		{
			name: "missing_store",
			run: func(t *testing.T) {
				w := NewWorld()
				e := CreateEntity(w)
				ka := component.NewComponentKind[int]()
				kb := component.NewComponentKind[int]()
				_ = Add(w, e, ka, intPtr(1))

				if res := w.Query(ka, kb); len(res) != 0 {
					t.Fatalf("expected empty when a store is missing, got %v", res)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, tc.run)
	}
}

type gravity struct{ Y float64 }

func TestResources(t *testing.T) {
	w := NewWorld()
	if _, ok := Resource[gravity](w); ok {
		t.Fatalf("expected no resource before SetResource")
	}
	SetResource(w, &gravity{Y: 9.8})
	g, ok := Resource[gravity](w)
	if !ok || g.Y != 9.8 {
		t.Fatalf("expected gravity 9.8, got %v ok=%v", g, ok)
	}
	g.Y = 1
	g2, _ := Resource[gravity](w)
	if g2.Y != 1 {
		t.Fatalf("resources must be shared by pointer")
	}
}

func TestEventsFlushAtEndFrame(t *testing.T) {
	w := NewWorld()
	a, b := CreateEntity(w), CreateEntity(w)
	w.Events().Push(Event{Type: EventCollision, Data: CollisionEvent{Entity: a, Other: b}})

	if got := len(w.Events().Peek()); got != 1 {
		t.Fatalf("expected 1 queued event, got %d", got)
	}
	w.EndFrame()
	if got := len(w.Events().Peek()); got != 0 {
		t.Fatalf("expected events to be flushed, got %d", got)
	}

	w.Events().Push(Event{Type: "x"})
	if got := w.Events().Drain(); len(got) != 1 || got[0].Type != "x" {
		t.Fatalf("unexpected drain result %v", got)
	}
	if w.Events().Drain() != nil {
		t.Fatalf("drain should leave the queue empty")
	}
}

func TestSchedulerRunsInOrder(t *testing.T) {
	w := NewWorld()
	var order []string
	s := NewScheduler(
		SystemFunc(func(*World) { order = append(order, "a") }),
		nil,
		SystemFunc(func(*World) { order = append(order, "b") }),
	)
	s.Add(SystemFunc(func(*World) { order = append(order, "c") }))
	s.Update(w)

	if len(s.Systems()) != 3 {
		t.Fatalf("expected nil systems to be skipped, got %d", len(s.Systems()))
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestRequire(t *testing.T) {
	w := NewWorld()
	ints := component.NewComponent[int]()
	e := CreateEntity(w)

	if _, err := Require(w, e, ints.Kind()); !errors.Is(err, component.ErrMissingComponent) {
		t.Fatalf("expected ErrMissingComponent, got %v", err)
	}
	if err := Add(w, e, ints.Kind(), intPtr(7)); err != nil {
		t.Fatalf("add: %v", err)
	}
	v, err := Require(w, e, ints.Kind())
	if err != nil || *v != 7 {
		t.Fatalf("require = %v, %v", v, err)
	}

	DestroyEntity(w, e)
	if _, err := Require(w, e, ints.Kind()); !errors.Is(err, component.ErrEntityNotAlive) {
		t.Fatalf("expected ErrEntityNotAlive, got %v", err)
	}
}

func TestKindNames(t *testing.T) {
	cases := []struct {
		kind component.Kind
		want string
	}{
		{component.TransformComponent.Kind(), "Transform"},
		{component.NameComponent.Kind(), "Name"},
		{component.NewComponentKind[int](), "int"},
		{component.ComponentKind[int]{}, "invalid"},
	}
	for _, c := range cases {
		if got := c.kind.Name(); got != c.want {
			t.Errorf("Name() = %q, want %q", got, c.want)
		}
	}
}
