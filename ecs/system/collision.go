package system

import (
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/stagehand/ecs"
	"github.com/milk9111/stagehand/ecs/component"
)

// CollisionSystem mirrors every Transform+Collider entity into a chipmunk
// space as a kinematic box and refreshes each entity's Collisions from a
// bounding-box query. It only detects overlap; nothing is pushed apart.
type CollisionSystem struct {
	space  *cp.Space
	bodies map[ecs.Entity]*colliderBody
}

type colliderBody struct {
	body   *cp.Body
	shape  *cp.Shape
	filter cp.ShapeFilter
	width  float64
	height float64
}

func NewCollisionSystem() *CollisionSystem {
	return &CollisionSystem{
		space:  cp.NewSpace(),
		bodies: make(map[ecs.Entity]*colliderBody),
	}
}

func (cs *CollisionSystem) Update(w *ecs.World) {
	if cs == nil || w == nil {
		return
	}

	cs.removeStale(w)

	ents := w.Query(component.TransformComponent.Kind(), component.ColliderComponent.Kind())
	for _, e := range ents {
		tr, _ := ecs.Get(w, e, component.TransformComponent.Kind())
		col, _ := ecs.Get(w, e, component.ColliderComponent.Kind())
		cs.sync(e, tr, col)
	}

	for _, e := range ents {
		cb := cs.bodies[e]
		if cb == nil {
			continue
		}
		hits := cs.overlapping(e, cb)

		prev, _ := ecs.Get(w, e, component.CollisionsComponent.Kind())
		for _, other := range hits {
			if prev != nil && prev.Contains(uint64(other)) {
				continue
			}
			w.Events().Push(ecs.Event{
				Type: ecs.EventCollision,
				Data: ecs.CollisionEvent{Entity: e, Other: other},
			})
		}

		with := make([]uint64, 0, len(hits))
		for _, other := range hits {
			with = append(with, uint64(other))
		}
		_ = ecs.Add(w, e, component.CollisionsComponent.Kind(), &component.Collisions{With: with})
	}
}

func (cs *CollisionSystem) removeStale(w *ecs.World) {
	for e, cb := range cs.bodies {
		if w.IsAlive(e) && ecs.Has(w, e, component.ColliderComponent.Kind()) && ecs.Has(w, e, component.TransformComponent.Kind()) {
			continue
		}
		cs.space.RemoveShape(cb.shape)
		cs.space.RemoveBody(cb.body)
		delete(cs.bodies, e)
		if w.IsAlive(e) {
			ecs.Remove(w, e, component.CollisionsComponent.Kind())
		}
	}
}

func (cs *CollisionSystem) sync(e ecs.Entity, tr *component.Transform, col *component.Collider) {
	cb := cs.bodies[e]
	if cb != nil && (cb.width != col.Width || cb.height != col.Height) {
		cs.space.RemoveShape(cb.shape)
		cs.space.RemoveBody(cb.body)
		cb = nil
	}
	if cb == nil {
		body := cs.space.AddBody(cp.NewKinematicBody())
		shape := cs.space.AddShape(cp.NewBox(body, col.Width, col.Height, 0))
		shape.UserData = e
		cb = &colliderBody{body: body, shape: shape, width: col.Width, height: col.Height}
		cs.bodies[e] = cb
	}
	cb.filter = shapeFilter(col)
	cb.shape.SetFilter(cb.filter)
	cb.body.SetPosition(cp.Vector{X: tr.X + col.OffsetX, Y: tr.Y + col.OffsetY})
	cs.space.ReindexShapesForBody(cb.body)
}

// overlapping returns the entities whose boxes strictly overlap e's box,
// ordered by entity index. Touching edges do not count.
func (cs *CollisionSystem) overlapping(e ecs.Entity, cb *colliderBody) []ecs.Entity {
	bb := cb.shape.BB()
	var hits []ecs.Entity
	cs.space.BBQuery(bb, cb.filter, func(shape *cp.Shape, _ interface{}) {
		other, ok := shape.UserData.(ecs.Entity)
		if !ok || other == e {
			return
		}
		if !strictOverlap(bb, shape.BB()) {
			return
		}
		hits = append(hits, other)
	}, nil)
	sort.Slice(hits, func(i, j int) bool { return hits[i].Index() < hits[j].Index() })
	return hits
}

// shapeFilter maps Mask to chipmunk categories and Filter to the chipmunk
// mask; zero means everything.
func shapeFilter(col *component.Collider) cp.ShapeFilter {
	categories, mask := ^uint(0), ^uint(0)
	if col.Mask != 0 {
		categories = uint(col.Mask)
	}
	if col.Filter != 0 {
		mask = uint(col.Filter)
	}
	return cp.NewShapeFilter(0, categories, mask)
}

func strictOverlap(a, b cp.BB) bool {
	return a.L < b.R && b.L < a.R && a.B < b.T && b.B < a.T
}
