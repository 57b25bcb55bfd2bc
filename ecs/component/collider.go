package component

// Collider is an axis-aligned box centred on the transform plus offset.
// Two colliders collide when each one's Mask intersects the other's Filter;
// a zero Filter accepts every mask.
type Collider struct {
	Width   float64
	Height  float64
	OffsetX float64
	OffsetY float64
	Mask    uint32
	Filter  uint32
}

// Collisions lists the entities overlapping this collider as of the last
// collision pass.
type Collisions struct {
	With []uint64
}

func (c *Collisions) Contains(e uint64) bool {
	for _, o := range c.With {
		if o == e {
			return true
		}
	}
	return false
}

var ColliderComponent = NewComponent[Collider]()
var CollisionsComponent = NewComponent[Collisions]()
