package component

// Name is a human-readable label, unique by convention, used by levels and
// scripts to find entities.
type Name struct {
	Value string
}

var NameComponent = NewComponent[Name]()

type PlayerTag struct{}

var PlayerTagComponent = NewComponent[PlayerTag]()
