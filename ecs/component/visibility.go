package component

type Visibility struct {
	Hidden bool
}

var VisibilityComponent = NewComponent[Visibility]()
