package component

// Camera marks the entity whose transform is the view origin.
type Camera struct {
	Zoom float64
}

var CameraComponent = NewComponent[Camera]()
