package bolt

import "gonum.org/v1/gonum/spatial/r3"

// CameraMode selects how light depth is placed
type CameraMode int

const (
	CameraPerspective CameraMode = iota
	// CameraOrthographicXY keeps lights at camera z plus offset
	CameraOrthographicXY
	// CameraOrthographicXZ keeps lights at camera y plus offset
	CameraOrthographicXZ
)

// Camera is the viewer used for level of detail and orthographic light placement
type Camera struct {
	Position r3.Vec
	Mode     CameraMode
}

// Dependencies bundle everything an instance needs from its host for one run
// A bundle is bound to one instance at a time and handed back through ReturnToCache on expiry
type Dependencies struct {
	Scene Scene

	Parent        any
	GlowMaterial  any
	PlainMaterial any
	SortLayer     string
	SortOrder     int

	OriginParticles      Emitter
	DestinationParticles Emitter

	Camera Camera
	// LevelOfDetailDistance reduces generations by one per multiple of this distance, 0 disables
	LevelOfDetailDistance float64

	LightAdded   func(l Light)
	LightRemoved func(l Light)
	// BatchEnabled runs on the owner once a batch becomes visible
	BatchEnabled func(in *Instance, b *Batch)

	// ReturnToCache receives the bundle once its instance expired
	ReturnToCache func(d *Dependencies)
}

// Reset clears every field
func (d *Dependencies) Reset() {
	*d = Dependencies{}
}

func (d *Dependencies) surfaceSetup(useGlow bool) SurfaceSetup {
	return SurfaceSetup{
		GlowMaterial:  d.GlowMaterial,
		PlainMaterial: d.PlainMaterial,
		UseGlow:       useGlow,
		SortLayer:     d.SortLayer,
		SortOrder:     d.SortOrder,
		Parent:        d.Parent,
	}
}

// lightPosition applies the orthographic depth override
func (d *Dependencies) lightPosition(pos r3.Vec, offset float64) r3.Vec {
	switch d.Camera.Mode {
	case CameraOrthographicXY:
		pos.Z = d.Camera.Position.Z + offset
	case CameraOrthographicXZ:
		pos.Y = d.Camera.Position.Y + offset
	}
	return pos
}
