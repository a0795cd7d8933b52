package preview

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goifc/internal/navigation"
	"github.com/philipparndt/goifc/pkg/geometry"
)

// Camera is a perspective camera for the software renderer
type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	FOVY     float64 // vertical field of view in degrees
	Near     float64
	Far      float64
}

// DefaultCamera matches the initial view of the interactive viewer
func DefaultCamera() Camera {
	return Camera{
		Position: mgl64.Vec3{5, 5, 5},
		Target:   mgl64.Vec3{0, 0, 0},
		FOVY:     60,
		Near:     0.001,
		Far:      5000,
	}
}

// FitTo moves the camera so bbox fills the view. It returns the grid height
// the fit implies, or false when bbox is empty.
func (c *Camera) FitTo(bbox geometry.BoundingBox, aspect float64) (float64, bool) {
	fit, ok := navigation.Fit(bbox, mgl64.DegToRad(c.FOVY), aspect)
	if !ok {
		return 0, false
	}
	c.Position = fit.Position
	c.Target = fit.Target
	return fit.GridY, true
}

// ViewProjection returns projection * view for the given aspect ratio
func (c Camera) ViewProjection(aspect float64) mgl64.Mat4 {
	if aspect <= 0 || math.IsNaN(aspect) {
		aspect = 1
	}
	proj := mgl64.Perspective(mgl64.DegToRad(c.FOVY), aspect, c.Near, c.Far)
	view := mgl64.LookAtV(c.Position, c.Target, mgl64.Vec3{0, 1, 0})
	return proj.Mul4(view)
}

// screenPoint is a projected vertex: pixel coordinates plus NDC depth
type screenPoint struct {
	x, y, z float64
}

// project maps a scene-space point to pixels. It reports false for points
// behind the near plane.
func project(vp mgl64.Mat4, p geometry.Vector3, width, height int) (screenPoint, bool) {
	clip := vp.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	if clip[3] <= 1e-9 {
		return screenPoint{}, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	if ndc[2] < -1 {
		return screenPoint{}, false
	}
	return screenPoint{
		x: (ndc[0] + 1) / 2 * float64(width),
		y: (1 - ndc[1]) / 2 * float64(height),
		z: ndc[2],
	}, true
}
