package navigation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goifc/pkg/geometry"
)

const (
	// FitMargin leaves some space around the model
	FitMargin = 1.2
	// MinFitDistance keeps tiny models from putting the camera inside them
	MinFitDistance = 0.5
	// GridOffset is how far the grid sits below the model
	GridOffset = 0.1
	// MinMoveSpeed is the keyboard speed floor in units per frame
	MinMoveSpeed = 0.01
	// MoveSpeedFactor scales keyboard speed with the model size
	MoveSpeedFactor = 0.02
)

// FitResult is the camera placement for a model
type FitResult struct {
	Position  mgl64.Vec3
	Target    mgl64.Vec3
	Distance  float64
	GridY     float64
	MoveSpeed float64
}

// FitDistance returns the camera distance that keeps a box with the given
// largest dimension inside a frustum with vertical field of view fovY
// (radians) and aspect ratio width/height
func FitDistance(maxDim, fovY, aspect float64) float64 {
	if aspect <= 0 {
		aspect = 1
	}
	fovX := 2 * math.Atan(math.Tan(fovY/2)*aspect)
	fov := math.Min(fovY, fovX)

	// bounding sphere of a cube with edge maxDim
	radius := math.Sqrt(3) / 2 * maxDim
	d := FitMargin * radius / math.Sin(fov/2)
	if d < MinFitDistance || math.IsNaN(d) {
		d = MinFitDistance
	}
	return d
}

// Fit places the camera on the (1,1,1) diagonal of the box centre. It
// returns false for an empty box.
func Fit(bbox geometry.BoundingBox, fovY, aspect float64) (FitResult, bool) {
	if bbox.IsEmpty() {
		return FitResult{}, false
	}
	c := bbox.Center()
	maxDim := bbox.MaxDimension()
	d := FitDistance(maxDim, fovY, aspect)

	center := mgl64.Vec3{c.X, c.Y, c.Z}
	dir := mgl64.Vec3{1, 1, 1}.Normalize()
	return FitResult{
		Position:  center.Add(dir.Mul(d)),
		Target:    center,
		Distance:  d,
		GridY:     bbox.Min.Y - GridOffset,
		MoveSpeed: math.Max(maxDim*MoveSpeedFactor, MinMoveSpeed),
	}, true
}
