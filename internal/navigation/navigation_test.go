package navigation

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(min, max geometry.Vector3) geometry.BoundingBox {
	b := geometry.NewBoundingBox()
	b.Extend(min)
	b.Extend(max)
	return b
}

func TestFitKeepsBoxInsideFrustum(t *testing.T) {
	fovY := mgl64.DegToRad(60)
	cases := []struct {
		name   string
		bbox   geometry.BoundingBox
		aspect float64
	}{
		{"cube", box(geometry.NewVector3(-1, -1, -1), geometry.NewVector3(1, 1, 1)), 16.0 / 9},
		{"tall tower portrait", box(geometry.NewVector3(0, 0, 0), geometry.NewVector3(5, 80, 5)), 0.5},
		{"flat site", box(geometry.NewVector3(-200, 0, -150), geometry.NewVector3(200, 3, 150)), 1.6},
		{"tiny part", box(geometry.NewVector3(0, 0, 0), geometry.NewVector3(0.01, 0.02, 0.01)), 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fit, ok := Fit(tc.bbox, fovY, tc.aspect)
			require.True(t, ok)

			view := mgl64.LookAtV(fit.Position, fit.Target, mgl64.Vec3{0, 1, 0})
			proj := mgl64.Perspective(fovY, tc.aspect, 0.001, 5000)
			mvp := proj.Mul4(view)
			for _, c := range tc.bbox.Corners() {
				clip := mvp.Mul4x1(mgl64.Vec4{c.X, c.Y, c.Z, 1})
				require.Positive(t, clip.W())
				ndc := clip.Vec3().Mul(1 / clip.W())
				assert.LessOrEqual(t, math.Abs(ndc.X()), 1.0, "corner %v", c)
				assert.LessOrEqual(t, math.Abs(ndc.Y()), 1.0, "corner %v", c)
				assert.LessOrEqual(t, math.Abs(ndc.Z()), 1.0, "corner %v", c)
			}
		})
	}
}

func TestFitResult(t *testing.T) {
	b := box(geometry.NewVector3(0, 2, 0), geometry.NewVector3(10, 4, 6))
	fit, ok := Fit(b, mgl64.DegToRad(60), 1)
	require.True(t, ok)

	assert.True(t, fit.Target.ApproxEqual(mgl64.Vec3{5, 3, 3}))
	assert.InDelta(t, 1.9, fit.GridY, 1e-9)
	assert.InDelta(t, 0.2, fit.MoveSpeed, 1e-9)
	assert.InDelta(t, fit.Distance, fit.Position.Sub(fit.Target).Len(), 1e-9)

	off := fit.Position.Sub(fit.Target)
	assert.InDelta(t, off.X(), off.Y(), 1e-9)
	assert.InDelta(t, off.Y(), off.Z(), 1e-9)
}

func TestFitSmallModels(t *testing.T) {
	fit, ok := Fit(box(geometry.NewVector3(0, 0, 0), geometry.NewVector3(0.001, 0.001, 0.001)), mgl64.DegToRad(60), 1)
	require.True(t, ok)
	assert.Equal(t, MinFitDistance, fit.Distance)
	assert.Equal(t, MinMoveSpeed, fit.MoveSpeed)

	_, ok = Fit(geometry.NewBoundingBox(), mgl64.DegToRad(60), 1)
	assert.False(t, ok)
}

func TestFitDistanceIsMonotonic(t *testing.T) {
	fovY := mgl64.DegToRad(60)
	prev := 0.0
	for dim := 0.0; dim < 500; dim += 0.37 {
		d := FitDistance(dim, fovY, 1.5)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestMoveStateDisplacement(t *testing.T) {
	viewDir := mgl64.Vec3{0, -1, -1}.Normalize()

	m := MoveState{Forward: true}
	assert.True(t, m.Displacement(viewDir, 2).ApproxEqual(mgl64.Vec3{0, 0, -2}))

	m = MoveState{Right: true}
	assert.True(t, m.Displacement(viewDir, 1).ApproxEqual(mgl64.Vec3{1, 0, 0}))

	m = MoveState{Left: true, Up: true}
	assert.True(t, m.Displacement(viewDir, 1).ApproxEqual(mgl64.Vec3{-1, 1, 0}))

	m = MoveState{Forward: true, Backward: true}
	assert.True(t, m.Displacement(viewDir, 1).ApproxEqual(mgl64.Vec3{}))

	// looking straight down only vertical movement is defined
	m = MoveState{Forward: true, Down: true}
	assert.True(t, m.Displacement(mgl64.Vec3{0, -1, 0}, 1).ApproxEqual(mgl64.Vec3{0, -1, 0}))
}

func TestMoveStateAccumulatesPerFrameAndStops(t *testing.T) {
	o := NewOrbit(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, DefaultOrbitOptions())
	m := MoveState{Forward: true}

	for i := 0; i < 5; i++ {
		assert.True(t, m.Apply(o, 0.5))
		o.Update(1.0 / 60)
	}
	assert.InDelta(t, -2.5, o.Target().Z(), 1e-9)
	assert.InDelta(t, 7.5, o.Position().Z(), 1e-6)

	m.Forward = false
	assert.False(t, m.Apply(o, 0.5))
	assert.InDelta(t, -2.5, o.Target().Z(), 1e-9)
}

func TestReleaseAll(t *testing.T) {
	m := MoveState{Forward: true, Left: true, Down: true}
	require.True(t, m.Active())
	m.ReleaseAll()
	assert.False(t, m.Active())
	assert.Equal(t, MoveState{}, m)
}

func TestKeyboardReleasesKeysOnFocusLoss(t *testing.T) {
	k := NewKeyboard()
	k.Move = MoveState{Forward: true, Up: true}

	assert.False(t, k.SetFocus(true))
	assert.True(t, k.Move.Active())

	assert.True(t, k.SetFocus(false))
	assert.False(t, k.Move.Active())

	// staying unfocused is not a second loss
	k.Move.Left = true
	assert.False(t, k.SetFocus(false))
	assert.True(t, k.Move.Left)

	assert.False(t, k.SetFocus(true))
	assert.True(t, k.SetFocus(false))
	assert.False(t, k.Move.Active())
}

func TestKeyboardStartsAtBaseSpeed(t *testing.T) {
	k := NewKeyboard()
	assert.Equal(t, 0.001, k.Speed)

	o := NewOrbit(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, DefaultOrbitOptions())
	k.Move.Forward = true
	assert.True(t, k.Step(o))
	assert.InDelta(t, -0.001, o.Target().Z(), 1e-12)

	res, ok := Fit(box(geometry.NewVector3(0, 0, 0), geometry.NewVector3(100, 10, 10)), math.Pi/3, 1)
	require.True(t, ok)
	k.Speed = res.MoveSpeed
	assert.InDelta(t, 2.0, k.Speed, 1e-9)
}

func TestOrbitSetView(t *testing.T) {
	o := NewOrbit(mgl64.Vec3{3, 4, 5}, mgl64.Vec3{1, 1, 1}, DefaultOrbitOptions())
	assert.True(t, o.Position().ApproxEqualThreshold(mgl64.Vec3{3, 4, 5}, 1e-9))
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, o.Target())
	assert.InDelta(t, math.Sqrt(4+9+16), o.Distance(), 1e-9)
	assert.True(t, o.Settled())
}

func TestOrbitDampingConverges(t *testing.T) {
	o := NewOrbit(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, DefaultOrbitOptions())
	o.Rotate(100, 0, 800)
	o.Dolly(3)

	assert.True(t, o.Update(1.0/60), "first frame moves")
	assert.False(t, o.Settled())
	mid := o.Position()

	for i := 0; i < 600; i++ {
		o.Update(1.0 / 60)
	}
	assert.True(t, o.Settled())
	assert.False(t, mid.ApproxEqualThreshold(o.Position(), 1e-3))
	assert.InDelta(t, 10*math.Pow(0.95, 3), o.Distance(), 1e-4)
	assert.False(t, o.Update(1.0/60))
}

func TestOrbitWithoutDampingSnaps(t *testing.T) {
	opts := DefaultOrbitOptions()
	opts.EnableDamping = false
	o := NewOrbit(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, opts)

	o.Dolly(-1)
	o.Update(1.0 / 60)
	assert.InDelta(t, 10/0.95, o.Distance(), 1e-9)
	assert.True(t, o.Settled())
}

func TestOrbitClampsDistance(t *testing.T) {
	opts := DefaultOrbitOptions()
	opts.EnableDamping = false
	o := NewOrbit(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{}, opts)

	for i := 0; i < 1000; i++ {
		o.Dolly(1)
	}
	o.Update(1.0 / 60)
	assert.InDelta(t, opts.MinDistance, o.Distance(), 1e-12)

	for i := 0; i < 1000; i++ {
		o.Dolly(-1)
	}
	o.Update(1.0 / 60)
	assert.InDelta(t, opts.MaxDistance, o.Distance(), 1e-9)
}

func TestOrbitPanMovesTargetInScreenPlane(t *testing.T) {
	opts := DefaultOrbitOptions()
	opts.EnableDamping = false
	o := NewOrbit(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, opts)

	o.Pan(100, 0, 1000, mgl64.DegToRad(90))
	o.Update(1.0 / 60)

	// dragging right moves the scene right, so the target moves left
	assert.InDelta(t, -2, o.Target().X(), 1e-9)
	assert.InDelta(t, 0, o.Target().Y(), 1e-9)
	assert.InDelta(t, 0, o.Target().Z(), 1e-9)
	assert.InDelta(t, 10, o.Distance(), 1e-9)

	opts.EnablePan = false
	still := NewOrbit(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, opts)
	still.Pan(100, 0, 1000, mgl64.DegToRad(90))
	still.Update(1.0 / 60)
	assert.Equal(t, mgl64.Vec3{}, still.Target())
}

func TestOrbitKeepsOffPoles(t *testing.T) {
	opts := DefaultOrbitOptions()
	opts.EnableDamping = false
	o := NewOrbit(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, opts)

	o.Rotate(0, 10000, 100)
	o.Update(1.0 / 60)
	assert.Less(t, o.Position().Y(), 10.0)
	assert.False(t, math.IsNaN(o.Forward().X()))
}
