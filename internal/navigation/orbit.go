// Package navigation implements the orbit camera controller, keyboard
// movement and model auto-fit.
package navigation

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"
)

// keeps the camera off the poles where the view matrix degenerates
const polarEpsilon = 1e-6

// OrbitOptions configure an Orbit
type OrbitOptions struct {
	EnableDamping      bool
	DampingFactor      float64 // share of the remaining motion applied per 60 Hz frame
	MinDistance        float64
	MaxDistance        float64
	EnablePan          bool
	PanSpeed           float64
	ScreenSpacePanning bool
	RotateSpeed        float64
	ZoomSpeed          float64
}

// DefaultOrbitOptions returns the controller settings of the viewer
func DefaultOrbitOptions() OrbitOptions {
	return OrbitOptions{
		EnableDamping:      true,
		DampingFactor:      0.05,
		MinDistance:        0.01,
		MaxDistance:        2000,
		EnablePan:          true,
		PanSpeed:           1.0,
		ScreenSpacePanning: true,
		RotateSpeed:        1.0,
		ZoomSpeed:          1.0,
	}
}

// spherical coordinates of the camera around its target, y up
type spherical struct {
	radius float64
	theta  float64 // around y, from +z towards +x
	phi    float64 // from +y
}

func toSpherical(offset mgl64.Vec3) spherical {
	r := offset.Len()
	if r == 0 {
		return spherical{}
	}
	return spherical{
		radius: r,
		theta:  math.Atan2(offset.X(), offset.Z()),
		phi:    math.Acos(mgl64.Clamp(offset.Y()/r, -1, 1)),
	}
}

func (s spherical) offset() mgl64.Vec3 {
	sinPhi := math.Sin(s.phi)
	return mgl64.Vec3{
		s.radius * sinPhi * math.Sin(s.theta),
		s.radius * math.Cos(s.phi),
		s.radius * sinPhi * math.Cos(s.theta),
	}
}

// Orbit is a damped orbit/dolly/pan camera controller. Input moves a goal
// pose; Update eases the current pose towards it with critically damped springs.
type Orbit struct {
	opts OrbitOptions

	goal       spherical
	goalTarget mgl64.Vec3
	cur        spherical
	curTarget  mgl64.Vec3

	// spring velocities: radius, theta, phi, target x/y/z
	vel [6]float64
}

// NewOrbit creates a controller looking from position at target
func NewOrbit(position, target mgl64.Vec3, opts OrbitOptions) *Orbit {
	o := &Orbit{opts: opts}
	o.SetView(position, target)
	return o
}

// Options returns the controller settings
func (o *Orbit) Options() OrbitOptions {
	return o.opts
}

// SetView places the camera immediately, dropping any pending motion
func (o *Orbit) SetView(position, target mgl64.Vec3) {
	o.goalTarget = target
	o.goal = toSpherical(position.Sub(target))
	o.clampGoal()
	o.cur = o.goal
	o.curTarget = target
	o.vel = [6]float64{}
}

// Position returns the current camera position
func (o *Orbit) Position() mgl64.Vec3 {
	return o.curTarget.Add(o.cur.offset())
}

// Target returns the current look-at point
func (o *Orbit) Target() mgl64.Vec3 {
	return o.curTarget
}

// Distance returns the current camera to target distance
func (o *Orbit) Distance() float64 {
	return o.cur.radius
}

// Forward returns the normalized view direction
func (o *Orbit) Forward() mgl64.Vec3 {
	return o.curTarget.Sub(o.Position()).Normalize()
}

// Rotate orbits by a pointer drag of (dx, dy) pixels in a viewport of the given height
func (o *Orbit) Rotate(dx, dy, viewportHeight float64) {
	if viewportHeight <= 0 {
		return
	}
	o.goal.theta -= 2 * math.Pi * dx / viewportHeight * o.opts.RotateSpeed
	o.goal.phi -= 2 * math.Pi * dy / viewportHeight * o.opts.RotateSpeed
	o.clampGoal()
}

// Dolly moves towards the target for steps > 0 (wheel up) and away for steps < 0
func (o *Orbit) Dolly(steps float64) {
	scale := math.Pow(0.95, o.opts.ZoomSpeed*math.Abs(steps))
	if steps > 0 {
		o.goal.radius *= scale
	} else if steps < 0 {
		o.goal.radius /= scale
	}
	o.clampGoal()
}

// Pan shifts camera and target by a pointer drag of (dx, dy) pixels. The
// shift is scaled so the point under the cursor follows it at target depth.
func (o *Orbit) Pan(dx, dy, viewportHeight, fovY float64) {
	if !o.opts.EnablePan || viewportHeight <= 0 {
		return
	}
	offset := o.goal.offset()
	targetDistance := offset.Len() * math.Tan(fovY/2)

	forward := offset.Mul(-1).Normalize()
	right := forward.Cross(mgl64.Vec3{0, 1, 0}).Normalize()
	var up mgl64.Vec3
	if o.opts.ScreenSpacePanning {
		up = right.Cross(forward).Normalize()
	} else {
		up = mgl64.Vec3{0, 1, 0}.Cross(right).Normalize()
	}

	move := right.Mul(-2 * dx * targetDistance / viewportHeight * o.opts.PanSpeed).
		Add(up.Mul(2 * dy * targetDistance / viewportHeight * o.opts.PanSpeed))
	o.goalTarget = o.goalTarget.Add(move)
}

// Translate moves camera and target together without damping
func (o *Orbit) Translate(delta mgl64.Vec3) {
	o.goalTarget = o.goalTarget.Add(delta)
	o.curTarget = o.curTarget.Add(delta)
}

// Update advances the damped motion by dt seconds. It reports whether the
// camera moved.
func (o *Orbit) Update(dt float64) bool {
	before := o.Position()

	if !o.opts.EnableDamping {
		o.cur = o.goal
		o.curTarget = o.goalTarget
		o.vel = [6]float64{}
		return !before.ApproxEqual(o.Position())
	}
	if dt <= 0 {
		return false
	}

	spring := harmonica.NewSpring(dt, o.angularFrequency(), 1.0)
	o.cur.radius, o.vel[0] = spring.Update(o.cur.radius, o.vel[0], o.goal.radius)
	o.cur.theta, o.vel[1] = spring.Update(o.cur.theta, o.vel[1], o.goal.theta)
	o.cur.phi, o.vel[2] = spring.Update(o.cur.phi, o.vel[2], o.goal.phi)
	for i := 0; i < 3; i++ {
		o.curTarget[i], o.vel[3+i] = spring.Update(o.curTarget[i], o.vel[3+i], o.goalTarget[i])
	}
	o.cur = o.clamp(o.cur)

	return !before.ApproxEqual(o.Position())
}

// angularFrequency matches the spring's time constant to a per-frame decay of
// (1 - DampingFactor) at 60 Hz
func (o *Orbit) angularFrequency() float64 {
	f := mgl64.Clamp(o.opts.DampingFactor, 1e-4, 0.9999)
	return -math.Log(1-f) * 60
}

// Settled reports whether no damped motion is pending
func (o *Orbit) Settled() bool {
	const eps = 1e-6
	if math.Abs(o.cur.radius-o.goal.radius) > eps ||
		math.Abs(o.cur.theta-o.goal.theta) > eps ||
		math.Abs(o.cur.phi-o.goal.phi) > eps {
		return false
	}
	return o.curTarget.ApproxEqualThreshold(o.goalTarget, eps)
}

func (o *Orbit) clampGoal() {
	o.goal = o.clamp(o.goal)
}

func (o *Orbit) clamp(s spherical) spherical {
	hi := o.opts.MaxDistance
	if hi <= 0 {
		hi = math.Inf(1)
	}
	s.radius = mgl64.Clamp(s.radius, o.opts.MinDistance, hi)
	s.phi = mgl64.Clamp(s.phi, polarEpsilon, math.Pi-polarEpsilon)
	return s
}
