package navigation

import "github.com/go-gl/mathgl/mgl64"

// MoveState holds the continuous movement keys currently held down
type MoveState struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Up       bool
	Down     bool
}

// ReleaseAll clears every flag, e.g. when the window loses focus and key
// releases will not be delivered
func (m *MoveState) ReleaseAll() {
	*m = MoveState{}
}

// BaseMoveSpeed is the keyboard speed until a model has been fitted
const BaseMoveSpeed = 0.001

// Keyboard tracks the held movement keys, their speed and the window focus
type Keyboard struct {
	Move    MoveState
	Speed   float64
	focused bool
}

// NewKeyboard returns a keyboard for a focused window moving at BaseMoveSpeed
func NewKeyboard() Keyboard {
	return Keyboard{Speed: BaseMoveSpeed, focused: true}
}

// SetFocus records the window focus. Losing it releases every held key, as
// the key-up events go to another window. It reports whether focus was lost.
func (k *Keyboard) SetFocus(focused bool) bool {
	lost := k.focused && !focused
	if lost {
		k.Move.ReleaseAll()
	}
	k.focused = focused
	return lost
}

// Step applies one frame of the held keys to o
func (k *Keyboard) Step(o *Orbit) bool {
	return k.Move.Apply(o, k.Speed)
}

// Active reports whether any movement key is held
func (m MoveState) Active() bool {
	return m != MoveState{}
}

// Displacement returns the movement for one frame. Forward/backward and
// strafing stay in the horizontal plane of the view direction; up and down
// follow the world y axis.
func (m MoveState) Displacement(viewDir mgl64.Vec3, speed float64) mgl64.Vec3 {
	var d mgl64.Vec3
	if !m.Active() {
		return d
	}

	worldUp := mgl64.Vec3{0, 1, 0}
	horizontal := mgl64.Vec3{viewDir.X(), 0, viewDir.Z()}
	if horizontal.Len() > 1e-9 {
		dir := horizontal.Normalize()
		right := dir.Cross(worldUp).Normalize()
		if m.Forward {
			d = d.Add(dir.Mul(speed))
		}
		if m.Backward {
			d = d.Sub(dir.Mul(speed))
		}
		if m.Left {
			d = d.Sub(right.Mul(speed))
		}
		if m.Right {
			d = d.Add(right.Mul(speed))
		}
	}
	if m.Up {
		d = d.Add(worldUp.Mul(speed))
	}
	if m.Down {
		d = d.Sub(worldUp.Mul(speed))
	}
	return d
}

// Apply moves the orbit camera and its target by one frame of movement.
// It reports whether anything moved.
func (m MoveState) Apply(o *Orbit, speed float64) bool {
	d := m.Displacement(o.Forward(), speed)
	if d.Len() == 0 {
		return false
	}
	o.Translate(d)
	return true
}
