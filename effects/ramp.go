package effects

// Ramp glides linearly to its target over a fixed number of samples.
type Ramp struct {
	Value  float64
	target float64
	step   float64
	left   int
	length int
}

// NewRamp returns a ramp resting at value. Changes take length samples; a
// length of zero makes changes immediate.
func NewRamp(value float64, length int) Ramp {
	return Ramp{Value: value, target: value, length: length}
}

// Set starts a glide from the current value towards target. Setting the same
// target again does not restart the glide.
func (r *Ramp) Set(target float64) {
	if target == r.target {
		return
	}
	r.target = target
	if r.length <= 0 {
		r.Value = target
		r.left = 0
		return
	}
	r.step = (target - r.Value) / float64(r.length)
	r.left = r.length
}

// Next advances by one sample and returns the new value.
func (r *Ramp) Next() float64 {
	if r.left > 0 {
		r.left--
		if r.left == 0 {
			r.Value = r.target
		} else {
			r.Value += r.step
		}
	}
	return r.Value
}

// Skip advances by n samples at once.
func (r *Ramp) Skip(n int) float64 {
	if r.left > 0 {
		if n >= r.left {
			r.left = 0
			r.Value = r.target
		} else {
			r.left -= n
			r.Value += r.step * float64(n)
		}
	}
	return r.Value
}

// Moving reports whether the ramp has not reached its target yet.
func (r *Ramp) Moving() bool { return r.left > 0 }

func (r *Ramp) Target() float64 { return r.target }

// Jump moves to value immediately.
func (r *Ramp) Jump(value float64) {
	r.Value, r.target, r.left = value, value, 0
}
