package pipeline

import "math"

// Interpolator walks a finite sequence of values from a previous stabilized
// value to a new target, so consumers see gradual transitions rather than
// step changes. Restart begins a new transition; the sequence is consumed
// once per transition via Next.
type Interpolator struct {
	algorithm Algorithm
	from      float64
	to        float64
	steps     int
	step      int
}

func NewInterpolator(algorithm Algorithm) *Interpolator {
	return &Interpolator{algorithm: algorithm}
}

// Restart begins a new transition of steps values from previous to target.
// steps <= 1 degenerates to yielding only the target.
func (it *Interpolator) Restart(previous, target float64, steps int) {
	if steps < 1 {
		steps = 1
	}
	it.from = previous
	it.to = target
	it.steps = steps
	it.step = 0
}

// SetAlgorithm changes the easing curve for subsequent transitions.
func (it *Interpolator) SetAlgorithm(a Algorithm) { it.algorithm = a }

// Next yields the next intermediate value. The final step is always the
// exact target; ok is false once the sequence is exhausted.
func (it *Interpolator) Next() (value float64, ok bool) {
	if it.step >= it.steps {
		return 0, false
	}
	it.step++
	if it.step == it.steps {
		return it.to, true
	}

	p := float64(it.step) / float64(it.steps)
	switch it.algorithm {
	case AlgorithmExponential:
		p = 1 - (1-p)*(1-p) // ease-out
	case AlgorithmGaussian:
		p = 1 - math.Exp(-4*p)
	}
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return it.from + (it.to-it.from)*p, true
}
