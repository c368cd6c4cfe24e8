package neuron

import (
	"fmt"
	"math"
)

// Spike threshold and safety clamps for the membrane/recovery variables.
// Values outside these ranges only occur under extreme driving currents;
// clamping keeps the quadratic voltage term from diverging between steps.
const (
	SpikeThreshold = 30.0

	vFloor   = -120.0
	uCeiling = 200.0
	uFloor   = -200.0
)

// Params holds the Izhikevich model constants for one receptor neuron.
//
//	v' = 0.04*v^2 + 5*v + 140 - u + I
//	u' = a*(b*v - u)
//
// On threshold crossing v resets to C and u is incremented by D.
type Params struct {
	A     float64
	B     float64
	C     float64
	D     float64
	VInit float64
}

// Validate rejects non-finite model constants.
func (p Params) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"a", p.A}, {"b", p.B}, {"c", p.C}, {"d", p.D}, {"v_init", p.VInit},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("neuron param %s must be finite: %f", f.name, f.v)
		}
	}
	return nil
}

// State is a snapshot of one neuron's membrane potential and recovery variable.
type State struct {
	V float64
	U float64
}

// Spike is the per-neuron outcome of a single simulation step.
type Spike struct {
	Index int
	Fired bool
	V     float64
	U     float64
}

// Array integrates a fixed-size batch of Izhikevich neurons with a shared
// time step. Parameters and state live in flat per-field slices so the
// update is a single pass with no per-neuron allocation. Neurons do not
// couple; update order across the array never changes any neuron's result.
type Array struct {
	dtMs float64

	a []float64
	b []float64
	c []float64
	d []float64

	// Recovery reset scale per neuron: u += d*scale on fire. Defaults to 1.
	resetScale []float64

	vInit []float64
	uInit []float64

	v []float64
	u []float64

	spikes []Spike
}

// NewArray creates a fixed-size neuron array stepped at dtMs milliseconds.
// The array length equals len(params) and never changes afterwards.
func NewArray(dtMs float64, params []Params) (*Array, error) {
	if dtMs <= 0 || math.IsNaN(dtMs) || math.IsInf(dtMs, 0) {
		return nil, fmt.Errorf("neuron dt must be > 0 and finite: %f", dtMs)
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("neuron array must hold at least one neuron")
	}

	n := len(params)
	arr := &Array{
		dtMs:       dtMs,
		a:          make([]float64, n),
		b:          make([]float64, n),
		c:          make([]float64, n),
		d:          make([]float64, n),
		resetScale: make([]float64, n),
		vInit:      make([]float64, n),
		uInit:      make([]float64, n),
		v:          make([]float64, n),
		u:          make([]float64, n),
		spikes:     make([]Spike, n),
	}
	for i, p := range params {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("neuron %d: %w", i, err)
		}
		arr.a[i] = p.A
		arr.b[i] = p.B
		arr.c[i] = p.C
		arr.d[i] = p.D
		arr.resetScale[i] = 1.0
		arr.vInit[i] = p.VInit
		arr.uInit[i] = p.B * p.VInit
		arr.v[i] = p.VInit
		arr.u[i] = arr.uInit[i]
	}
	return arr, nil
}

// Len returns the fixed number of neurons in the array.
func (arr *Array) Len() int {
	return len(arr.v)
}

// DtMs returns the configured integration step in milliseconds.
func (arr *Array) DtMs() float64 {
	return arr.dtMs
}

// Step advances every neuron by one fixed time step under the given driving
// currents (one per neuron) and reports the per-neuron spike outcome. The
// returned slice is reused across calls; callers must consume it before the
// next Step.
func (arr *Array) Step(currents []float64) ([]Spike, error) {
	if len(currents) != len(arr.v) {
		return nil, fmt.Errorf("current vector length %d does not match array size %d", len(currents), len(arr.v))
	}

	for i := range arr.v {
		v := arr.v[i]
		u := arr.u[i]

		// Forward Euler on the quadratic membrane equation.
		v += arr.dtMs * (0.04*v*v + 5*v + 140 - u + currents[i])

		// Overflow protection: bound v before it feeds the recovery update
		// and the next quadratic term. Overshoot above threshold is capped
		// at the spike peak.
		if v > SpikeThreshold {
			v = SpikeThreshold
		}
		if v < vFloor {
			v = vFloor
		}

		u += arr.dtMs * arr.a[i] * (arr.b[i]*v - u)
		if u > uCeiling {
			u = uCeiling
		}
		if u < uFloor {
			u = uFloor
		}

		if math.IsNaN(v) || math.IsInf(v, 0) || math.IsNaN(u) || math.IsInf(u, 0) {
			// Divergence despite clamping: recover the neuron instead of
			// propagating invalid state.
			v = arr.vInit[i]
			u = arr.uInit[i]
		}

		fired := v >= SpikeThreshold
		if fired {
			v = arr.c[i]
			u += arr.d[i] * arr.resetScale[i]
			if u > uCeiling {
				u = uCeiling
			}
		}

		arr.v[i] = v
		arr.u[i] = u
		arr.spikes[i] = Spike{Index: i, Fired: fired, V: v, U: u}
	}
	return arr.spikes, nil
}

// StateAt returns the current membrane/recovery state of neuron i.
func (arr *Array) StateAt(i int) State {
	return State{V: arr.v[i], U: arr.u[i]}
}

// A returns the recovery time constant of neuron i.
func (arr *Array) A(i int) float64 {
	return arr.a[i]
}

// SetA overrides the recovery time constant of neuron i. Used by adaptation
// schemes that slow a receptor's recovery while a stimulus is held.
func (arr *Array) SetA(i int, a float64) {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return
	}
	arr.a[i] = a
}

// D returns the recovery reset increment of neuron i.
func (arr *Array) D(i int) float64 {
	return arr.d[i]
}

// SetD overrides the recovery reset increment of neuron i.
func (arr *Array) SetD(i int, d float64) {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return
	}
	arr.d[i] = d
}

// SetRecoveryResetScale sets the fraction of D added to u when neuron i
// fires. A value below 1 lets the neuron re-fire sooner after a spike.
func (arr *Array) SetRecoveryResetScale(i int, scale float64) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 0 {
		return
	}
	arr.resetScale[i] = scale
}

// Reset restores every neuron to its initial membrane and recovery state.
func (arr *Array) Reset() {
	for i := range arr.v {
		arr.v[i] = arr.vInit[i]
		arr.u[i] = arr.uInit[i]
	}
}
