// Package encoder converts pointer stimulus samples into driving currents
// for a fixed bank of tactile receptor neurons and advances the simulation
// one tick at a time. Three receptors are modeled: a slowly adapting (SA)
// channel for sustained pressure, a rapidly adapting (RA) motion channel,
// and an RA click channel for contact transitions.
package encoder

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-haptic/neuron"
)

// Receptor indices inside the neuron array.
const (
	IdxSA = iota
	IdxRAMotion
	IdxRAClick
	numReceptors
)

// A change in the sustained input smaller than this never produces a click
// transient.
const saDeltaThreshold = 0.1

// Divisor applied to the SA recovery time constant on each SA spike; models
// the receptor gradually adapting to held pressure.
const saAdaptDivisor = 1.05

// InputConfig enumerates the stimulus-to-current coefficients.
type InputConfig struct {
	// ClickMag is the canonical SA level for a full contact press. The
	// encoder itself only consumes levels through UpdateSAInput; the value
	// lives here so the application layer shares one source of truth.
	ClickMag float64

	// ClickScaleOnChange converts a sustained-input delta into the click
	// transient current.
	ClickScaleOnChange float64

	// MotionScaleOnSpeedDev converts the speed deviation from its running
	// average into the motion current.
	MotionScaleOnSpeedDev float64

	// Clip bounds for the two RA sub-channels, applied independently.
	MotionClipMin float64
	MotionClipMax float64
	ClickClipMin  float64
	ClickClipMax  float64

	// ClickSustainTicks is how many ticks the click transient stays applied
	// after a qualifying change in the sustained input.
	ClickSustainTicks int

	// MinSpeedForMotion gates the motion current; below this speed the
	// motion channel receives no drive.
	MinSpeedForMotion float64
}

// Validate rejects non-finite coefficients and inconsistent bounds.
func (c InputConfig) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"click_mag", c.ClickMag},
		{"ra_click_scl_chg", c.ClickScaleOnChange},
		{"ra_motion_scl_spd_dev", c.MotionScaleOnSpeedDev},
		{"ra_motion_clip_min", c.MotionClipMin},
		{"ra_motion_clip_max", c.MotionClipMax},
		{"ra_click_clip_min", c.ClickClipMin},
		{"ra_click_clip_max", c.ClickClipMax},
		{"ra_min_spd_for_input", c.MinSpeedForMotion},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("input config %s must be finite: %f", f.name, f.v)
		}
	}
	if c.MotionClipMin > c.MotionClipMax {
		return fmt.Errorf("ra_motion clip bounds inverted: [%f, %f]", c.MotionClipMin, c.MotionClipMax)
	}
	if c.ClickClipMin > c.ClickClipMax {
		return fmt.Errorf("ra_click clip bounds inverted: [%f, %f]", c.ClickClipMin, c.ClickClipMax)
	}
	if c.ClickSustainTicks < 0 {
		return fmt.Errorf("ra_click sustain duration must be >= 0: %d", c.ClickSustainTicks)
	}
	if c.MinSpeedForMotion < 0 {
		return fmt.Errorf("ra_min_spd_for_input must be >= 0: %f", c.MinSpeedForMotion)
	}
	return nil
}

// SAParams extends the base neuron parameters with the initial recovery
// time constant restored on every new press.
type SAParams struct {
	Neuron neuron.Params
	InitA  float64
}

// RAClickParams extends the click neuron with an optional recovery burst:
// while a click transient is sustained, D is raised to DBurst so the first
// response is stronger, then restored when the transient clears. A DBurst
// of zero disables the burst.
type RAClickParams struct {
	Neuron neuron.Params
	DBurst float64
}

// Result is the outcome of one encoder tick.
type Result struct {
	SAFired       bool
	RAMotionFired bool
	RAClickFired  bool

	SAState       neuron.State
	RAMotionState neuron.State
	RAClickState  neuron.State
}

// Encoder owns the receptor neuron array and the per-tick current policy.
// It is pure computation over owned state; nothing blocks.
type Encoder struct {
	arr    *neuron.Array
	config InputConfig

	saInitA      float64
	clickDBase   float64
	clickDBurst  float64
	burstApplied bool

	saInput     float64
	prevSAInput float64

	sustainedClick float64
	sustainCount   int

	currents [numReceptors]float64
}

// New builds an encoder around a fresh three-neuron array stepped at dtMs.
func New(sa SAParams, raMotion neuron.Params, raClick RAClickParams, dtMs float64, config InputConfig) (*Encoder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(sa.InitA) || math.IsInf(sa.InitA, 0) {
		return nil, fmt.Errorf("sa init_a must be finite: %f", sa.InitA)
	}
	if math.IsNaN(raClick.DBurst) || math.IsInf(raClick.DBurst, 0) || raClick.DBurst < 0 {
		return nil, fmt.Errorf("ra_click d_burst must be finite and >= 0: %f", raClick.DBurst)
	}

	arr, err := neuron.NewArray(dtMs, []neuron.Params{sa.Neuron, raMotion, raClick.Neuron})
	if err != nil {
		return nil, err
	}

	// The click receptor re-fires on rapid successive contacts; only half
	// of D is added back on each spike.
	arr.SetRecoveryResetScale(IdxRAClick, 0.5)

	return &Encoder{
		arr:         arr,
		config:      config,
		saInitA:     sa.InitA,
		clickDBase:  raClick.Neuron.D,
		clickDBurst: raClick.DBurst,
	}, nil
}

// UpdateSAInput sets the sustained-pressure driving current. The value is a
// level, not an edge: it stays in effect until changed or zeroed. A positive
// level also restores the SA recovery constant so a fresh press always
// responds at full strength.
func (e *Encoder) UpdateSAInput(magnitude float64) {
	e.saInput = magnitude
	if magnitude > 0 {
		e.arr.SetA(IdxSA, e.saInitA)
	}
}

// SAInput returns the currently held sustained-pressure level.
func (e *Encoder) SAInput() float64 {
	return e.saInput
}

// Step runs one encoder tick: derives the three driving currents from the
// stimulus sample, advances the neuron array, and reports spike outcomes.
func (e *Encoder) Step(speed, avgSpeed, roughness float64, pressed bool) (Result, error) {
	// Click transient: a sufficient change in the sustained input charges
	// the click channel for a fixed number of ticks.
	delta := e.saInput - e.prevSAInput
	if math.Abs(delta) > saDeltaThreshold {
		e.sustainedClick = math.Abs(delta) * e.config.ClickScaleOnChange
		e.sustainCount = e.config.ClickSustainTicks
		if e.clickDBurst > 0 {
			e.arr.SetD(IdxRAClick, e.clickDBurst)
			e.burstApplied = true
		}
	}
	clickCurrent := 0.0
	if e.sustainCount > 0 {
		clickCurrent = e.sustainedClick
		e.sustainCount--
		if e.sustainCount == 0 {
			e.sustainedClick = 0
			if e.burstApplied {
				e.arr.SetD(IdxRAClick, e.clickDBase)
				e.burstApplied = false
			}
		}
	}
	e.prevSAInput = e.saInput

	// Motion current from the deviation of speed against its running
	// average, scaled by material roughness. A decaying average can swing
	// this negative; that deceleration signal is intentional and stays.
	motionCurrent := 0.0
	if pressed && speed > e.config.MinSpeedForMotion {
		motionCurrent = (speed - avgSpeed) * roughness * e.config.MotionScaleOnSpeedDev
	}
	motionCurrent = clamp(motionCurrent, e.config.MotionClipMin, e.config.MotionClipMax)
	clickCurrent = clamp(clickCurrent, e.config.ClickClipMin, e.config.ClickClipMax)

	e.currents[IdxSA] = e.saInput
	e.currents[IdxRAMotion] = motionCurrent
	e.currents[IdxRAClick] = clickCurrent

	spikes, err := e.arr.Step(e.currents[:])
	if err != nil {
		return Result{}, err
	}

	if spikes[IdxSA].Fired {
		// Adaptation: each SA spike under held pressure slows recovery a
		// little, thinning out the sustained response.
		e.arr.SetA(IdxSA, e.arr.A(IdxSA)/saAdaptDivisor)
	}

	return Result{
		SAFired:       spikes[IdxSA].Fired,
		RAMotionFired: spikes[IdxRAMotion].Fired,
		RAClickFired:  spikes[IdxRAClick].Fired,
		SAState:       neuron.State{V: spikes[IdxSA].V, U: spikes[IdxSA].U},
		RAMotionState: neuron.State{V: spikes[IdxRAMotion].V, U: spikes[IdxRAMotion].U},
		RAClickState:  neuron.State{V: spikes[IdxRAClick].V, U: spikes[IdxRAClick].U},
	}, nil
}

// Neurons exposes the underlying array for diagnostics.
func (e *Encoder) Neurons() *neuron.Array {
	return e.arr
}

// Config returns the encoder's input coefficients.
func (e *Encoder) Config() InputConfig {
	return e.config
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
