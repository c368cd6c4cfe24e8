package neuron

import (
	"math"
	"testing"
)

func saParams() Params {
	return Params{A: 0.02, B: 0.2, C: -65, D: 8, VInit: -70}
}

func TestZeroCurrentNeverFires(t *testing.T) {
	arr, err := NewArray(1.0, []Params{saParams()})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	for tick := 0; tick < 1000; tick++ {
		spikes, err := arr.Step([]float64{0})
		if err != nil {
			t.Fatalf("Step tick %d: %v", tick, err)
		}
		if spikes[0].Fired {
			t.Fatalf("unexpected spike at tick %d with zero current", tick)
		}
	}
	st := arr.StateAt(0)
	if st.V < -90 || st.V > -50 {
		t.Fatalf("membrane potential drifted out of resting range: v=%f", st.V)
	}
}

func TestConstantCurrentFiresTonically(t *testing.T) {
	p := Params{A: 0.05, B: 0.25, C: -65, D: 6, VInit: -70}
	arr, err := NewArray(1.0, []Params{p})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	spikes := 0
	firstSpike := -1
	for tick := 0; tick < 1000; tick++ {
		out, err := arr.Step([]float64{20})
		if err != nil {
			t.Fatalf("Step tick %d: %v", tick, err)
		}
		if out[0].Fired {
			spikes++
			if firstSpike < 0 {
				firstSpike = tick
			}
			if out[0].V != p.C {
				t.Fatalf("potential not reset to c after spike: got=%f want=%f", out[0].V, p.C)
			}
		}
	}
	if firstSpike < 0 || firstSpike > 100 {
		t.Fatalf("expected first spike within 100 ticks, got %d", firstSpike)
	}
	if spikes < 5 {
		t.Fatalf("expected tonic firing under constant drive, got %d spikes", spikes)
	}
}

func TestRecoveryResetScaleHalvesJump(t *testing.T) {
	p := Params{A: 0.05, B: 0.25, C: -65, D: 6, VInit: -70}
	arr, err := NewArray(1.0, []Params{p, p})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	arr.SetRecoveryResetScale(1, 0.5)

	currents := []float64{20, 20}
	for tick := 0; tick < 1000; tick++ {
		out, err := arr.Step(currents)
		if err != nil {
			t.Fatalf("Step tick %d: %v", tick, err)
		}
		if out[0].Fired {
			if !out[1].Fired {
				t.Fatalf("identical neurons diverged before first spike at tick %d", tick)
			}
			diff := arr.StateAt(0).U - arr.StateAt(1).U
			if math.Abs(diff-0.5*p.D) > 1e-9 {
				t.Fatalf("recovery jump not scaled: diff=%f want=%f", diff, 0.5*p.D)
			}
			return
		}
	}
	t.Fatalf("no spike within 1000 ticks")
}

func TestInitialRecoveryFollowsB(t *testing.T) {
	p := saParams()
	arr, err := NewArray(1.0, []Params{p})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	st := arr.StateAt(0)
	if st.V != p.VInit {
		t.Fatalf("v_init mismatch: got=%f want=%f", st.V, p.VInit)
	}
	if math.Abs(st.U-p.B*p.VInit) > 1e-12 {
		t.Fatalf("u_init mismatch: got=%f want=%f", st.U, p.B*p.VInit)
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	arr, err := NewArray(1.0, []Params{saParams()})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	for tick := 0; tick < 200; tick++ {
		if _, err := arr.Step([]float64{20}); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	arr.Reset()
	st := arr.StateAt(0)
	if st.V != -70 || math.Abs(st.U-0.2*-70) > 1e-12 {
		t.Fatalf("reset did not restore initial state: v=%f u=%f", st.V, st.U)
	}
}

func TestNewArrayRejectsInvalidInputs(t *testing.T) {
	valid := saParams()
	if _, err := NewArray(0, []Params{valid}); err == nil {
		t.Fatalf("expected error for dt=0")
	}
	if _, err := NewArray(1.0, nil); err == nil {
		t.Fatalf("expected error for empty params")
	}
	bad := valid
	bad.A = math.NaN()
	if _, err := NewArray(1.0, []Params{bad}); err == nil {
		t.Fatalf("expected error for NaN parameter")
	}
}

func TestStepRejectsCurrentLengthMismatch(t *testing.T) {
	arr, err := NewArray(1.0, []Params{saParams()})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	if _, err := arr.Step([]float64{0, 0}); err == nil {
		t.Fatalf("expected error for mismatched current slice")
	}
}

func TestExtremeCurrentStaysFinite(t *testing.T) {
	arr, err := NewArray(1.0, []Params{saParams()})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	for tick := 0; tick < 500; tick++ {
		if _, err := arr.Step([]float64{1e6}); err != nil {
			t.Fatalf("Step: %v", err)
		}
		st := arr.StateAt(0)
		if math.IsNaN(st.V) || math.IsInf(st.V, 0) || math.IsNaN(st.U) || math.IsInf(st.U, 0) {
			t.Fatalf("state went non-finite at tick %d: v=%f u=%f", tick, st.V, st.U)
		}
	}
}
