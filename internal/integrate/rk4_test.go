package integrate

import (
	"math"
	"testing"

	"github.com/san-kum/trajopt/internal/dynamics"
)

type harmonicOscillator struct{}

func (harmonicOscillator) StateDim() int   { return 2 }
func (harmonicOscillator) ControlDim() int { return 0 }
func (harmonicOscillator) Derive(x dynamics.State, u dynamics.Control, t float64) dynamics.State {
	return dynamics.State{x[1], -x[0]}
}

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	x := dynamics.State{1.0, 0.0}
	u := dynamics.Control{}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(harmonicOscillator{}, x, u, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRolloutShapes(t *testing.T) {
	di := dynamics.NewDoubleIntegrator()

	inputs := [][]float64{{1}, {1}, {-1}, {-1}}
	dts := []float64{0.1, 0.1, 0.1, 0.1}
	states, times := Rollout(di, dynamics.State{0, 0}, inputs, dts)

	if len(states) != 5 || len(times) != 5 {
		t.Fatalf("expected 5 samples, got %d states, %d times", len(states), len(times))
	}
	if math.Abs(times[4]-0.4) > 1e-12 {
		t.Errorf("final time = %g, want 0.4", times[4])
	}
	// symmetric bang-bang brings velocity back to zero
	if math.Abs(states[4][1]) > 1e-9 {
		t.Errorf("final velocity = %g, want 0", states[4][1])
	}
}
