package integrate

import "github.com/san-kum/trajopt/internal/dynamics"

// Rollout simulates the system from x0 applying one input column per step,
// each held for duration dts[k]. It returns len(inputs)+1 state samples and
// the matching sample times.
func Rollout(sys dynamics.System, x0 dynamics.State, inputs [][]float64, dts []float64) (states [][]float64, times []float64) {
	integ := NewRK4()

	x := make(dynamics.State, len(x0))
	copy(x, x0)

	t := 0.0
	states = append(states, append([]float64(nil), x...))
	times = append(times, t)

	for k, u := range inputs {
		x = integ.Step(sys, x, dynamics.Control(u), t, dts[k])
		t += dts[k]
		states = append(states, append([]float64(nil), x...))
		times = append(times, t)
	}
	return states, times
}
