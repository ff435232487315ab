package ocp

import "github.com/san-kum/trajopt/internal/autodiff"

// RK4 advances the state one step with a fourth-order Runge-Kutta stage
// built from expressions.
func RK4(f DynamicsFunc, t autodiff.Variable, x, u autodiff.VariableMatrix, dt autodiff.Variable) autodiff.VariableMatrix {
	half := dt.Scale(0.5)
	k1 := f(t, x, u, dt)
	k2 := f(t.Add(half), x.Add(k1.ScaleVar(half)), u, dt)
	k3 := f(t.Add(half), x.Add(k2.ScaleVar(half)), u, dt)
	k4 := f(t.Add(dt), x.Add(k3.ScaleVar(dt)), u, dt)
	sum := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4)
	return x.Add(sum.ScaleVar(dt.Scale(1.0 / 6.0)))
}
