package dynamics

import "github.com/san-kum/trajopt/internal/autodiff"

// DoubleIntegrator is a point mass driven by acceleration. State is
// [pos, vel].
type DoubleIntegrator struct{}

func NewDoubleIntegrator() *DoubleIntegrator { return &DoubleIntegrator{} }

func (d *DoubleIntegrator) StateDim() int { return 2 }

func (d *DoubleIntegrator) ControlDim() int { return 1 }

func (d *DoubleIntegrator) StateNames() []string { return []string{"pos", "vel"} }

func (d *DoubleIntegrator) Derive(x State, u Control, t float64) State {
	accel := 0.0
	if len(u) > 0 {
		accel = u[0]
	}
	return State{x[1], accel}
}

func (d *DoubleIntegrator) DeriveExpr(t autodiff.Variable, x, u autodiff.VariableMatrix) autodiff.VariableMatrix {
	return autodiff.VectorOf(x.AtVec(1), u.AtVec(0))
}
