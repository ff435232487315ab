package ocp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/trajopt/internal/autodiff"
	"github.com/san-kum/trajopt/internal/dynamics"
	"github.com/san-kum/trajopt/internal/optimize"
)

func doubleIntegrator(t autodiff.Variable, x, u autodiff.VariableMatrix, dt autodiff.Variable) autodiff.VariableMatrix {
	return autodiff.VectorOf(x.AtVec(1), u.AtVec(0))
}

func TestDoubleIntegratorDirectTranscription(t *testing.T) {
	const steps = 40
	p := NewProblem(2, 1, steps, 0.1, doubleIntegrator,
		ExplicitODE, DirectTranscription, TimestepFixed)
	defer p.Close()

	p.ConstrainInitialState([]float64{0, 0})
	p.ConstrainFinalState([]float64{1, 0})

	cost := p.Constant(0)
	p.ForEachStep(func(tm autodiff.Variable, x, u autodiff.VariableMatrix, dt autodiff.Variable) {
		cost = cost.Add(u.AtVec(0).Square())
	})
	p.Minimize(cost)

	status := p.Solve(optimize.DefaultOptions())

	assert.Equal(t, optimize.Converged, status.ExitCondition)
	assert.Equal(t, autodiff.KindQuadratic, status.CostFunctionType)
	// RK4 of linear dynamics with a fixed step stays linear
	assert.Equal(t, autodiff.KindLinear, status.EqualityConstraintType)

	final := p.FinalState()
	assert.InDelta(t, 1.0, final.Value(0, 0), 1e-4)
	assert.InDelta(t, 0.0, final.Value(1, 0), 1e-4)
}

func TestDoubleIntegratorDirectCollocation(t *testing.T) {
	const steps = 30
	p := NewProblem(2, 1, steps, 0.1, doubleIntegrator,
		ExplicitODE, DirectCollocation, TimestepFixed)
	defer p.Close()

	p.ConstrainInitialState([]float64{0, 0})
	p.ConstrainFinalState([]float64{1, 0})

	cost := p.Constant(0)
	p.ForEachStep(func(tm autodiff.Variable, x, u autodiff.VariableMatrix, dt autodiff.Variable) {
		cost = cost.Add(u.AtVec(0).Square())
	})
	p.Minimize(cost)

	status := p.Solve(optimize.DefaultOptions())

	assert.Equal(t, optimize.Converged, status.ExitCondition)
	assert.Equal(t, autodiff.KindLinear, status.EqualityConstraintType)

	final := p.FinalState()
	assert.InDelta(t, 1.0, final.Value(0, 0), 1e-4)
	assert.InDelta(t, 0.0, final.Value(1, 0), 1e-4)
}

func TestDiscreteDynamics(t *testing.T) {
	const steps = 20
	dyn := func(tm autodiff.Variable, x, u autodiff.VariableMatrix, dt autodiff.Variable) autodiff.VariableMatrix {
		return autodiff.VectorOf(x.AtVec(0).Scale(0.9).Add(u.AtVec(0).Scale(0.1)))
	}
	p := NewProblem(1, 1, steps, 0.02, dyn, Discrete, DirectTranscription, TimestepFixed)
	defer p.Close()

	p.ConstrainInitialState([]float64{0})
	p.ConstrainFinalState([]float64{1})

	cost := p.Constant(0)
	p.ForEachStep(func(tm autodiff.Variable, x, u autodiff.VariableMatrix, dt autodiff.Variable) {
		cost = cost.Add(u.AtVec(0).Square())
	})
	p.Minimize(cost)

	status := p.Solve(optimize.DefaultOptions())

	assert.Equal(t, optimize.Converged, status.ExitCondition)
	assert.Equal(t, autodiff.KindLinear, status.EqualityConstraintType)
	assert.InDelta(t, 1.0, p.FinalState().Value(0, 0), 1e-4)
}

func TestCartPoleSwingUpCollocation(t *testing.T) {
	const (
		steps = 100
		dt    = 0.05
		uMax  = 20.0
		dMax  = 2.0
	)

	cp := dynamics.NewCartPole()
	dyn := func(tm autodiff.Variable, x, u autodiff.VariableMatrix, dtv autodiff.Variable) autodiff.VariableMatrix {
		return cp.DeriveExpr(tm, x, u)
	}

	p := NewProblem(4, 1, steps, dt, dyn, ExplicitODE, DirectCollocation, TimestepFixed)
	defer p.Close()

	xInitial := []float64{0, 0, 0, 0}
	xFinal := []float64{1, 0, math.Pi, 0}
	p.ConstrainInitialState(xInitial)
	p.ConstrainFinalState(xFinal)

	// linear interpolation initial guess between the endpoints
	for k := 1; k < steps; k++ {
		frac := float64(k) / steps
		for i := 0; i < 4; i++ {
			p.X().SetValue(i, k, xInitial[i]+frac*(xFinal[i]-xInitial[i]))
		}
	}

	p.SetLowerInputBound(-uMax)
	p.SetUpperInputBound(uMax)
	p.SubjectTo(p.X().Row(0).AtLeast(-dMax))
	p.SubjectTo(p.X().Row(0).AtMost(dMax))

	cost := p.Constant(0)
	p.ForEachStep(func(tm autodiff.Variable, x, u autodiff.VariableMatrix, dtv autodiff.Variable) {
		cost = cost.Add(u.AtVec(0).Square())
	})
	p.Minimize(cost)

	status := p.Solve(optimize.Options{MaxIterations: 20})

	assert.Equal(t, autodiff.KindQuadratic, status.CostFunctionType)
	assert.Equal(t, autodiff.KindNonlinear, status.EqualityConstraintType)
	assert.Equal(t, autodiff.KindLinear, status.InequalityConstraintType)

	// the pinned boundary columns hold whether or not the iteration budget
	// was enough to converge
	for i := 0; i < 4; i++ {
		assert.InDelta(t, xInitial[i], p.InitialState().Value(i, 0), 1e-8)
		assert.InDelta(t, xFinal[i], p.FinalState().Value(i, 0), 1e-8)
	}
}

func TestForEachStepProvidesStageContext(t *testing.T) {
	const (
		steps = 5
		dt    = 0.1
	)
	p := NewProblem(2, 1, steps, dt, doubleIntegrator,
		ExplicitODE, DirectTranscription, TimestepFixed)
	defer p.Close()

	calls := 0
	p.ForEachStep(func(tm autodiff.Variable, x, u autodiff.VariableMatrix, dtv autodiff.Variable) {
		assert.InDelta(t, float64(calls)*dt, tm.Value(), 1e-12)
		assert.InDelta(t, dt, dtv.Value(), 1e-15)
		assert.Equal(t, 2, x.Rows())
		assert.Equal(t, 1, u.Rows())
		calls++
	})
	assert.Equal(t, steps, calls)
}

func TestVariableTimestepDeclaresDecision(t *testing.T) {
	p := NewProblem(2, 1, 10, 0.1, doubleIntegrator,
		ExplicitODE, DirectTranscription, TimestepVariableSingle)
	defer p.Close()

	dt := p.DT().At(0, 0)
	assert.Equal(t, autodiff.KindLinear, dt.Kind())
	assert.GreaterOrEqual(t, dt.Row(), 0)
	assert.InDelta(t, 0.1, dt.Value(), 1e-15)

	// one shared duration across all steps
	assert.Equal(t, dt.Row(), p.DT().At(0, 9).Row())

	// variable steps make the defects nonlinear
	status := p.Solve(optimize.Options{MaxIterations: 1})
	assert.Equal(t, autodiff.KindNonlinear, status.EqualityConstraintType)
}

func TestPerStepTimestepsAreIndependent(t *testing.T) {
	p := NewProblem(2, 1, 5, 0.1, doubleIntegrator,
		ExplicitODE, DirectTranscription, TimestepVariablePerStep)
	defer p.Close()

	rows := map[int]bool{}
	for k := 0; k < 5; k++ {
		rows[p.DT().At(0, k).Row()] = true
	}
	assert.Len(t, rows, 5)
}

func TestCollocationRequiresExplicitODE(t *testing.T) {
	assert.Panics(t, func() {
		NewProblem(1, 1, 3, 0.1,
			func(tm autodiff.Variable, x, u autodiff.VariableMatrix, dt autodiff.Variable) autodiff.VariableMatrix {
				return x
			},
			Discrete, DirectCollocation, TimestepFixed)
	})
}
