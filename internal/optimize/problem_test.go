package optimize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/trajopt/internal/autodiff"
)

func TestUnconstrainedQuadratic(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	y := p.DecisionVariable()
	p.Minimize(x.Shift(-2).Square().Add(y.Shift(1).Square()))

	status := p.Solve(DefaultOptions())

	assert.Equal(t, Converged, status.ExitCondition)
	assert.Equal(t, autodiff.KindQuadratic, status.CostFunctionType)
	assert.InDelta(t, 2.0, x.Value(), 1e-6)
	assert.InDelta(t, -1.0, y.Value(), 1e-6)
	assert.InDelta(t, 0.0, status.Cost, 1e-9)
}

func TestEqualityConstrainedQP(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	y := p.DecisionVariable()
	p.Minimize(x.Square().Add(y.Square()))
	p.SubjectTo(x.Add(y).Equals(2))

	status := p.Solve(DefaultOptions())

	assert.Equal(t, Converged, status.ExitCondition)
	assert.Equal(t, autodiff.KindLinear, status.EqualityConstraintType)
	assert.InDelta(t, 1.0, x.Value(), 1e-6)
	assert.InDelta(t, 1.0, y.Value(), 1e-6)
}

func TestActiveInequality(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	p.Minimize(x.Shift(-3).Square())
	p.SubjectTo(x.AtMost(1))

	status := p.Solve(DefaultOptions())

	assert.Equal(t, Converged, status.ExitCondition)
	assert.Equal(t, autodiff.KindLinear, status.InequalityConstraintType)
	assert.InDelta(t, 1.0, x.Value(), 1e-4)
	assert.InDelta(t, 4.0, status.Cost, 1e-3)
}

func TestInactiveInequality(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	require.NoError(t, x.SetValue(5))
	p.Minimize(x.Shift(-3).Square())
	p.SubjectTo(x.AtLeast(-10))

	status := p.Solve(DefaultOptions())

	assert.Equal(t, Converged, status.ExitCondition)
	assert.InDelta(t, 3.0, x.Value(), 1e-4)
}

func TestMaximize(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	p.Maximize(x.Shift(-3).Square().Neg())

	status := p.Solve(DefaultOptions())

	assert.Equal(t, Converged, status.ExitCondition)
	assert.InDelta(t, 3.0, x.Value(), 1e-6)
}

func TestRosenbrock(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	y := p.DecisionVariable()
	require.NoError(t, x.SetValue(-1.2))
	require.NoError(t, y.SetValue(1))

	a := x.Neg().Shift(1)
	b := y.Sub(x.Square())
	p.Minimize(a.Square().Add(b.Square().Scale(100)))

	status := p.Solve(DefaultOptions())

	assert.Equal(t, Converged, status.ExitCondition)
	assert.Equal(t, autodiff.KindNonlinear, status.CostFunctionType)
	assert.InDelta(t, 1.0, x.Value(), 1e-4)
	assert.InDelta(t, 1.0, y.Value(), 1e-4)
}

func TestContradictoryBoundsAreLocallyInfeasible(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	p.SubjectTo(x.AtLeast(1))
	p.SubjectTo(x.AtMost(0))

	status := p.Solve(DefaultOptions())
	assert.Equal(t, LocallyInfeasible, status.ExitCondition)
}

func TestTooFewDOFs(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	p.SubjectTo(x.Equals(1))
	p.SubjectTo(x.Scale(2).Equals(3))

	status := p.Solve(DefaultOptions())
	assert.Equal(t, TooFewDOFs, status.ExitCondition)
}

func TestMaxIterations(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	y := p.DecisionVariable()
	require.NoError(t, x.SetValue(-1.2))
	require.NoError(t, y.SetValue(1))
	a := x.Neg().Shift(1)
	b := y.Sub(x.Square())
	p.Minimize(a.Square().Add(b.Square().Scale(100)))

	status := p.Solve(Options{MaxIterations: 1})
	assert.Equal(t, MaxIterationsExceeded, status.ExitCondition)
	assert.Equal(t, 1, status.Iterations)
}

func TestTimeout(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	y := p.DecisionVariable()
	require.NoError(t, x.SetValue(-1.2))
	a := x.Neg().Shift(1)
	b := y.Sub(x.Square())
	p.Minimize(a.Square().Add(b.Square().Scale(100)))

	status := p.Solve(Options{Timeout: time.Nanosecond})
	assert.Equal(t, Timeout, status.ExitCondition)
}

func TestCallbackStopsSolve(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	y := p.DecisionVariable()
	require.NoError(t, x.SetValue(-1.2))
	a := x.Neg().Shift(1)
	b := y.Sub(x.Square())
	p.Minimize(a.Square().Add(b.Square().Scale(100)))

	calls := 0
	p.Callback(func(info IterationInfo) bool {
		calls++
		return true
	})

	status := p.Solve(DefaultOptions())
	assert.Equal(t, CallbackRequestedStop, status.ExitCondition)
	assert.Equal(t, 1, calls)
}

func TestStatusClassification(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	y := p.DecisionVariable()
	p.Minimize(x.Square().Add(y.Square()))
	p.SubjectTo(autodiff.Sin(x).EqualTo(y))
	p.SubjectTo(x.AtMost(10))

	status := p.Solve(Options{MaxIterations: 3})

	assert.Equal(t, autodiff.KindQuadratic, status.CostFunctionType)
	assert.Equal(t, autodiff.KindNonlinear, status.EqualityConstraintType)
	assert.Equal(t, autodiff.KindLinear, status.InequalityConstraintType)
}

func TestDivergingIterates(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	// unbounded below with a huge slope, so the iterate blows past the
	// divergence limit almost immediately
	x := p.DecisionVariable()
	p.Minimize(x.Scale(1e30))

	status := p.Solve(DefaultOptions())
	assert.Equal(t, DivergingIterates, status.ExitCondition)
}

func TestLinearSolveFailed(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	// sqrt is NaN left of the origin, so every regularized factorization
	// produces a non-finite step
	x := p.DecisionVariable()
	require.NoError(t, x.SetValue(-1))
	p.Minimize(autodiff.Sqrt(x))

	status := p.Solve(DefaultOptions())
	assert.Equal(t, LinearSolveFailed, status.ExitCondition)
	assert.InDelta(t, -1.0, x.Value(), 1e-15)
}

func TestNoCostFeasibilityProblem(t *testing.T) {
	p := NewProblem()
	defer p.Close()

	x := p.DecisionVariable()
	p.SubjectTo(x.Equals(7))

	status := p.Solve(DefaultOptions())
	assert.Equal(t, Converged, status.ExitCondition)
	assert.Equal(t, autodiff.KindConstant, status.CostFunctionType)
	assert.InDelta(t, 7.0, x.Value(), 1e-6)
}
