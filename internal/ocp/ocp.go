// Package ocp transcribes optimal-control problems into nonlinear programs.
//
// A problem holds a state trajectory X (states x steps+1), an input
// trajectory U (inputs x steps), and per-step timesteps. The dynamics are
// enforced as equality constraints between consecutive state columns, built
// either by integrating an explicit ODE or by applying a discrete update
// directly.
package ocp

import (
	"github.com/san-kum/trajopt/internal/autodiff"
	"github.com/san-kum/trajopt/internal/optimize"
)

// DynamicsType says how the dynamics function is interpreted.
type DynamicsType int

const (
	// ExplicitODE means the dynamics return dx/dt.
	ExplicitODE DynamicsType = iota
	// Discrete means the dynamics return the next state directly.
	Discrete
)

// TimestepMethod says how step durations are treated.
type TimestepMethod int

const (
	// TimestepFixed holds every step at the nominal duration.
	TimestepFixed TimestepMethod = iota
	// TimestepVariableSingle makes one shared duration a decision variable.
	TimestepVariableSingle
	// TimestepVariablePerStep gives every step its own duration decision
	// variable.
	TimestepVariablePerStep
)

// TranscriptionMethod says how the dynamics constraints are generated.
type TranscriptionMethod int

const (
	// DirectTranscription integrates each step with a single RK4 stage.
	DirectTranscription TranscriptionMethod = iota
	// DirectCollocation enforces Hermite-Simpson defects on a cubic state
	// interpolant. Requires ExplicitODE dynamics.
	DirectCollocation
)

// DynamicsFunc builds the dynamics as expressions at time t for state column
// x and input column u. dt is the step duration, which discrete dynamics may
// fold into their update.
type DynamicsFunc func(t autodiff.Variable, x, u autodiff.VariableMatrix, dt autodiff.Variable) autodiff.VariableMatrix

// minTimestep keeps variable step durations strictly positive.
const minTimestep = 1e-9

// Problem is an optimal-control problem being transcribed onto an
// optimization problem. The embedded problem's Minimize, SubjectTo, and
// Solve operate on the same decision variables as X, U, and DT.
type Problem struct {
	*optimize.Problem

	states, inputs, steps int
	nominalDT             float64

	dynamics       DynamicsFunc
	dynamicsType   DynamicsType
	transcription  TranscriptionMethod
	timestepMethod TimestepMethod

	x     autodiff.VariableMatrix
	u     autodiff.VariableMatrix
	dt    autodiff.VariableMatrix
	times []autodiff.Variable
}

// NewProblem declares the trajectory decision variables and the dynamics
// constraints for every step. dt is the nominal step duration in seconds.
func NewProblem(states, inputs, steps int, dt float64, dynamics DynamicsFunc,
	dynamicsType DynamicsType, transcription TranscriptionMethod,
	timestepMethod TimestepMethod) *Problem {

	if transcription == DirectCollocation && dynamicsType != ExplicitODE {
		panic("ocp: direct collocation requires explicit ODE dynamics")
	}

	p := &Problem{
		Problem:        optimize.NewProblem(),
		states:         states,
		inputs:         inputs,
		steps:          steps,
		nominalDT:      dt,
		dynamics:       dynamics,
		dynamicsType:   dynamicsType,
		transcription:  transcription,
		timestepMethod: timestepMethod,
	}
	p.x = p.DecisionMatrix(states, steps+1)
	p.u = p.DecisionMatrix(inputs, steps)
	p.dt = p.buildTimesteps()
	p.constrainTranscription()
	return p
}

// X returns the state trajectory, one column per sample point.
func (p *Problem) X() autodiff.VariableMatrix { return p.x }

// U returns the input trajectory, one column per step.
func (p *Problem) U() autodiff.VariableMatrix { return p.u }

// DT returns the step durations as a 1 x steps matrix.
func (p *Problem) DT() autodiff.VariableMatrix { return p.dt }

// InitialState returns the first state column.
func (p *Problem) InitialState() autodiff.VariableMatrix { return p.x.Col(0) }

// FinalState returns the last state column.
func (p *Problem) FinalState() autodiff.VariableMatrix { return p.x.Col(p.steps) }

// ConstrainInitialState pins the first state column and seeds its initial
// guess.
func (p *Problem) ConstrainInitialState(vals []float64) {
	p.SubjectTo(p.InitialState().EqualToValues(vals))
	for i, v := range vals {
		p.x.SetValue(i, 0, v)
	}
}

// ConstrainFinalState pins the last state column and seeds its initial
// guess.
func (p *Problem) ConstrainFinalState(vals []float64) {
	p.SubjectTo(p.FinalState().EqualToValues(vals))
	for i, v := range vals {
		p.x.SetValue(i, p.steps, v)
	}
}

// ForEachStep calls fn with each step's start time, state and input columns,
// and duration, for adding running costs or path constraints. The time
// expression is the same cumulative sum the dynamics constraints use, so
// time-dependent constraints stay consistent with variable timesteps.
func (p *Problem) ForEachStep(fn func(t autodiff.Variable, x, u autodiff.VariableMatrix, dt autodiff.Variable)) {
	for k := 0; k < p.steps; k++ {
		fn(p.times[k], p.x.Col(k), p.u.Col(k), p.dt.At(0, k))
	}
}

// SetLowerInputBound bounds every input element from below.
func (p *Problem) SetLowerInputBound(lb float64) { p.SubjectTo(p.u.AtLeast(lb)) }

// SetUpperInputBound bounds every input element from above.
func (p *Problem) SetUpperInputBound(ub float64) { p.SubjectTo(p.u.AtMost(ub)) }

// SetLowerInputBounds bounds each input row from below.
func (p *Problem) SetLowerInputBounds(lb []float64) {
	for r, v := range lb {
		p.SubjectTo(p.u.Row(r).AtLeast(v))
	}
}

// SetUpperInputBounds bounds each input row from above.
func (p *Problem) SetUpperInputBounds(ub []float64) {
	for r, v := range ub {
		p.SubjectTo(p.u.Row(r).AtMost(v))
	}
}

func (p *Problem) buildTimesteps() autodiff.VariableMatrix {
	g := p.Graph()
	m := g.ZeroMatrix(1, p.steps)
	switch p.timestepMethod {
	case TimestepVariableSingle:
		dt := g.Decision(p.nominalDT)
		p.SubjectTo(dt.AtLeast(minTimestep))
		for k := 0; k < p.steps; k++ {
			m.Set(0, k, dt)
		}
	case TimestepVariablePerStep:
		for k := 0; k < p.steps; k++ {
			dt := g.Decision(p.nominalDT)
			p.SubjectTo(dt.AtLeast(minTimestep))
			m.Set(0, k, dt)
		}
	default:
		for k := 0; k < p.steps; k++ {
			m.Set(0, k, g.Constant(p.nominalDT))
		}
	}
	return m
}

func (p *Problem) constrainTranscription() {
	t := p.Graph().Constant(0)
	p.times = make([]autodiff.Variable, p.steps)
	for k := 0; k < p.steps; k++ {
		p.times[k] = t
		dt := p.dt.At(0, k)
		switch {
		case p.dynamicsType == Discrete:
			next := p.dynamics(t, p.x.Col(k), p.u.Col(k), dt)
			p.SubjectTo(p.x.Col(k + 1).EqualTo(next))
		case p.transcription == DirectCollocation:
			p.constrainCollocation(t, k)
		default:
			next := RK4(p.dynamics, t, p.x.Col(k), p.u.Col(k), dt)
			p.SubjectTo(p.x.Col(k + 1).EqualTo(next))
		}
		t = t.Add(dt)
	}
}

// constrainCollocation adds a Hermite-Simpson defect for step k: the cubic
// interpolant's midpoint slope must agree with the dynamics there.
func (p *Problem) constrainCollocation(t autodiff.Variable, k int) {
	dt := p.dt.At(0, k)
	xk := p.x.Col(k)
	xn := p.x.Col(k + 1)
	uk := p.u.Col(k)
	un := uk
	if k+1 < p.steps {
		un = p.u.Col(k + 1)
	}

	fk := p.dynamics(t, xk, uk, dt)
	fn := p.dynamics(t.Add(dt), xn, un, dt)

	xc := xk.Add(xn).Scale(0.5).Add(fk.Sub(fn).ScaleVar(dt.Scale(1.0 / 8.0)))
	fc := p.dynamics(t.Add(dt.Scale(0.5)), xc, uk, dt)

	step := fk.Add(fc.Scale(4)).Add(fn).ScaleVar(dt.Scale(1.0 / 6.0))
	p.SubjectTo(xn.EqualTo(xk.Add(step)))
}
