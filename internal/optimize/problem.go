// Package optimize solves sparse constrained nonlinear programs with a
// primal-dual interior-point method. Problems are modeled as expression
// graphs from the autodiff package; derivatives come from reverse-mode
// sweeps, so only the model itself has to be written down.
package optimize

import (
	"time"

	"github.com/san-kum/trajopt/internal/autodiff"
)

// Problem accumulates decision variables, a cost expression, and constraint
// sets, then hands them to the interior-point solver. A Problem owns its
// expression graph; Close releases the graph's nodes.
type Problem struct {
	graph    *autodiff.Graph
	cost     *autodiff.Variable
	eq       []autodiff.Variable
	ineq     []autodiff.Variable
	callback func(IterationInfo) bool
}

// NewProblem creates an empty problem with a private expression graph.
func NewProblem() *Problem {
	return &Problem{graph: autodiff.NewGraph()}
}

// Close releases the expression graph. Variables obtained from this problem
// are invalid afterwards.
func (p *Problem) Close() { p.graph.Close() }

// Graph exposes the underlying expression graph for callers that build
// expressions with the autodiff package directly.
func (p *Problem) Graph() *autodiff.Graph { return p.graph }

// DecisionVariable declares a scalar decision variable initialized to zero.
func (p *Problem) DecisionVariable() autodiff.Variable { return p.graph.Decision(0) }

// DecisionMatrix declares a rows x cols matrix of decision variables.
func (p *Problem) DecisionMatrix(rows, cols int) autodiff.VariableMatrix {
	return p.graph.DecisionMatrix(rows, cols)
}

// Constant wraps a float in a constant expression on this problem's graph.
func (p *Problem) Constant(v float64) autodiff.Variable { return p.graph.Constant(v) }

// Minimize declares the cost function. A later call replaces the previous
// cost.
func (p *Problem) Minimize(cost autodiff.Variable) { p.cost = &cost }

// Maximize declares an objective to maximize by minimizing its negation.
func (p *Problem) Maximize(objective autodiff.Variable) {
	neg := objective.Neg()
	p.cost = &neg
}

// SubjectTo adds a constraint set to the problem.
func (p *Problem) SubjectTo(c autodiff.Constraint) {
	switch c := c.(type) {
	case autodiff.EqualityConstraints:
		p.eq = append(p.eq, c.Exprs...)
	case autodiff.InequalityConstraints:
		p.ineq = append(p.ineq, c.Exprs...)
	}
}

// Callback registers a per-iteration callback; returning true stops the
// solve. A callback passed in Options takes precedence.
func (p *Problem) Callback(f func(IterationInfo) bool) { p.callback = f }

// Solve runs the interior-point method from the decision variables' current
// values and leaves the solution in them.
func (p *Problem) Solve(opts Options) Status {
	opts = opts.withDefaults()
	if opts.Callback == nil {
		opts.Callback = p.callback
	}

	start := time.Now()
	status := Status{
		CostFunctionType:         p.costKind(),
		EqualityConstraintType:   kindOf(p.eq),
		InequalityConstraintType: kindOf(p.ineq),
	}

	s := newSolver(p, opts)
	s.run(&status)

	status.Elapsed = time.Since(start)
	if p.cost != nil {
		status.Cost = p.cost.Value()
	}
	return status
}

func (p *Problem) costKind() autodiff.Kind {
	if p.cost == nil {
		return autodiff.KindConstant
	}
	return p.cost.Kind()
}

func kindOf(exprs []autodiff.Variable) autodiff.Kind {
	k := autodiff.KindConstant
	for _, e := range exprs {
		if e.Kind() > k {
			k = e.Kind()
		}
	}
	return k
}
