package optimize

import (
	"time"

	"github.com/san-kum/trajopt/internal/autodiff"
)

// ExitCondition says how a solve ended. Anything but Converged means the
// returned iterate is the best known point, not a verified optimum; no exit
// path is ever reported as success implicitly.
type ExitCondition int

const (
	// Converged means the KKT error dropped below tolerance.
	Converged ExitCondition = iota
	// MaxIterationsExceeded means the iteration budget ran out.
	MaxIterationsExceeded
	// Timeout means the wall-clock budget ran out.
	Timeout
	// LocallyInfeasible means the constraint violation has a nonzero local
	// minimum; no feasible point exists near the iterate.
	LocallyInfeasible
	// FeasibilityRestorationFailed means the restoration phase could not
	// reduce the constraint violation.
	FeasibilityRestorationFailed
	// DivergingIterates means the iterate grew without bound.
	DivergingIterates
	// CallbackRequestedStop means the user callback asked to stop.
	CallbackRequestedStop
	// TooFewDOFs means there are more equality constraints than decision
	// variables.
	TooFewDOFs
	// LinearSolveFailed means the KKT system stayed singular through every
	// regularization retry.
	LinearSolveFailed
)

func (e ExitCondition) String() string {
	switch e {
	case Converged:
		return "converged"
	case MaxIterationsExceeded:
		return "max iterations exceeded"
	case Timeout:
		return "timeout"
	case LocallyInfeasible:
		return "locally infeasible"
	case FeasibilityRestorationFailed:
		return "feasibility restoration failed"
	case DivergingIterates:
		return "diverging iterates"
	case CallbackRequestedStop:
		return "callback requested stop"
	case TooFewDOFs:
		return "too few degrees of freedom"
	case LinearSolveFailed:
		return "linear solve failed"
	default:
		return "unknown"
	}
}

// Status is the result record of one Solve call.
type Status struct {
	CostFunctionType         autodiff.Kind
	EqualityConstraintType   autodiff.Kind
	InequalityConstraintType autodiff.Kind
	ExitCondition            ExitCondition
	Cost                     float64
	Infeasibility            float64
	Iterations               int
	Elapsed                  time.Duration
}

// IterationInfo is the per-iteration snapshot passed to callbacks.
type IterationInfo struct {
	Iteration     int
	Cost          float64
	Infeasibility float64
	KKTError      float64
	Barrier       float64
	StepSize      float64
}
