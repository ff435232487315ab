// Package dynamics provides the system models available for trajectory
// optimization. Each model exposes its dynamics twice: in float64 form for
// simulation and verification, and in expression form for transcription.
package dynamics

import (
	"fmt"
	"sort"

	"github.com/san-kum/trajopt/internal/autodiff"
)

// State is a dense state vector.
type State []float64

// Control is a dense input vector.
type Control []float64

// System is a continuous-time dynamical system.
type System interface {
	StateDim() int
	ControlDim() int
	Derive(x State, u Control, t float64) State
}

// ExpressionSystem additionally builds its dynamics as autodiff expressions,
// with x and u as column matrices.
type ExpressionSystem interface {
	System
	DeriveExpr(t autodiff.Variable, x, u autodiff.VariableMatrix) autodiff.VariableMatrix
}

// StateNamer names state components for plots and exports.
type StateNamer interface {
	StateNames() []string
}

var registry = map[string]func() ExpressionSystem{
	"cartpole":          func() ExpressionSystem { return NewCartPole() },
	"pendulum":          func() ExpressionSystem { return NewPendulum() },
	"double_integrator": func() ExpressionSystem { return NewDoubleIntegrator() },
}

// Get returns a fresh instance of the named model.
func Get(name string) (ExpressionSystem, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("dynamics: unknown model: %s", name)
	}
	return ctor(), nil
}

// Models lists the registered model names in sorted order.
func Models() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
