package optimize

import "time"

// Options configures one Solve call. The zero value of a field means "use
// the default"; a zero Timeout means no wall-clock limit.
type Options struct {
	// Tolerance is the KKT error below which the solve is declared
	// converged. Default 1e-8.
	Tolerance float64
	// MaxIterations caps the outer iteration count. Default 1000.
	MaxIterations int
	// Timeout caps the wall-clock time. Zero disables the limit.
	Timeout time.Duration
	// Diagnostics prints a per-iteration table to stdout.
	Diagnostics bool
	// Callback runs after every iteration. Returning true stops the solve
	// with CallbackRequestedStop.
	Callback func(IterationInfo) bool
}

// DefaultOptions returns the default solver configuration.
func DefaultOptions() Options {
	return Options{
		Tolerance:     1e-8,
		MaxIterations: 1000,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	return o
}
