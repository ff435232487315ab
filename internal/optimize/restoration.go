package optimize

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type restorationOutcome int

const (
	restorationRestored restorationOutcome = iota
	restorationInfeasible
	restorationFailed
)

const restorationMaxIterations = 60

// restore runs a Levenberg-Marquardt pass on half the squared constraint
// violation, starting from the current iterate. It distinguishes a point
// where the violation is stationary but nonzero (locally infeasible) from a
// pass that simply made no progress.
func (s *solver) restore() restorationOutcome {
	x := append([]float64(nil), s.x...)
	thetaEnter := s.violationAt(x)
	if thetaEnter <= s.opts.Tolerance {
		// the line search stalled at a feasible point; feasibility
		// restoration has nothing to work on
		return restorationFailed
	}

	lambda := 1e-4
	for iter := 0; iter < restorationMaxIterations; iter++ {
		r, jac := s.violationResiduals(x)

		grad := make([]float64, s.n)
		for i := range r {
			for c := 0; c < s.n; c++ {
				grad[c] += jac[i][c] * r[i]
			}
		}
		v := 0.0
		for _, ri := range r {
			v += 0.5 * ri * ri
		}
		vinf := infNorm(r)

		if vinf <= s.opts.Tolerance {
			s.adoptRestored(x)
			return restorationRestored
		}
		if infNorm(grad) <= s.opts.Tolerance*math.Max(1, vinf) {
			return restorationInfeasible
		}
		if vinf <= 0.1*thetaEnter {
			s.adoptRestored(x)
			return restorationRestored
		}

		improved := false
		for try := 0; try < 12; try++ {
			normal := mat.NewSymDense(s.n, nil)
			for a := 0; a < s.n; a++ {
				for b := a; b < s.n; b++ {
					var sum float64
					for i := range r {
						sum += jac[i][a] * jac[i][b]
					}
					if a == b {
						sum += lambda
					}
					normal.SetSym(a, b, sum)
				}
			}

			var chol mat.Cholesky
			if !chol.Factorize(normal) {
				lambda *= 10
				continue
			}
			rhs := mat.NewVecDense(s.n, nil)
			for c := 0; c < s.n; c++ {
				rhs.SetVec(c, -grad[c])
			}
			d := mat.NewVecDense(s.n, nil)
			if err := chol.SolveVecTo(d, rhs); err != nil {
				lambda *= 10
				continue
			}

			trial := make([]float64, s.n)
			for c := range trial {
				trial[c] = x[c] + d.AtVec(c)
			}
			if s.violationSqAt(trial) < v {
				x = trial
				lambda = math.Max(lambda/10, 1e-10)
				improved = true
				break
			}
			lambda *= 10
		}
		if !improved {
			return restorationFailed
		}
	}

	if s.violationAt(x) < thetaEnter {
		s.adoptRestored(x)
		return restorationRestored
	}
	return restorationFailed
}

// violationResiduals evaluates the constraint residual vector at x: every
// equality, plus each inequality that is currently violated. jac rows line
// up with the residual entries.
func (s *solver) violationResiduals(x []float64) (r []float64, jac [][]float64) {
	s.setDecision(x)
	s.evalConstraints()
	ae := s.denseJacobian(s.jacE, s.me)
	ai := s.denseJacobian(s.jacI, s.mi)

	for i := 0; i < s.me; i++ {
		r = append(r, s.ce[i])
		jac = append(jac, ae[i])
	}
	for j := 0; j < s.mi; j++ {
		if s.ci[j] < 0 {
			r = append(r, s.ci[j])
			jac = append(jac, ai[j])
		}
	}
	return r, jac
}

func (s *solver) violationAt(x []float64) float64 {
	r, _ := s.violationResiduals(x)
	return infNorm(r)
}

func (s *solver) violationSqAt(x []float64) float64 {
	r, _ := s.violationResiduals(x)
	v := 0.0
	for _, ri := range r {
		v += 0.5 * ri * ri
	}
	return v
}

// adoptRestored moves the iterate to the restored point and reinitializes
// the slacks, bound multipliers, and filter around it.
func (s *solver) adoptRestored(x []float64) {
	copy(s.x, x)
	s.setDecision(s.x)
	s.evalConstraints()
	for j := range s.s {
		s.s[j] = math.Max(s.ci[j], 1e-4)
		s.z[j] = s.mu / s.s[j]
	}
	for i := range s.y {
		s.y[i] = 0
	}
	s.filt.reset(s.theta())
}
