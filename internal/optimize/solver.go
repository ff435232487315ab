package optimize

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/autodiff"
)

const (
	divergenceLimit       = 1e20
	minStepSize           = 1e-12
	fractionToBoundaryMin = 0.99
	maxStepAttempts       = 6
	maxRestorations       = 5
)

// solver holds the interior-point iterate and the persistent derivative
// objects built once per Solve call. Inequalities carry slacks s > 0 with
// ci(x) - s = 0, equalities carry multipliers y, and the bound z > 0 pairs
// with s through the barrier parameter mu.
type solver struct {
	p    *Problem
	opts Options

	dec       []autodiff.Variable
	n, me, mi int

	cost autodiff.Variable

	// multiplier parameter leaves inside the Lagrangian graph
	yp, zp []autodiff.Variable

	gradF    *autodiff.Gradient
	hessL    *autodiff.Hessian
	jacE     *autodiff.Jacobian
	jacI     *autodiff.Jacobian
	evalCost *autodiff.Evaluator
	evalE    *autodiff.Evaluator
	evalI    *autodiff.Evaluator

	x, s, y, z []float64
	ce, ci     []float64

	mu, tau float64
	filt    *stepFilter
	start   time.Time
}

func newSolver(p *Problem, opts Options) *solver {
	s := &solver{
		p:    p,
		opts: opts,
		dec:  p.graph.DecisionVariables(),
	}
	s.n = len(s.dec)
	s.me = len(p.eq)
	s.mi = len(p.ineq)

	if p.cost != nil {
		s.cost = *p.cost
	} else {
		s.cost = p.graph.Constant(0)
	}

	// Lagrangian with multipliers as mutable parameter leaves, so the same
	// Hessian graph is re-evaluated as the multipliers move.
	lag := s.cost
	s.yp = make([]autodiff.Variable, s.me)
	for i, c := range p.eq {
		s.yp[i] = p.graph.Parameter(0)
		lag = lag.Sub(s.yp[i].Mul(c))
	}
	s.zp = make([]autodiff.Variable, s.mi)
	for i, c := range p.ineq {
		s.zp[i] = p.graph.Parameter(1)
		lag = lag.Sub(s.zp[i].Mul(c))
	}

	s.gradF = autodiff.NewGradient(s.cost, s.dec)
	s.hessL = autodiff.NewHessian(lag, s.dec)
	s.jacE = autodiff.NewJacobian(p.eq, s.dec)
	s.jacI = autodiff.NewJacobian(p.ineq, s.dec)
	s.evalCost = autodiff.NewEvaluator([]autodiff.Variable{s.cost})
	s.evalE = autodiff.NewEvaluator(p.eq)
	s.evalI = autodiff.NewEvaluator(p.ineq)

	s.x = make([]float64, s.n)
	for i, v := range s.dec {
		s.x[i] = v.Value()
	}
	s.s = make([]float64, s.mi)
	s.y = make([]float64, s.me)
	s.z = make([]float64, s.mi)
	s.ce = make([]float64, s.me)
	s.ci = make([]float64, s.mi)

	s.mu = 0.1
	s.tau = fractionToBoundaryMin
	s.filt = newStepFilter()
	return s
}

func (s *solver) run(st *Status) {
	s.start = time.Now()

	if s.me > s.n {
		st.ExitCondition = TooFewDOFs
		return
	}

	s.setDecision(s.x)
	s.evalConstraints()
	if s.n == 0 {
		if s.theta() <= s.opts.Tolerance {
			st.ExitCondition = Converged
		} else {
			st.ExitCondition = LocallyInfeasible
		}
		return
	}

	for j := range s.s {
		s.s[j] = math.Max(s.ci[j], 1e-4)
		s.z[j] = 1
	}
	s.filt.reset(s.theta())

	restorations := 0
	for iter := 0; iter < s.opts.MaxIterations; iter++ {
		st.Iterations = iter

		if s.opts.Timeout > 0 && time.Since(s.start) > s.opts.Timeout {
			st.ExitCondition = Timeout
			return
		}

		s.setDecision(s.x)
		s.setMultipliers()
		s.evalConstraints()

		g := s.gradVec()
		ae := s.denseJacobian(s.jacE, s.me)
		ai := s.denseJacobian(s.jacI, s.mi)

		kktErr := s.kktError(g, ae, ai, 0)
		st.Infeasibility = s.theta()
		if kktErr <= s.opts.Tolerance {
			st.ExitCondition = Converged
			return
		}

		// tighten the barrier once the inner problem is solved well enough
		for s.mi > 0 && s.mu > s.opts.Tolerance/10 &&
			s.kktError(g, ae, ai, s.mu) <= 10*s.mu {
			s.mu = math.Max(s.opts.Tolerance/10,
				math.Min(0.2*s.mu, math.Pow(s.mu, 1.5)))
			s.tau = math.Max(fractionToBoundaryMin, 1-s.mu)
			s.filt.reset(s.theta())
		}

		s.filt.add(s.theta(), s.phi())

		var dx, ds, dy, dz []float64
		var alpha, alphaZ float64
		accepted := false
		delta := 0.0
		for attempt := 0; attempt < maxStepAttempts && !accepted; attempt++ {
			kkt, rhs := s.assemble(g, ae, ai, delta)
			sol, ok := solveRegularized(kkt, rhs, s.n, s.me, s.mu)
			if !ok {
				st.ExitCondition = LinearSolveFailed
				s.setDecision(s.x)
				return
			}
			dx, dy, ds, dz = s.extractStep(sol, ai)

			alphaMax := 1.0
			for j := range ds {
				if ds[j] < 0 {
					alphaMax = math.Min(alphaMax, -s.tau*s.s[j]/ds[j])
				}
			}
			alphaZ = 1.0
			for j := range dz {
				if dz[j] < 0 {
					alphaZ = math.Min(alphaZ, -s.tau*s.z[j]/dz[j])
				}
			}

			alpha, accepted = s.lineSearch(dx, ds, alphaMax)
			if !accepted {
				// the step may be uphill everywhere; pull it toward
				// gradient descent and try again
				if delta == 0 {
					delta = 1e-4
				} else {
					delta *= 100
				}
			}
		}

		stalled := accepted &&
			alpha*math.Max(infNorm(dx), infNorm(ds)) < 1e-10 &&
			s.theta() > math.Sqrt(s.opts.Tolerance)

		if !accepted || stalled {
			restorations++
			if restorations > maxRestorations {
				st.ExitCondition = FeasibilityRestorationFailed
				s.setDecision(s.x)
				return
			}
			switch s.restore() {
			case restorationRestored:
				continue
			case restorationInfeasible:
				st.ExitCondition = LocallyInfeasible
				s.setDecision(s.x)
				return
			default:
				st.ExitCondition = FeasibilityRestorationFailed
				s.setDecision(s.x)
				return
			}
		}

		for i := range s.x {
			s.x[i] += alpha * dx[i]
		}
		for j := range s.s {
			s.s[j] += alpha * ds[j]
		}
		for r := range s.y {
			s.y[r] += alphaZ * dy[r]
		}
		for j := range s.z {
			s.z[j] += alphaZ * dz[j]
		}

		if infNorm(s.x) > divergenceLimit {
			st.ExitCondition = DivergingIterates
			s.setDecision(s.x)
			return
		}

		s.setDecision(s.x)
		s.evalConstraints()

		info := IterationInfo{
			Iteration:     iter,
			Cost:          s.costValue(),
			Infeasibility: s.theta(),
			KKTError:      kktErr,
			Barrier:       s.mu,
			StepSize:      alpha,
		}
		if s.opts.Diagnostics {
			s.printRow(iter, info)
		}
		if s.opts.Callback != nil && s.opts.Callback(info) {
			st.ExitCondition = CallbackRequestedStop
			st.Iterations = iter + 1
			return
		}
	}

	s.setDecision(s.x)
	st.Iterations = s.opts.MaxIterations
	st.ExitCondition = MaxIterationsExceeded
}

// assemble builds the condensed KKT system
//
//	[ H + Ai^T Sigma Ai + delta*I   Ae^T ] [ dx ]   [ -grad L_mu ]
//	[ Ae                            0    ] [ -dy ] = [ -ce        ]
//
// where Sigma = S^-1 Z. Slack and bound steps are recovered afterwards.
func (s *solver) assemble(g []float64, ae, ai [][]float64, delta float64) (*mat.Dense, *mat.VecDense) {
	dim := s.n + s.me
	kkt := mat.NewDense(dim, dim, nil)
	rhs := mat.NewVecDense(dim, nil)

	for _, tr := range s.hessL.Value() {
		kkt.Set(tr.Row, tr.Col, kkt.At(tr.Row, tr.Col)+tr.Value)
	}
	if delta > 0 {
		for i := 0; i < s.n; i++ {
			kkt.Set(i, i, kkt.At(i, i)+delta)
		}
	}
	for j := 0; j < s.mi; j++ {
		sigma := s.z[j] / s.s[j]
		for a := 0; a < s.n; a++ {
			va := ai[j][a]
			if va == 0 {
				continue
			}
			for b := 0; b < s.n; b++ {
				if vb := ai[j][b]; vb != 0 {
					kkt.Set(a, b, kkt.At(a, b)+sigma*va*vb)
				}
			}
		}
	}
	for r := 0; r < s.me; r++ {
		for c := 0; c < s.n; c++ {
			if v := ae[r][c]; v != 0 {
				kkt.Set(c, s.n+r, v)
				kkt.Set(s.n+r, c, v)
			}
		}
	}

	for i := 0; i < s.n; i++ {
		rhs.SetVec(i, -g[i])
	}
	for r := 0; r < s.me; r++ {
		for c := 0; c < s.n; c++ {
			rhs.SetVec(c, rhs.AtVec(c)+ae[r][c]*s.y[r])
		}
	}
	for j := 0; j < s.mi; j++ {
		w := s.mu/s.s[j] - (s.z[j]/s.s[j])*(s.ci[j]-s.s[j])
		for c := 0; c < s.n; c++ {
			rhs.SetVec(c, rhs.AtVec(c)+ai[j][c]*w)
		}
	}
	for r := 0; r < s.me; r++ {
		rhs.SetVec(s.n+r, -s.ce[r])
	}
	return kkt, rhs
}

func (s *solver) extractStep(sol *mat.VecDense, ai [][]float64) (dx, dy, ds, dz []float64) {
	dx = make([]float64, s.n)
	for i := range dx {
		dx[i] = sol.AtVec(i)
	}
	dy = make([]float64, s.me)
	for r := range dy {
		dy[r] = -sol.AtVec(s.n + r)
	}
	ds = make([]float64, s.mi)
	dz = make([]float64, s.mi)
	for j := 0; j < s.mi; j++ {
		var aidx float64
		for c := 0; c < s.n; c++ {
			aidx += ai[j][c] * dx[c]
		}
		ds[j] = aidx + s.ci[j] - s.s[j]
		dz[j] = s.mu/s.s[j] - s.z[j] - (s.z[j]/s.s[j])*ds[j]
	}
	return dx, dy, ds, dz
}

// lineSearch backtracks from the fraction-to-boundary step length until the
// filter accepts the trial point. On success the decision variables and
// cached constraint values are left at the accepted point.
func (s *solver) lineSearch(dx, ds []float64, alphaMax float64) (float64, bool) {
	xTrial := make([]float64, s.n)
	sTrial := make([]float64, s.mi)

	for alpha := alphaMax; alpha >= minStepSize; alpha *= 0.5 {
		for i := range xTrial {
			xTrial[i] = s.x[i] + alpha*dx[i]
		}
		for j := range sTrial {
			sTrial[j] = s.s[j] + alpha*ds[j]
		}
		s.setDecision(xTrial)
		s.evalConstraints()
		if s.filt.acceptable(s.thetaAt(sTrial), s.phiAt(sTrial)) {
			return alpha, true
		}
	}
	s.setDecision(s.x)
	s.evalConstraints()
	return 0, false
}

// kktError is the optimality error of the barrier problem: stationarity of
// the Lagrangian, primal feasibility, and complementarity offset by mu.
func (s *solver) kktError(g []float64, ae, ai [][]float64, mu float64) float64 {
	e := 0.0
	for i := 0; i < s.n; i++ {
		r := g[i]
		for q := 0; q < s.me; q++ {
			r -= ae[q][i] * s.y[q]
		}
		for j := 0; j < s.mi; j++ {
			r -= ai[j][i] * s.z[j]
		}
		e = math.Max(e, math.Abs(r))
	}
	for q := 0; q < s.me; q++ {
		e = math.Max(e, math.Abs(s.ce[q]))
	}
	for j := 0; j < s.mi; j++ {
		e = math.Max(e, math.Abs(s.ci[j]-s.s[j]))
		e = math.Max(e, math.Abs(s.s[j]*s.z[j]-mu))
	}
	return e
}

func (s *solver) setDecision(x []float64) {
	for i, v := range s.dec {
		v.SetValue(x[i])
	}
}

func (s *solver) setMultipliers() {
	for i, v := range s.yp {
		v.SetValue(s.y[i])
	}
	for j, v := range s.zp {
		v.SetValue(s.z[j])
	}
}

func (s *solver) evalConstraints() {
	s.evalE.Values(s.ce)
	s.evalI.Values(s.ci)
}

func (s *solver) gradVec() []float64 {
	g := make([]float64, s.n)
	for _, e := range s.gradF.Value() {
		g[e.Row] = e.Value
	}
	return g
}

func (s *solver) denseJacobian(j *autodiff.Jacobian, rows int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, s.n)
	}
	for _, tr := range j.Value() {
		out[tr.Row][tr.Col] = tr.Value
	}
	return out
}

// thetaAt is the l1 constraint violation with the given slack vector.
func (s *solver) thetaAt(slacks []float64) float64 {
	t := l1Norm(s.ce)
	for j := range s.ci {
		t += math.Abs(s.ci[j] - slacks[j])
	}
	return t
}

func (s *solver) theta() float64 { return s.thetaAt(s.s) }

// phiAt is the barrier merit with the given slack vector.
func (s *solver) phiAt(slacks []float64) float64 {
	phi := s.costValue()
	for _, sj := range slacks {
		phi -= s.mu * math.Log(sj)
	}
	return phi
}

func (s *solver) costValue() float64 {
	var f [1]float64
	s.evalCost.Values(f[:])
	return f[0]
}

func (s *solver) phi() float64 { return s.phiAt(s.s) }

func (s *solver) printRow(iter int, info IterationInfo) {
	if iter%20 == 0 {
		fmt.Printf("%5s  %10s  %14s  %12s  %12s  %9s  %9s\n",
			"iter", "time (ms)", "cost", "violation", "KKT error", "barrier", "step")
	}
	fmt.Printf("%5d  %10.3f  %14.6e  %12.4e  %12.4e  %9.2e  %9.2e\n",
		iter, float64(time.Since(s.start).Microseconds())/1000,
		info.Cost, info.Infeasibility, info.KKTError, info.Barrier, info.StepSize)
}
