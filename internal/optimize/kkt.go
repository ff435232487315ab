package optimize

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const maxRefactorAttempts = 8

// solveRegularized solves the symmetric KKT system, retrying with growing
// primal regularization on the Hessian block and a small dual regularization
// on the equality block whenever the factorization is singular or produces a
// non-finite step. The caller's matrix is left untouched.
func solveRegularized(kkt *mat.Dense, rhs *mat.VecDense, n, me int, mu float64) (*mat.VecDense, bool) {
	dim := n + me
	sol := mat.NewVecDense(dim, nil)

	delta := 0.0
	for attempt := 0; attempt < maxRefactorAttempts; attempt++ {
		lhs := mat.DenseCopyOf(kkt)
		if delta > 0 {
			dc := 1e-8 * math.Sqrt(math.Sqrt(mu))
			for i := 0; i < n; i++ {
				lhs.Set(i, i, lhs.At(i, i)+delta)
			}
			for i := n; i < dim; i++ {
				lhs.Set(i, i, lhs.At(i, i)-dc)
			}
		}

		var lu mat.LU
		lu.Factorize(lhs)
		err := lu.SolveVecTo(sol, false, rhs)
		// a near-singular warning still carries a usable solution
		_, nearSingular := err.(mat.Condition)
		if (err == nil || nearSingular) && finiteVec(sol) {
			return sol, true
		}
		delta = bumpDelta(delta)
	}
	return nil, false
}

func bumpDelta(delta float64) float64 {
	if delta == 0 {
		return 1e-8
	}
	return delta * 10
}

func finiteVec(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		if x := v.AtVec(i); math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func infNorm(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

func l1Norm(v []float64) float64 {
	t := 0.0
	for _, x := range v {
		t += math.Abs(x)
	}
	return t
}
