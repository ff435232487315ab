package autodiff

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func denseJacobian(j *Jacobian) [][]float64 {
	out := make([][]float64, j.Rows())
	for i := range out {
		out[i] = make([]float64, j.Cols())
	}
	for _, tr := range j.Value() {
		out[tr.Row][tr.Col] += tr.Value
	}
	return out
}

func TestJacobianLinearRowsCached(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	x := g.Decision(1)
	y := g.Decision(2)

	linear := x.Scale(2).Add(y.Scale(3))
	bilinear := x.Mul(y)

	jac := NewJacobian([]Variable{linear, bilinear}, []Variable{x, y})

	first := denseJacobian(jac)
	assert.Equal(t, [][]float64{{2, 3}, {2, 1}}, first)

	require.NoError(t, x.SetValue(5))
	require.NoError(t, y.SetValue(-1))

	second := denseJacobian(jac)
	// linear row is constant; bilinear row follows the new iterate
	assert.Equal(t, []float64{2, 3}, second[0])
	assert.Equal(t, []float64{-1, 5}, second[1])
}

func TestHessianQuadraticIsConstant(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	x := g.Decision(3)
	y := g.Decision(-2)

	f := x.Square().Add(x.Mul(y)).Add(y.Square())
	h := NewHessian(f, []Variable{x, y})

	dense := func() [][]float64 {
		out := [][]float64{{0, 0}, {0, 0}}
		for _, tr := range h.Value() {
			out[tr.Row][tr.Col] += tr.Value
		}
		return out
	}

	assert.Equal(t, [][]float64{{2, 1}, {1, 2}}, dense())

	// Hessian of a quadratic does not depend on the iterate
	require.NoError(t, x.SetValue(100))
	assert.Equal(t, [][]float64{{2, 1}, {1, 2}}, dense())
}

func TestHessianNonlinear(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	x := g.Decision(0.9)
	y := g.Decision(1.4)

	f := Sin(x).Mul(y)
	h := NewHessian(f, []Variable{x, y})

	dense := [][]float64{{0, 0}, {0, 0}}
	for _, tr := range h.Value() {
		dense[tr.Row][tr.Col] += tr.Value
	}

	assert.InDelta(t, -math.Sin(0.9)*1.4, dense[0][0], 1e-12)
	assert.InDelta(t, math.Cos(0.9), dense[0][1], 1e-12)
	assert.InDelta(t, math.Cos(0.9), dense[1][0], 1e-12)
	assert.InDelta(t, 0.0, dense[1][1], 1e-12)
}

func TestHessianOfLinearIsEmpty(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	x := g.Decision(1)
	y := g.Decision(2)
	f := x.Scale(4).Add(y).Shift(-7)

	h := NewHessian(f, []Variable{x, y})
	assert.Empty(t, h.Value())
}

func TestEvaluatorTracksLeaves(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	x := g.Decision(2)
	exprs := []Variable{x.Square(), Sin(x)}
	ev := NewEvaluator(exprs)

	vals := make([]float64, 2)
	ev.Values(vals)
	assert.InDelta(t, 4.0, vals[0], 1e-15)
	assert.InDelta(t, math.Sin(2), vals[1], 1e-15)

	require.NoError(t, x.SetValue(3))
	ev.Values(vals)
	assert.InDelta(t, 9.0, vals[0], 1e-15)
	assert.InDelta(t, math.Sin(3), vals[1], 1e-15)
}

func TestMatrixAlgebra(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	m := g.DecisionMatrix(2, 2)
	vals := [][]float64{{1, 2}, {3, 4}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			require.NoError(t, m.SetValue(i, j, vals[i][j]))
		}
	}

	prod := m.Mul(m)
	assert.InDelta(t, 7.0, prod.Value(0, 0), 1e-15)  // 1*1 + 2*3
	assert.InDelta(t, 10.0, prod.Value(0, 1), 1e-15) // 1*2 + 2*4
	assert.InDelta(t, 15.0, prod.Value(1, 0), 1e-15)
	assert.InDelta(t, 22.0, prod.Value(1, 1), 1e-15)

	tr := m.T()
	assert.InDelta(t, 3.0, tr.Value(0, 1), 1e-15)

	col := m.Col(1)
	assert.Equal(t, 2, col.Rows())
	assert.Equal(t, 1, col.Cols())
	assert.InDelta(t, 4.0, col.Value(1, 0), 1e-15)

	sq := Dot(col, col)
	assert.Equal(t, KindQuadratic, sq.Kind())
	assert.InDelta(t, 20.0, sq.Value(), 1e-15)

	d := m.Dense()
	r, c := d.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.InDelta(t, 2.0, d.At(0, 1), 1e-15)
}

func TestConstraintBuilders(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	x := g.Decision(0)

	ge := x.AtLeast(1)
	require.Len(t, ge.Exprs, 1)
	assert.Equal(t, KindLinear, ge.Kind())
	assert.InDelta(t, -1.0, ge.Exprs[0].Value(), 1e-15) // x - 1 at x=0

	le := x.AtMost(2)
	assert.InDelta(t, 2.0, le.Exprs[0].Value(), 1e-15) // 2 - x at x=0

	eq := x.Equals(5)
	assert.InDelta(t, -5.0, eq.Exprs[0].Value(), 1e-15)

	v := VectorOf(x, g.Decision(0))
	pinned := v.EqualToValues([]float64{1, 2})
	assert.Len(t, pinned.Exprs, 2)

	// a nonlinear member makes the whole set nonlinear
	mixed := EqualityConstraints{Exprs: []Variable{x, Sin(x)}}
	assert.Equal(t, KindNonlinear, mixed.Kind())
}
