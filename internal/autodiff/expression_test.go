package autodiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/trajopt/internal/arena"
)

func TestClassificationTable(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	x := g.Decision(1)
	y := g.Decision(2)
	c := g.Constant(3)

	cases := []struct {
		name string
		expr Variable
		want Kind
	}{
		{"constant leaf", c, KindConstant},
		{"decision leaf", x, KindLinear},
		{"linear + linear", x.Add(y), KindLinear},
		{"linear - constant", x.Sub(c), KindLinear},
		{"constant * linear", x.Scale(2), KindLinear},
		{"linear * linear", x.Mul(y), KindQuadratic},
		{"quadratic + linear", x.Mul(y).Add(x), KindQuadratic},
		{"quadratic + quadratic", x.Square().Add(y.Square()), KindQuadratic},
		{"quadratic * linear", x.Mul(y).Mul(x), KindNonlinear},
		{"linear / constant", x.Div(c), KindLinear},
		{"linear / linear", x.Div(y), KindNonlinear},
		{"sin of linear", Sin(x), KindNonlinear},
		{"sin of constant", Sin(c), KindConstant},
		{"linear ^ 1", x.PowConst(1), KindLinear},
		{"linear ^ 2", x.PowConst(2), KindQuadratic},
		{"linear ^ 3", x.PowConst(3), KindNonlinear},
		{"quadratic ^ 2", x.Square().PowConst(2), KindNonlinear},
		{"constant folded", c.Mul(g.Constant(4)), KindConstant},
		{"anything * nonlinear", Sin(x).Mul(y), KindNonlinear},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.expr.Kind())
		})
	}
}

func TestClassificationMonotone(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	x := g.Decision(0.7)
	y := g.Decision(-1.3)

	// composing any pair never produces something less nonlinear than the
	// most specific operand
	operands := []Variable{g.Constant(2), x, x.Mul(y), Sin(x)}
	for _, a := range operands {
		for _, b := range operands {
			sum := a.Add(b)
			want := maxKind(a.Kind(), b.Kind())
			if sum.Kind() < want {
				t.Errorf("(%v + %v) classified %v, below operand kind %v",
					a.Kind(), b.Kind(), sum.Kind(), want)
			}
			prod := a.Mul(b)
			if prod.Kind() < maxKind(a.Kind(), b.Kind()) && prod.Kind() != KindConstant {
				// constant result only legal when a constant zero folds the product
				t.Errorf("(%v * %v) classified %v", a.Kind(), b.Kind(), prod.Kind())
			}
		}
	}
}

func TestSetValueRoundTrip(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	x := g.Decision(0)
	require.NoError(t, x.SetValue(42.5))
	assert.Equal(t, 42.5, x.Value())

	require.NoError(t, x.SetValue(-3))
	assert.Equal(t, -3.0, x.Value())
}

func TestSetValueRejectsNonLeaf(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	x := g.Decision(1)
	y := g.Decision(2)
	sum := x.Add(y)

	assert.ErrorIs(t, sum.SetValue(5), ErrNotLeaf)
	assert.ErrorIs(t, g.Constant(1).SetValue(5), ErrConstant)
}

func TestEvaluationTracksLeafUpdates(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	x := g.Decision(2)
	f := Sin(x).Mul(x).Add(x.Square())

	first := f.Value()
	require.NoError(t, x.SetValue(3))
	second := f.Value()
	assert.NotEqual(t, first, second)

	require.NoError(t, x.SetValue(2))
	assert.Equal(t, first, f.Value())
}

func TestDecisionOrderIsDeclarationOrder(t *testing.T) {
	g := NewGraph()
	defer g.Close()

	a := g.Decision(0)
	m := g.DecisionMatrix(2, 2)
	b := g.Decision(0)

	assert.Equal(t, 0, a.Row())
	assert.Equal(t, 1, m.At(0, 0).Row())
	assert.Equal(t, 2, m.At(0, 1).Row())
	assert.Equal(t, 3, m.At(1, 0).Row())
	assert.Equal(t, 4, m.At(1, 1).Row())
	assert.Equal(t, 5, b.Row())
	assert.Len(t, g.DecisionVariables(), 6)
}

func TestGraphReleasesPoolBlocks(t *testing.T) {
	pool := arena.NewPool[Node](64)

	g1 := NewGraphWithPool(pool)
	g2 := NewGraphWithPool(pool)
	for i := 0; i < 200; i++ {
		x := g1.Decision(float64(i))
		Sin(x.Mul(g1.Constant(2)))
		g2.Decision(float64(i))
	}
	require.Greater(t, pool.BlocksInUse(), 0)

	g1.Close()
	g2.Close()
	assert.Equal(t, 0, pool.BlocksInUse())
}
