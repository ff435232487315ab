package dynamics

import (
	"math"
	"testing"

	"github.com/san-kum/trajopt/internal/autodiff"
)

// expression dynamics must agree with the float64 dynamics everywhere
func checkExprMatchesFloat(t *testing.T, sys ExpressionSystem, x State, u Control) {
	t.Helper()

	g := autodiff.NewGraph()
	defer g.Close()

	xm := g.DecisionMatrix(sys.StateDim(), 1)
	for i, v := range x {
		xm.SetValue(i, 0, v)
	}
	um := g.DecisionMatrix(sys.ControlDim(), 1)
	for i, v := range u {
		um.SetValue(i, 0, v)
	}

	want := sys.Derive(x, u, 0)
	got := sys.DeriveExpr(g.Constant(0), xm, um)

	for i := range want {
		if math.Abs(got.Value(i, 0)-want[i]) > 1e-12 {
			t.Errorf("state %d: expression %g, float %g", i, got.Value(i, 0), want[i])
		}
	}
}

func TestCartPoleExprMatchesFloat(t *testing.T) {
	cp := NewCartPole()
	cases := []struct {
		x State
		u Control
	}{
		{State{0, 0, 0, 0}, Control{0}},
		{State{0.5, -1.2, 0.3, 2.0}, Control{5}},
		{State{-1, 0.7, math.Pi, -0.4}, Control{-20}},
		{State{2, 3, 2.5, 1.1}, Control{13.7}},
	}
	for _, tc := range cases {
		checkExprMatchesFloat(t, cp, tc.x, tc.u)
	}
}

func TestPendulumExprMatchesFloat(t *testing.T) {
	p := NewPendulum()
	cases := []struct {
		x State
		u Control
	}{
		{State{0, 0}, Control{0}},
		{State{0.5, -1.2}, Control{2}},
		{State{math.Pi, 4}, Control{-3}},
	}
	for _, tc := range cases {
		checkExprMatchesFloat(t, p, tc.x, tc.u)
	}
}

func TestDoubleIntegratorExprMatchesFloat(t *testing.T) {
	checkExprMatchesFloat(t, NewDoubleIntegrator(), State{1, -2}, Control{0.5})
}

func TestRegistry(t *testing.T) {
	for _, name := range Models() {
		sys, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if sys.StateDim() < 1 || sys.ControlDim() < 1 {
			t.Errorf("%s: degenerate dimensions", name)
		}
	}
	if _, err := Get("warp_drive"); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestPendulumParams(t *testing.T) {
	p := NewPendulum()
	if err := p.SetParam("mass", 2.5); err != nil {
		t.Fatal(err)
	}
	if p.GetParams()["mass"] != 2.5 {
		t.Errorf("mass = %g, want 2.5", p.GetParams()["mass"])
	}
	if err := p.SetParam("flux", 1); err == nil {
		t.Error("expected error for unknown param")
	}
}
