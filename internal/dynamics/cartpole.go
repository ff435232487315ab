package dynamics

import (
	"math"

	"github.com/san-kum/trajopt/internal/autodiff"
)

// CartPole is a cart on a rail balancing a pole, driven by a horizontal
// force. State is [pos, vel, theta, omega] with theta measured from the
// upright pole.
type CartPole struct {
	CartMass   float64
	PoleMass   float64
	PoleLength float64
	Gravity    float64
}

func NewCartPole() *CartPole {
	return &CartPole{
		CartMass:   1.0,
		PoleMass:   0.1,
		PoleLength: 1.0,
		Gravity:    9.81,
	}
}

func (c *CartPole) StateDim() int { return 4 }

func (c *CartPole) ControlDim() int { return 1 }

func (c *CartPole) StateNames() []string {
	return []string{"pos", "vel", "theta", "omega"}
}

func (c *CartPole) Derive(x State, u Control, t float64) State {
	vel := x[1]
	theta := x[2]
	omega := x[3]

	force := 0.0
	if len(u) > 0 {
		force = u[0]
	}

	mc := c.CartMass
	mp := c.PoleMass
	l := c.PoleLength
	g := c.Gravity

	sint := math.Sin(theta)
	cost := math.Cos(theta)

	temp := (force + mp*l*omega*omega*sint) / (mc + mp)
	thetaacc := (g*sint - cost*temp) / (l * (4.0/3.0 - mp*cost*cost/(mc+mp)))
	xacc := temp - mp*l*thetaacc*cost/(mc+mp)

	return State{vel, xacc, omega, thetaacc}
}

func (c *CartPole) DeriveExpr(t autodiff.Variable, x, u autodiff.VariableMatrix) autodiff.VariableMatrix {
	vel := x.AtVec(1)
	theta := x.AtVec(2)
	omega := x.AtVec(3)
	force := u.AtVec(0)

	mc := c.CartMass
	mp := c.PoleMass
	l := c.PoleLength
	g := c.Gravity

	sint := autodiff.Sin(theta)
	cost := autodiff.Cos(theta)

	temp := force.Add(omega.Square().Mul(sint).Scale(mp * l)).Scale(1 / (mc + mp))
	denom := cost.Square().Scale(-mp / (mc + mp)).Shift(4.0 / 3.0).Scale(l)
	thetaacc := sint.Scale(g).Sub(cost.Mul(temp)).Div(denom)
	xacc := temp.Sub(thetaacc.Mul(cost).Scale(mp * l / (mc + mp)))

	return autodiff.VectorOf(vel, xacc, omega, thetaacc)
}
