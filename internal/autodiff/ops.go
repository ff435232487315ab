package autodiff

import "math"

// Node-level operator builders. Each carries the forward rule, the adjoint
// value rule for the reverse sweep, and the adjoint expression rule for
// gradient tree generation. Constant operands are folded so classification
// stays exact and gradient trees stay small.

func (g *Graph) add(l, r *Node) *Node {
	if l.kind == KindConstant && r.kind == KindConstant {
		return g.constNode(l.value + r.value)
	}
	if l.kind == KindConstant && l.value == 0 {
		return r
	}
	if r.kind == KindConstant && r.value == 0 {
		return l
	}
	return g.binary(maxKind(l.kind, r.kind), l, r,
		func(a, b float64) float64 { return a + b },
		func(_, _, p float64) float64 { return p },
		func(_, _, p float64) float64 { return p },
		func(_ *Graph, _, _, p *Node) *Node { return p },
		func(_ *Graph, _, _, p *Node) *Node { return p },
	)
}

func (g *Graph) sub(l, r *Node) *Node {
	if l.kind == KindConstant && r.kind == KindConstant {
		return g.constNode(l.value - r.value)
	}
	if r.kind == KindConstant && r.value == 0 {
		return l
	}
	if l.kind == KindConstant && l.value == 0 {
		return g.neg(r)
	}
	return g.binary(maxKind(l.kind, r.kind), l, r,
		func(a, b float64) float64 { return a - b },
		func(_, _, p float64) float64 { return p },
		func(_, _, p float64) float64 { return -p },
		func(_ *Graph, _, _, p *Node) *Node { return p },
		func(g *Graph, _, _, p *Node) *Node { return g.neg(p) },
	)
}

func (g *Graph) mul(l, r *Node) *Node {
	if l.kind == KindConstant && r.kind == KindConstant {
		return g.constNode(l.value * r.value)
	}
	if l.kind == KindConstant {
		if l.value == 0 {
			return g.constNode(0)
		}
		if l.value == 1 {
			return r
		}
	}
	if r.kind == KindConstant {
		if r.value == 0 {
			return g.constNode(0)
		}
		if r.value == 1 {
			return l
		}
	}
	return g.binary(mulKind(l.kind, r.kind), l, r,
		func(a, b float64) float64 { return a * b },
		func(_, b, p float64) float64 { return b * p },
		func(a, _, p float64) float64 { return a * p },
		func(g *Graph, _, r, p *Node) *Node { return g.mul(r, p) },
		func(g *Graph, l, _, p *Node) *Node { return g.mul(l, p) },
	)
}

func (g *Graph) div(l, r *Node) *Node {
	if l.kind == KindConstant && r.kind == KindConstant {
		return g.constNode(l.value / r.value)
	}
	if r.kind == KindConstant && r.value == 1 {
		return l
	}
	return g.binary(divKind(l.kind, r.kind), l, r,
		func(a, b float64) float64 { return a / b },
		func(_, b, p float64) float64 { return p / b },
		func(a, b, p float64) float64 { return p * -a / (b * b) },
		func(g *Graph, _, r, p *Node) *Node { return g.div(p, r) },
		func(g *Graph, l, r, p *Node) *Node {
			return g.mul(p, g.neg(g.div(l, g.mul(r, r))))
		},
	)
}

func (g *Graph) neg(l *Node) *Node {
	if l.kind == KindConstant {
		return g.constNode(-l.value)
	}
	return g.unary(l.kind, l,
		func(a, _ float64) float64 { return -a },
		func(_, _, p float64) float64 { return -p },
		func(g *Graph, _, _, p *Node) *Node { return g.neg(p) },
	)
}

// nonlinearUnary builds a transcendental node; a constant operand folds to
// a constant result.
func (g *Graph) nonlinearUnary(l *Node, eval func(float64) float64, adj adjValueFunc, adjX adjExprFunc) *Node {
	if l.kind == KindConstant {
		return g.constNode(eval(l.value))
	}
	return g.unary(KindNonlinear, l,
		func(a, _ float64) float64 { return eval(a) },
		adj, adjX,
	)
}

func (g *Graph) sinNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Sin,
		func(a, _, p float64) float64 { return p * math.Cos(a) },
		func(g *Graph, l, _, p *Node) *Node { return g.mul(p, g.cosNode(l)) },
	)
}

func (g *Graph) cosNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Cos,
		func(a, _, p float64) float64 { return -p * math.Sin(a) },
		func(g *Graph, l, _, p *Node) *Node { return g.neg(g.mul(p, g.sinNode(l))) },
	)
}

func (g *Graph) tanNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Tan,
		func(a, _, p float64) float64 {
			c := math.Cos(a)
			return p / (c * c)
		},
		func(g *Graph, l, _, p *Node) *Node {
			c := g.cosNode(l)
			return g.div(p, g.mul(c, c))
		},
	)
}

func (g *Graph) asinNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Asin,
		func(a, _, p float64) float64 { return p / math.Sqrt(1-a*a) },
		func(g *Graph, l, _, p *Node) *Node {
			return g.div(p, g.sqrtNode(g.sub(g.constNode(1), g.mul(l, l))))
		},
	)
}

func (g *Graph) acosNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Acos,
		func(a, _, p float64) float64 { return -p / math.Sqrt(1-a*a) },
		func(g *Graph, l, _, p *Node) *Node {
			return g.neg(g.div(p, g.sqrtNode(g.sub(g.constNode(1), g.mul(l, l)))))
		},
	)
}

func (g *Graph) atanNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Atan,
		func(a, _, p float64) float64 { return p / (1 + a*a) },
		func(g *Graph, l, _, p *Node) *Node {
			return g.div(p, g.add(g.constNode(1), g.mul(l, l)))
		},
	)
}

func (g *Graph) expNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Exp,
		func(a, _, p float64) float64 { return p * math.Exp(a) },
		func(g *Graph, l, _, p *Node) *Node { return g.mul(p, g.expNode(l)) },
	)
}

func (g *Graph) logNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Log,
		func(a, _, p float64) float64 { return p / a },
		func(g *Graph, l, _, p *Node) *Node { return g.div(p, l) },
	)
}

func (g *Graph) log10Node(l *Node) *Node {
	return g.nonlinearUnary(l, math.Log10,
		func(a, _, p float64) float64 { return p / (a * math.Ln10) },
		func(g *Graph, l, _, p *Node) *Node {
			return g.div(p, g.mul(g.constNode(math.Ln10), l))
		},
	)
}

func (g *Graph) sqrtNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Sqrt,
		func(a, _, p float64) float64 { return p / (2 * math.Sqrt(a)) },
		func(g *Graph, l, _, p *Node) *Node {
			return g.div(p, g.mul(g.constNode(2), g.sqrtNode(l)))
		},
	)
}

func (g *Graph) sinhNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Sinh,
		func(a, _, p float64) float64 { return p * math.Cosh(a) },
		func(g *Graph, l, _, p *Node) *Node { return g.mul(p, g.coshNode(l)) },
	)
}

func (g *Graph) coshNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Cosh,
		func(a, _, p float64) float64 { return p * math.Sinh(a) },
		func(g *Graph, l, _, p *Node) *Node { return g.mul(p, g.sinhNode(l)) },
	)
}

func (g *Graph) tanhNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Tanh,
		func(a, _, p float64) float64 {
			c := math.Cosh(a)
			return p / (c * c)
		},
		func(g *Graph, l, _, p *Node) *Node {
			c := g.coshNode(l)
			return g.div(p, g.mul(c, c))
		},
	)
}

func (g *Graph) erfNode(l *Node) *Node {
	const twoOverSqrtPi = 2 / math.SqrtPi
	return g.nonlinearUnary(l, math.Erf,
		func(a, _, p float64) float64 { return p * twoOverSqrtPi * math.Exp(-a*a) },
		func(g *Graph, l, _, p *Node) *Node {
			return g.mul(p, g.mul(g.constNode(twoOverSqrtPi), g.expNode(g.neg(g.mul(l, l)))))
		},
	)
}

// absNode's adjoint expression picks a branch from the operand's current
// value, so Hessians through abs are valid only near the evaluation point.
func (g *Graph) absNode(l *Node) *Node {
	return g.nonlinearUnary(l, math.Abs,
		func(a, _, p float64) float64 {
			switch {
			case a < 0:
				return -p
			case a > 0:
				return p
			default:
				return 0
			}
		},
		func(g *Graph, l, _, p *Node) *Node {
			switch {
			case l.value < 0:
				return g.neg(p)
			case l.value > 0:
				return p
			default:
				return g.constNode(0)
			}
		},
	)
}

func (g *Graph) atan2Node(y, x *Node) *Node {
	if y.kind == KindConstant && x.kind == KindConstant {
		return g.constNode(math.Atan2(y.value, x.value))
	}
	return g.binary(KindNonlinear, y, x,
		func(a, b float64) float64 { return math.Atan2(a, b) },
		func(a, b, p float64) float64 { return p * b / (b*b + a*a) },
		func(a, b, p float64) float64 { return p * -a / (b*b + a*a) },
		func(g *Graph, y, x, p *Node) *Node {
			return g.div(g.mul(p, x), g.add(g.mul(x, x), g.mul(y, y)))
		},
		func(g *Graph, y, x, p *Node) *Node {
			return g.neg(g.div(g.mul(p, y), g.add(g.mul(x, x), g.mul(y, y))))
		},
	)
}

func (g *Graph) hypotNode(x, y *Node) *Node {
	if x.kind == KindConstant && y.kind == KindConstant {
		return g.constNode(math.Hypot(x.value, y.value))
	}
	return g.binary(KindNonlinear, x, y,
		func(a, b float64) float64 { return math.Hypot(a, b) },
		func(a, b, p float64) float64 { return p * a / math.Hypot(a, b) },
		func(a, b, p float64) float64 { return p * b / math.Hypot(a, b) },
		func(g *Graph, x, y, p *Node) *Node {
			return g.div(g.mul(p, x), g.hypotNode(x, y))
		},
		func(g *Graph, x, y, p *Node) *Node {
			return g.div(g.mul(p, y), g.hypotNode(x, y))
		},
	)
}

func powKind(base, exp *Node) Kind {
	if exp.kind != KindConstant {
		return KindNonlinear
	}
	switch exp.value {
	case 1:
		return base.kind
	case 2:
		if base.kind == KindLinear {
			return KindQuadratic
		}
	}
	return KindNonlinear
}

func (g *Graph) powNode(base, exp *Node) *Node {
	if base.kind == KindConstant && exp.kind == KindConstant {
		return g.constNode(math.Pow(base.value, exp.value))
	}
	if exp.kind == KindConstant && exp.value == 1 {
		return base
	}
	return g.binary(powKind(base, exp), base, exp,
		func(a, b float64) float64 { return math.Pow(a, b) },
		func(a, b, p float64) float64 { return p * b * math.Pow(a, b-1) },
		func(a, b, p float64) float64 {
			// d/db a^b = a^b ln a; zero base pins the derivative to zero
			if a == 0 {
				return 0
			}
			return p * math.Pow(a, b) * math.Log(a)
		},
		func(g *Graph, base, exp, p *Node) *Node {
			return g.mul(p, g.mul(exp, g.powNode(base, g.sub(exp, g.constNode(1)))))
		},
		func(g *Graph, base, exp, p *Node) *Node {
			if base.value == 0 {
				return g.constNode(0)
			}
			return g.mul(p, g.mul(g.powNode(base, exp), g.logNode(base)))
		},
	)
}
