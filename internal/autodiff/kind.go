package autodiff

// Kind classifies an expression by the most specific algebraic family it is
// known to belong to. Classification is computed bottom-up when nodes are
// built and only ever moves toward Nonlinear as expressions compose.
type Kind int

const (
	KindConstant Kind = iota
	KindLinear
	KindQuadratic
	KindNonlinear
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindLinear:
		return "linear"
	case KindQuadratic:
		return "quadratic"
	case KindNonlinear:
		return "nonlinear"
	default:
		return "unknown"
	}
}

func maxKind(a, b Kind) Kind {
	if a > b {
		return a
	}
	return b
}

// mulKind implements the composition rule for products: scaling by a
// constant preserves the operand's kind, linear times linear is quadratic,
// and everything else is nonlinear.
func mulKind(a, b Kind) Kind {
	switch {
	case a == KindConstant:
		return b
	case b == KindConstant:
		return a
	case a == KindLinear && b == KindLinear:
		return KindQuadratic
	default:
		return KindNonlinear
	}
}

// divKind implements the composition rule for quotients: dividing by a
// constant preserves the numerator's kind, anything else is nonlinear.
func divKind(a, b Kind) Kind {
	if b == KindConstant {
		return a
	}
	return KindNonlinear
}
