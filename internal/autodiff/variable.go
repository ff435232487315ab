package autodiff

// Variable is a lightweight non-owning handle to one expression node.
// Algebraic methods allocate new nodes on the owning graph and never mutate
// their operands.
type Variable struct {
	node  *Node
	graph *Graph
}

// Graph returns the owning graph.
func (v Variable) Graph() *Graph { return v.graph }

// Kind reports the expression's classification.
func (v Variable) Kind() Kind { return v.node.kind }

// Row returns this variable's index in the decision-variable vector, or -1
// if it is not a decision variable.
func (v Variable) Row() int { return v.node.row }

// SetValue overwrites a leaf's stored value in place. The graph topology is
// untouched, which is what lets a solver re-evaluate the same expressions
// cheaply at each iterate. Operator nodes and constants are rejected.
func (v Variable) SetValue(x float64) error {
	if !v.node.isLeaf() {
		return ErrNotLeaf
	}
	if v.node.kind == KindConstant {
		return ErrConstant
	}
	v.node.value = x
	return nil
}

// Value re-evaluates the expression from current leaf values.
func (v Variable) Value() float64 {
	if v.node.isLeaf() {
		return v.node.value
	}
	t := newTape(v.node)
	t.update()
	return v.node.value
}

func (v Variable) wrap(n *Node) Variable { return Variable{node: n, graph: v.graph} }

// Add returns v + rhs.
func (v Variable) Add(rhs Variable) Variable { return v.wrap(v.graph.add(v.node, rhs.node)) }

// Sub returns v - rhs.
func (v Variable) Sub(rhs Variable) Variable { return v.wrap(v.graph.sub(v.node, rhs.node)) }

// Mul returns v * rhs.
func (v Variable) Mul(rhs Variable) Variable { return v.wrap(v.graph.mul(v.node, rhs.node)) }

// Div returns v / rhs.
func (v Variable) Div(rhs Variable) Variable { return v.wrap(v.graph.div(v.node, rhs.node)) }

// Neg returns -v.
func (v Variable) Neg() Variable { return v.wrap(v.graph.neg(v.node)) }

// Scale returns c * v.
func (v Variable) Scale(c float64) Variable { return v.wrap(v.graph.mul(v.graph.constNode(c), v.node)) }

// Shift returns v + c.
func (v Variable) Shift(c float64) Variable { return v.wrap(v.graph.add(v.node, v.graph.constNode(c))) }

// Square returns v*v; for a linear v the result is classified quadratic.
func (v Variable) Square() Variable { return v.Mul(v) }

// Pow returns v raised to exp.
func (v Variable) Pow(exp Variable) Variable { return v.wrap(v.graph.powNode(v.node, exp.node)) }

// PowConst returns v raised to a constant exponent.
func (v Variable) PowConst(exp float64) Variable {
	return v.wrap(v.graph.powNode(v.node, v.graph.constNode(exp)))
}

// Built-in functions. Each allocates on the argument's graph.

func Abs(x Variable) Variable   { return x.wrap(x.graph.absNode(x.node)) }
func Acos(x Variable) Variable  { return x.wrap(x.graph.acosNode(x.node)) }
func Asin(x Variable) Variable  { return x.wrap(x.graph.asinNode(x.node)) }
func Atan(x Variable) Variable  { return x.wrap(x.graph.atanNode(x.node)) }
func Cos(x Variable) Variable   { return x.wrap(x.graph.cosNode(x.node)) }
func Cosh(x Variable) Variable  { return x.wrap(x.graph.coshNode(x.node)) }
func Erf(x Variable) Variable   { return x.wrap(x.graph.erfNode(x.node)) }
func Exp(x Variable) Variable   { return x.wrap(x.graph.expNode(x.node)) }
func Log(x Variable) Variable   { return x.wrap(x.graph.logNode(x.node)) }
func Log10(x Variable) Variable { return x.wrap(x.graph.log10Node(x.node)) }
func Sin(x Variable) Variable   { return x.wrap(x.graph.sinNode(x.node)) }
func Sinh(x Variable) Variable  { return x.wrap(x.graph.sinhNode(x.node)) }
func Sqrt(x Variable) Variable  { return x.wrap(x.graph.sqrtNode(x.node)) }
func Tan(x Variable) Variable   { return x.wrap(x.graph.tanNode(x.node)) }
func Tanh(x Variable) Variable  { return x.wrap(x.graph.tanhNode(x.node)) }

func Atan2(y, x Variable) Variable { return y.wrap(y.graph.atan2Node(y.node, x.node)) }
func Hypot(x, y Variable) Variable { return x.wrap(x.graph.hypotNode(x.node, y.node)) }
func Pow(base, exp Variable) Variable {
	return base.wrap(base.graph.powNode(base.node, exp.node))
}
