package autodiff

// Constraint is the closed set of constraint groups a problem accepts.
// Comparison builders never evaluate booleans; they produce expressions the
// solver later drives to feasibility.
type Constraint interface {
	isConstraint()
}

// EqualityConstraints holds expressions constrained to equal zero.
type EqualityConstraints struct {
	Exprs []Variable
}

// InequalityConstraints holds expressions constrained to be nonnegative.
type InequalityConstraints struct {
	Exprs []Variable
}

func (EqualityConstraints) isConstraint()   {}
func (InequalityConstraints) isConstraint() {}

// Kind reports the least specific classification across the members.
func (c EqualityConstraints) Kind() Kind { return exprsKind(c.Exprs) }

// Kind reports the least specific classification across the members.
func (c InequalityConstraints) Kind() Kind { return exprsKind(c.Exprs) }

func exprsKind(exprs []Variable) Kind {
	k := KindConstant
	for _, e := range exprs {
		k = maxKind(k, e.Kind())
	}
	return k
}

// EqualTo returns the constraint v == rhs.
func (v Variable) EqualTo(rhs Variable) EqualityConstraints {
	return EqualityConstraints{Exprs: []Variable{v.Sub(rhs)}}
}

// GreaterOrEqual returns the constraint v >= rhs.
func (v Variable) GreaterOrEqual(rhs Variable) InequalityConstraints {
	return InequalityConstraints{Exprs: []Variable{v.Sub(rhs)}}
}

// LessOrEqual returns the constraint v <= rhs.
func (v Variable) LessOrEqual(rhs Variable) InequalityConstraints {
	return InequalityConstraints{Exprs: []Variable{rhs.Sub(v)}}
}

// Equals returns the constraint v == c for a constant c.
func (v Variable) Equals(c float64) EqualityConstraints {
	return v.EqualTo(v.graph.Constant(c))
}

// AtLeast returns the constraint v >= c for a constant c.
func (v Variable) AtLeast(c float64) InequalityConstraints {
	return v.GreaterOrEqual(v.graph.Constant(c))
}

// AtMost returns the constraint v <= c for a constant c.
func (v Variable) AtMost(c float64) InequalityConstraints {
	return v.LessOrEqual(v.graph.Constant(c))
}

// EqualTo returns elementwise equality constraints between two matrices.
func (m VariableMatrix) EqualTo(rhs VariableMatrix) EqualityConstraints {
	diff := m.Sub(rhs)
	return EqualityConstraints{Exprs: diff.data}
}

// EqualToValues pins a vector's elements to the given constants.
func (m VariableMatrix) EqualToValues(vals []float64) EqualityConstraints {
	if len(m.data) != len(vals) {
		panic(ErrDimensionMismatch)
	}
	out := EqualityConstraints{Exprs: make([]Variable, len(vals))}
	for i := range vals {
		out.Exprs[i] = m.data[i].Sub(m.graph.Constant(vals[i]))
	}
	return out
}

// AtLeast returns elementwise v >= c constraints.
func (m VariableMatrix) AtLeast(c float64) InequalityConstraints {
	out := InequalityConstraints{Exprs: make([]Variable, len(m.data))}
	for i, v := range m.data {
		out.Exprs[i] = v.Sub(m.graph.Constant(c))
	}
	return out
}

// AtMost returns elementwise v <= c constraints.
func (m VariableMatrix) AtMost(c float64) InequalityConstraints {
	out := InequalityConstraints{Exprs: make([]Variable, len(m.data))}
	for i, v := range m.data {
		out.Exprs[i] = m.graph.Constant(c).Sub(v)
	}
	return out
}
