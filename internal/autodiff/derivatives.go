package autodiff

// Entry is one nonzero of a sparse gradient, keyed by position in the wrt
// vector (the decision-variable index when wrt is the decision vector).
type Entry struct {
	Row   int
	Value float64
}

// Triplet is one nonzero of a sparse matrix.
type Triplet struct {
	Row, Col int
	Value    float64
}

// Gradient computes d(root)/d(wrt) with a single reverse sweep per call.
type Gradient struct {
	t   *tape
	wrt []Variable
}

// NewGradient prepares a reusable gradient of root with respect to wrt.
func NewGradient(root Variable, wrt []Variable) *Gradient {
	return &Gradient{t: newTape(root.node), wrt: wrt}
}

// Value re-evaluates the expression at current leaf values and returns the
// nonzero gradient entries in wrt order.
func (g *Gradient) Value() []Entry {
	g.t.update()
	for _, v := range g.wrt {
		v.node.adjoint = 0
	}
	g.t.sweepAdjoints()

	var out []Entry
	for i, v := range g.wrt {
		if a := v.node.adjoint; a != 0 {
			out = append(out, Entry{Row: i, Value: a})
		}
	}
	return out
}

// Jacobian computes the derivatives of a vector of expressions. Rows whose
// expressions are constant or linear have constant derivatives; they are
// computed once and served from cache on later calls.
type Jacobian struct {
	exprs  []Variable
	wrt    []Variable
	grads  []*Gradient
	cached [][]Triplet // per-row cache; nil means recompute every call
	first  bool
}

// NewJacobian prepares a reusable Jacobian of exprs with respect to wrt.
func NewJacobian(exprs, wrt []Variable) *Jacobian {
	j := &Jacobian{
		exprs:  exprs,
		wrt:    wrt,
		grads:  make([]*Gradient, len(exprs)),
		cached: make([][]Triplet, len(exprs)),
		first:  true,
	}
	for i, e := range exprs {
		j.grads[i] = NewGradient(e, wrt)
	}
	return j
}

// Rows returns the number of expression rows.
func (j *Jacobian) Rows() int { return len(j.exprs) }

// Cols returns the number of wrt columns.
func (j *Jacobian) Cols() int { return len(j.wrt) }

// Value returns the Jacobian nonzeros at current leaf values.
func (j *Jacobian) Value() []Triplet {
	var out []Triplet
	for i, e := range j.exprs {
		if !j.first && j.cached[i] != nil {
			out = append(out, j.cached[i]...)
			continue
		}
		entries := j.grads[i].Value()
		row := make([]Triplet, 0, len(entries))
		for _, en := range entries {
			row = append(row, Triplet{Row: i, Col: en.Row, Value: en.Value})
		}
		out = append(out, row...)
		if e.Kind() <= KindLinear {
			j.cached[i] = row
		}
	}
	j.first = false
	return out
}

// Hessian computes second derivatives of a scalar expression by building
// its gradient as expressions and differentiating those. Linear and
// constant expressions therefore cost nothing per iteration, and quadratic
// ones produce a constant Hessian computed once.
type Hessian struct {
	jac *Jacobian
}

// NewHessian prepares a reusable Hessian of root with respect to wrt.
func NewHessian(root Variable, wrt []Variable) *Hessian {
	t := newTape(root.node)
	grads := t.adjointExprs(root.graph, wrt)
	return &Hessian{jac: NewJacobian(grads, wrt)}
}

// Value returns the Hessian nonzeros at current leaf values.
func (h *Hessian) Value() []Triplet { return h.jac.Value() }

// Evaluator re-evaluates a fixed set of expressions without rebuilding
// their tapes each call.
type Evaluator struct {
	exprs []Variable
	tapes []*tape
}

// NewEvaluator prepares persistent tapes for exprs.
func NewEvaluator(exprs []Variable) *Evaluator {
	ev := &Evaluator{exprs: exprs, tapes: make([]*tape, len(exprs))}
	for i, e := range exprs {
		ev.tapes[i] = newTape(e.node)
	}
	return ev
}

// Values writes current expression values into dst, which must have
// len(exprs) elements.
func (ev *Evaluator) Values(dst []float64) {
	for i, t := range ev.tapes {
		t.update()
		dst[i] = ev.exprs[i].node.value
	}
}
