// Package autodiff implements a scalar expression graph with reverse-mode
// automatic differentiation.
//
// Expressions are built through [Variable] and [VariableMatrix] handles
// whose operators allocate nodes from a [Graph]-owned arena. Every operator
// carries three rules: a forward value rule, an adjoint value rule used by
// the reverse sweep, and an adjoint expression rule used to build gradient
// trees so second derivatives come from differentiating the gradient.
//
// A graph belongs to one problem on one goroutine. Handles are non-owning
// views and are invalid after [Graph.Close].
package autodiff

import "github.com/san-kum/trajopt/internal/arena"

// evalFunc computes a node's value from its operand values. rhs is zero for
// unary operators.
type evalFunc func(lhs, rhs float64) float64

// adjValueFunc computes one operand's adjoint contribution from the operand
// values and the parent adjoint.
type adjValueFunc func(lhs, rhs, parent float64) float64

// adjExprFunc builds one operand's adjoint contribution as a new expression,
// given the operand nodes and the parent's adjoint expression.
type adjExprFunc func(g *Graph, lhs, rhs, parent *Node) *Node

// Node is one scalar node in the expression graph. Leaves have a nil eval
// rule; operators hold non-owning references to operand nodes that live in
// the same arena.
type Node struct {
	value   float64
	adjoint float64
	// adjointNode accumulates the adjoint expression during gradient tree
	// generation; nil outside a generation pass.
	adjointNode *Node

	// row is this node's index in the decision-variable vector, or -1.
	row int
	// id is the creation order; operands always have smaller ids than the
	// operators above them, so sorting by id yields a topological order.
	id uint64

	kind Kind

	lhs, rhs *Node
	eval     evalFunc
	adjLHS   adjValueFunc
	adjRHS   adjValueFunc
	adjLHSX  adjExprFunc
	adjRHSX  adjExprFunc
}

func (n *Node) isLeaf() bool { return n.eval == nil }

// Graph owns the arena behind a set of expressions and the declaration
// order of decision variables.
type Graph struct {
	pool     *arena.Pool[Node]
	nodes    *arena.Arena[Node]
	nextID   uint64
	decision []Variable
}

// NewGraph creates a graph with a private node pool.
func NewGraph() *Graph {
	return NewGraphWithPool(arena.NewPool[Node](arena.DefaultBlockSize))
}

// NewGraphWithPool creates a graph drawing nodes from a caller-supplied
// pool, so several sequential problems can share blocks.
func NewGraphWithPool(pool *arena.Pool[Node]) *Graph {
	return &Graph{pool: pool, nodes: arena.New(pool)}
}

// Close releases every node back to the pool. All Variable handles built on
// this graph are invalid afterwards.
func (g *Graph) Close() {
	g.nodes.Reset()
	g.decision = nil
}

// Pool returns the backing pool, for block accounting.
func (g *Graph) Pool() *arena.Pool[Node] { return g.pool }

// NumNodes reports how many nodes have been allocated.
func (g *Graph) NumNodes() int { return g.nodes.Count() }

// DecisionVariables returns the decision variables in declaration order.
// The slice is shared; callers must not modify it.
func (g *Graph) DecisionVariables() []Variable { return g.decision }

func (g *Graph) alloc() *Node {
	n := g.nodes.Alloc()
	n.id = g.nextID
	n.row = -1
	g.nextID++
	return n
}

func (g *Graph) constNode(v float64) *Node {
	n := g.alloc()
	n.value = v
	n.kind = KindConstant
	return n
}

func (g *Graph) varNode(init float64) *Node {
	n := g.alloc()
	n.value = init
	n.kind = KindLinear
	return n
}

// Constant returns a handle to an immutable constant leaf.
func (g *Graph) Constant(v float64) Variable {
	return Variable{node: g.constNode(v), graph: g}
}

// Decision declares a new decision variable with the given initial value
// and appends it to the decision-variable vector.
func (g *Graph) Decision(init float64) Variable {
	n := g.varNode(init)
	n.row = len(g.decision)
	v := Variable{node: n, graph: g}
	g.decision = append(g.decision, v)
	return v
}

// Parameter declares a mutable leaf that is not part of the decision
// vector. The solver uses parameters for Lagrange multipliers so the same
// Lagrangian graph can be re-evaluated as multipliers change.
func (g *Graph) Parameter(init float64) Variable {
	return Variable{node: g.varNode(init), graph: g}
}

func (g *Graph) unary(kind Kind, lhs *Node, eval evalFunc, adj adjValueFunc, adjX adjExprFunc) *Node {
	n := g.alloc()
	n.kind = kind
	n.lhs = lhs
	n.eval = eval
	n.adjLHS = adj
	n.adjLHSX = adjX
	n.value = eval(lhs.value, 0)
	return n
}

func (g *Graph) binary(kind Kind, lhs, rhs *Node, eval evalFunc, adjL, adjR adjValueFunc, adjLX, adjRX adjExprFunc) *Node {
	n := g.alloc()
	n.kind = kind
	n.lhs = lhs
	n.rhs = rhs
	n.eval = eval
	n.adjLHS = adjL
	n.adjRHS = adjR
	n.adjLHSX = adjLX
	n.adjRHSX = adjRX
	n.value = eval(lhs.value, rhs.value)
	return n
}
