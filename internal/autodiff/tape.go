package autodiff

import "sort"

// tape is a flattened, topologically ordered view of the subgraph under one
// root: parents before children. Constant leaves never change value and
// carry no adjoints, so they are left out.
type tape struct {
	root  *Node
	nodes []*Node
}

func newTape(root *Node) *tape {
	t := &tape{root: root}
	if root.kind == KindConstant {
		return t
	}
	seen := make(map[*Node]struct{})
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		t.nodes = append(t.nodes, n)
		if n.lhs != nil && n.lhs.kind != KindConstant {
			stack = append(stack, n.lhs)
		}
		if n.rhs != nil && n.rhs.kind != KindConstant {
			stack = append(stack, n.rhs)
		}
	}
	// Operand ids are always smaller than operator ids, so descending id
	// order puts parents before children.
	sort.Slice(t.nodes, func(i, j int) bool { return t.nodes[i].id > t.nodes[j].id })
	return t
}

// update recomputes node values children-first from current leaf values.
func (t *tape) update() {
	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := t.nodes[i]
		if n.eval == nil {
			continue
		}
		rhs := 0.0
		if n.rhs != nil {
			rhs = n.rhs.value
		}
		n.value = n.eval(n.lhs.value, rhs)
	}
}

// sweepAdjoints accumulates d(root)/d(node) into every tape node's adjoint
// with a single reverse pass.
func (t *tape) sweepAdjoints() {
	for _, n := range t.nodes {
		n.adjoint = 0
	}
	if t.root.kind == KindConstant {
		return
	}
	t.root.adjoint = 1
	for _, n := range t.nodes {
		if n.eval == nil || n.adjoint == 0 {
			continue
		}
		rhs := 0.0
		if n.rhs != nil {
			rhs = n.rhs.value
		}
		if n.lhs.kind != KindConstant {
			n.lhs.adjoint += n.adjLHS(n.lhs.value, rhs, n.adjoint)
		}
		if n.rhs != nil && n.rhs.kind != KindConstant {
			n.rhs.adjoint += n.adjRHS(n.lhs.value, rhs, n.adjoint)
		}
	}
}

// adjointExprs builds d(root)/d(wrt[i]) as expressions on g, enabling
// second derivatives as the Jacobian of the returned gradient.
func (t *tape) adjointExprs(g *Graph, wrt []Variable) []Variable {
	for _, n := range t.nodes {
		n.adjointNode = nil
	}
	for _, v := range wrt {
		v.node.adjointNode = nil
	}
	if t.root.kind != KindConstant {
		t.root.adjointNode = g.constNode(1)
		for _, n := range t.nodes {
			if n.eval == nil || n.adjointNode == nil {
				continue
			}
			if n.lhs.kind != KindConstant {
				c := n.adjLHSX(g, n.lhs, n.rhs, n.adjointNode)
				if n.lhs.adjointNode == nil {
					n.lhs.adjointNode = c
				} else {
					n.lhs.adjointNode = g.add(n.lhs.adjointNode, c)
				}
			}
			if n.rhs != nil && n.rhs.kind != KindConstant {
				c := n.adjRHSX(g, n.lhs, n.rhs, n.adjointNode)
				if n.rhs.adjointNode == nil {
					n.rhs.adjointNode = c
				} else {
					n.rhs.adjointNode = g.add(n.rhs.adjointNode, c)
				}
			}
		}
	}

	out := make([]Variable, len(wrt))
	for i, v := range wrt {
		if v.node.adjointNode != nil {
			out[i] = Variable{node: v.node.adjointNode, graph: g}
		} else {
			out[i] = g.Constant(0)
		}
	}
	for _, n := range t.nodes {
		n.adjointNode = nil
	}
	return out
}
