package autodiff

import "gonum.org/v1/gonum/mat"

// VariableMatrix is a row-major 2-D container of Variables. Like Variable
// it is a non-owning view; algebraic methods build new graph nodes. Shape
// mismatches panic at the call site, matching gonum/mat conventions.
type VariableMatrix struct {
	rows, cols int
	data       []Variable
	graph      *Graph
}

// DecisionMatrix declares rows*cols new decision variables in row-major
// declaration order.
func (g *Graph) DecisionMatrix(rows, cols int) VariableMatrix {
	m := VariableMatrix{rows: rows, cols: cols, data: make([]Variable, rows*cols), graph: g}
	for i := range m.data {
		m.data[i] = g.Decision(0)
	}
	return m
}

// ZeroMatrix builds a rows x cols matrix of constant zeros.
func (g *Graph) ZeroMatrix(rows, cols int) VariableMatrix {
	m := VariableMatrix{rows: rows, cols: cols, data: make([]Variable, rows*cols), graph: g}
	for i := range m.data {
		m.data[i] = g.Constant(0)
	}
	return m
}

// ConstantVector builds a column vector of constants.
func (g *Graph) ConstantVector(vals []float64) VariableMatrix {
	m := VariableMatrix{rows: len(vals), cols: 1, data: make([]Variable, len(vals)), graph: g}
	for i, v := range vals {
		m.data[i] = g.Constant(v)
	}
	return m
}

// VectorOf builds a column vector from existing variables.
func VectorOf(vars ...Variable) VariableMatrix {
	if len(vars) == 0 {
		panic("autodiff: empty vector")
	}
	m := VariableMatrix{rows: len(vars), cols: 1, data: make([]Variable, len(vars)), graph: vars[0].graph}
	copy(m.data, vars)
	return m
}

func (m VariableMatrix) Rows() int     { return m.rows }
func (m VariableMatrix) Cols() int     { return m.cols }
func (m VariableMatrix) Graph() *Graph { return m.graph }

func (m VariableMatrix) index(i, j int) int {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(ErrDimensionMismatch)
	}
	return i*m.cols + j
}

// At returns the element handle at (i, j).
func (m VariableMatrix) At(i, j int) Variable { return m.data[m.index(i, j)] }

// AtVec returns element i of a column or row vector.
func (m VariableMatrix) AtVec(i int) Variable {
	switch {
	case m.cols == 1:
		return m.At(i, 0)
	case m.rows == 1:
		return m.At(0, i)
	default:
		panic(ErrDimensionMismatch)
	}
}

// Set replaces the handle at (i, j). The underlying nodes are untouched.
func (m VariableMatrix) Set(i, j int, v Variable) { m.data[m.index(i, j)] = v }

// SetValue writes a leaf element's value in place.
func (m VariableMatrix) SetValue(i, j int, x float64) error {
	return m.At(i, j).SetValue(x)
}

// Value evaluates the element at (i, j).
func (m VariableMatrix) Value(i, j int) float64 { return m.At(i, j).Value() }

// Row returns row i as a 1 x cols matrix.
func (m VariableMatrix) Row(i int) VariableMatrix { return m.Block(i, 0, 1, m.cols) }

// Col returns column j as a rows x 1 matrix.
func (m VariableMatrix) Col(j int) VariableMatrix { return m.Block(0, j, m.rows, 1) }

// Block copies the handles of the rows x cols submatrix anchored at (i, j).
func (m VariableMatrix) Block(i, j, rows, cols int) VariableMatrix {
	if i < 0 || j < 0 || i+rows > m.rows || j+cols > m.cols {
		panic(ErrDimensionMismatch)
	}
	out := VariableMatrix{rows: rows, cols: cols, data: make([]Variable, rows*cols), graph: m.graph}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.data[r*cols+c] = m.data[(i+r)*m.cols+(j+c)]
		}
	}
	return out
}

// T returns the transpose.
func (m VariableMatrix) T() VariableMatrix {
	out := VariableMatrix{rows: m.cols, cols: m.rows, data: make([]Variable, len(m.data)), graph: m.graph}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*out.cols+i] = m.data[i*m.cols+j]
		}
	}
	return out
}

// Add returns the elementwise sum.
func (m VariableMatrix) Add(rhs VariableMatrix) VariableMatrix {
	return m.zipWith(rhs, Variable.Add)
}

// Sub returns the elementwise difference.
func (m VariableMatrix) Sub(rhs VariableMatrix) VariableMatrix {
	return m.zipWith(rhs, Variable.Sub)
}

// MulElem returns the elementwise product.
func (m VariableMatrix) MulElem(rhs VariableMatrix) VariableMatrix {
	return m.zipWith(rhs, Variable.Mul)
}

func (m VariableMatrix) zipWith(rhs VariableMatrix, op func(Variable, Variable) Variable) VariableMatrix {
	if m.rows != rhs.rows || m.cols != rhs.cols {
		panic(ErrDimensionMismatch)
	}
	out := VariableMatrix{rows: m.rows, cols: m.cols, data: make([]Variable, len(m.data)), graph: m.graph}
	for i := range m.data {
		out.data[i] = op(m.data[i], rhs.data[i])
	}
	return out
}

// Scale returns c * m.
func (m VariableMatrix) Scale(c float64) VariableMatrix {
	out := VariableMatrix{rows: m.rows, cols: m.cols, data: make([]Variable, len(m.data)), graph: m.graph}
	for i := range m.data {
		out.data[i] = m.data[i].Scale(c)
	}
	return out
}

// ScaleVar returns s * m for a scalar expression s.
func (m VariableMatrix) ScaleVar(s Variable) VariableMatrix {
	out := VariableMatrix{rows: m.rows, cols: m.cols, data: make([]Variable, len(m.data)), graph: m.graph}
	for i := range m.data {
		out.data[i] = m.data[i].Mul(s)
	}
	return out
}

// Mul returns the matrix product m * rhs.
func (m VariableMatrix) Mul(rhs VariableMatrix) VariableMatrix {
	if m.cols != rhs.rows {
		panic(ErrDimensionMismatch)
	}
	out := VariableMatrix{rows: m.rows, cols: rhs.cols, data: make([]Variable, m.rows*rhs.cols), graph: m.graph}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < rhs.cols; j++ {
			sum := m.At(i, 0).Mul(rhs.At(0, j))
			for k := 1; k < m.cols; k++ {
				sum = sum.Add(m.At(i, k).Mul(rhs.At(k, j)))
			}
			out.data[i*out.cols+j] = sum
		}
	}
	return out
}

// Dot returns the scalar product of two equally shaped vectors.
func Dot(a, b VariableMatrix) Variable {
	if len(a.data) != len(b.data) {
		panic(ErrDimensionMismatch)
	}
	sum := a.data[0].Mul(b.data[0])
	for i := 1; i < len(a.data); i++ {
		sum = sum.Add(a.data[i].Mul(b.data[i]))
	}
	return sum
}

// Dense evaluates every element into a gonum matrix.
func (m VariableMatrix) Dense() *mat.Dense {
	out := mat.NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.Set(i, j, m.Value(i, j))
		}
	}
	return out
}
