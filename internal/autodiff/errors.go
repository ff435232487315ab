package autodiff

import "errors"

var (
	// ErrNotLeaf indicates SetValue was called on an operator node.
	ErrNotLeaf = errors.New("autodiff: SetValue on non-leaf expression")

	// ErrConstant indicates SetValue was called on an immutable constant.
	ErrConstant = errors.New("autodiff: SetValue on constant expression")

	// ErrDimensionMismatch indicates matrix operands with incompatible shapes.
	ErrDimensionMismatch = errors.New("autodiff: dimension mismatch")
)
