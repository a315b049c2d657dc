package tensor

import (
	"fmt"

	"github.com/substrate-ml/substrate/internal/compute"
)

// BinaryOp implements dest = alpha*x op beta*y, where x and y are numbers
// or *Tensor values and op is one of the binary family (Add, Sub, Mul,
// Div, Max, Min). The destination is always a tensor.
//
// Operand kinds resolve once per call: two scalars fold to a constant
// assignment; a tensor/scalar pair uses the constant kernels, with a
// reversed-operand flag recording when the scalar was logically first
// (op need not be commutative); a tensor exactly aliasing dest uses the
// accumulate kernels. Partial overlap between distinct operands is
// rejected before any kernel call.
func BinaryOp(ctx *Context, dest *Tensor, alpha float64, x any, beta float64, y any, op Op) error {
	opName := "binary-op " + op.String()
	if err := ctx.check(opName); err != nil {
		return err
	}
	if !op.IsBinary() {
		return &compute.UnsupportedOperandError{
			Op:     opName,
			Reason: fmt.Sprintf("%s is not a binary operation", op),
		}
	}

	xv, xScalar := scalarValue(x)
	yv, yScalar := scalarValue(y)

	switch {
	case xScalar && yScalar:
		return assignConstant(ctx, dest, EvalBinary(op, alpha*xv, beta*yv))

	case !xScalar && yScalar:
		xt, err := operandTensor(opName, x)
		if err != nil {
			return err
		}
		return binaryTensorConstant(ctx, opName, dest, xt, alpha, beta*yv, op, false)

	case xScalar && !yScalar:
		yt, err := operandTensor(opName, y)
		if err != nil {
			return err
		}
		// The scalar is the logically first operand.
		return binaryTensorConstant(ctx, opName, dest, yt, beta, alpha*xv, op, true)
	}

	xt, err := operandTensor(opName, x)
	if err != nil {
		return err
	}
	yt, err := operandTensor(opName, y)
	if err != nil {
		return err
	}
	return binaryTensors(ctx, opName, dest, alpha, xt, beta, yt, op)
}

// binaryTensorConstant handles one tensor plus one already-scaled scalar.
// reversed records that the scalar was the logically first operand.
func binaryTensorConstant(ctx *Context, opName string, dest, t *Tensor, tAlpha, value float64, op Op, reversed bool) error {
	if err := sameDatatype(opName, dest, t); err != nil {
		return err
	}
	if err := sameDevice(opName, dest, t); err != nil {
		return err
	}
	if err := ensureCommensurate(opName, dest.Ecount(), t.Ecount()); err != nil {
		return err
	}
	if exactAlias(dest, t) {
		return ctx.Queue().BinaryAccumConstant(dest.Buffer(), dest.Dims(), tAlpha, value, op, reversed, dest.Ecount())
	}
	if err := noPartialOverlap(opName, dest, t); err != nil {
		return err
	}
	n := max(dest.Ecount(), t.Ecount())
	return ctx.Queue().BinaryConstant(dest.Buffer(), dest.Dims(), t.Buffer(), t.Dims(), tAlpha, value, op, reversed, n)
}

func binaryTensors(ctx *Context, opName string, dest *Tensor, alpha float64, x *Tensor, beta float64, y *Tensor, op Op) error {
	switch {
	case exactAlias(dest, x):
		// dest = alpha*dest op beta*y
		if err := sameDatatype(opName, dest, y); err != nil {
			return err
		}
		if err := sameDevice(opName, dest, y); err != nil {
			return err
		}
		if err := ensureCommensurate(opName, dest.Ecount(), y.Ecount()); err != nil {
			return err
		}
		if !exactAlias(dest, y) {
			if err := noPartialOverlap(opName, dest, y); err != nil {
				return err
			}
		}
		n := max(dest.Ecount(), y.Ecount())
		return ctx.Queue().BinaryAccum(dest.Buffer(), dest.Dims(), alpha, y.Buffer(), y.Dims(), beta, op, false, n)

	case exactAlias(dest, y):
		// dest = alpha*x op beta*dest; operation order preserved by the
		// reversed flag.
		if err := sameDatatype(opName, dest, x); err != nil {
			return err
		}
		if err := sameDevice(opName, dest, x); err != nil {
			return err
		}
		if err := ensureCommensurate(opName, dest.Ecount(), x.Ecount()); err != nil {
			return err
		}
		if err := noPartialOverlap(opName, dest, x); err != nil {
			return err
		}
		n := max(dest.Ecount(), x.Ecount())
		return ctx.Queue().BinaryAccum(dest.Buffer(), dest.Dims(), beta, x.Buffer(), x.Dims(), alpha, op, true, n)
	}

	if err := sameDatatype(opName, dest, x, y); err != nil {
		return err
	}
	if err := sameDevice(opName, dest, x, y); err != nil {
		return err
	}
	for _, pair := range [][2]int{{dest.Ecount(), x.Ecount()}, {dest.Ecount(), y.Ecount()}, {x.Ecount(), y.Ecount()}} {
		if err := ensureCommensurate(opName, pair[0], pair[1]); err != nil {
			return err
		}
	}
	if err := noPartialOverlap(opName, dest, x, y); err != nil {
		return err
	}
	n := max(dest.Ecount(), max(x.Ecount(), y.Ecount()))
	return ctx.Queue().Binary(dest.Buffer(), dest.Dims(), x.Buffer(), x.Dims(), alpha, y.Buffer(), y.Dims(), beta, op, n)
}
