package tensor

import (
	"fmt"

	"github.com/substrate-ml/substrate/internal/compute"
)

// UnaryOp implements dest = op(alpha * x), where x is a number or a
// *Tensor and op is one of the unary family (Ceil, Round, Floor, Neg,
// Tanh, Logistic).
//
// A scalar x folds to a constant assignment with no kernel call. A tensor
// x that exactly aliases dest uses the in-place accumulate form; any other
// tensor goes through the generic strided kernel, iterated over
// max(|dest|, |x|) elements.
func UnaryOp(ctx *Context, dest *Tensor, alpha float64, x any, op Op) error {
	opName := "unary-op " + op.String()
	if err := ctx.check(opName); err != nil {
		return err
	}
	if !op.IsUnary() {
		return &compute.UnsupportedOperandError{
			Op:     opName,
			Reason: fmt.Sprintf("%s is not a unary operation", op),
		}
	}

	if v, ok := scalarValue(x); ok {
		return assignConstant(ctx, dest, EvalUnary(op, alpha*v))
	}
	xt, err := operandTensor(opName, x)
	if err != nil {
		return err
	}

	if exactAlias(dest, xt) {
		return ctx.Queue().UnaryAccum(dest.Buffer(), dest.Dims(), alpha, op, dest.Ecount())
	}

	if err := sameDatatype(opName, dest, xt); err != nil {
		return err
	}
	if err := sameDevice(opName, dest, xt); err != nil {
		return err
	}
	if err := ensureCommensurate(opName, dest.Ecount(), xt.Ecount()); err != nil {
		return err
	}
	if err := noPartialOverlap(opName, dest, xt); err != nil {
		return err
	}
	n := max(dest.Ecount(), xt.Ecount())
	return ctx.Queue().Unary(dest.Buffer(), dest.Dims(), xt.Buffer(), xt.Dims(), alpha, op, n)
}
