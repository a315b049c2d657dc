package tensor

import (
	"fmt"

	"github.com/substrate-ml/substrate/internal/compute"
)

// TernaryOp implements dest = op(alpha*x, beta*y, gamma*z), where each of
// x, y, z is a number or a *Tensor. Select yields gamma*z where
// alpha*x >= 0 and beta*y elsewhere.
//
// To bound the number of kernel variants the backend sees one of three
// permutations: three tensors, two tensors plus a folded constant, or one
// tensor plus two folded constants. The call passes the logical slot each
// surviving tensor fills so the backend can reconstruct the operand order.
// No accumulate form exists: dest must not alias any input.
func TernaryOp(ctx *Context, dest *Tensor, alpha float64, x any, beta float64, y any, gamma float64, z any, op Op) error {
	opName := "ternary-op " + op.String()
	if err := ctx.check(opName); err != nil {
		return err
	}
	if !op.IsTernary() {
		return &compute.UnsupportedOperandError{
			Op:     opName,
			Reason: fmt.Sprintf("%s is not a ternary operation", op),
		}
	}

	type operand struct {
		slot   TernarySlot
		coef   float64
		tensor *Tensor // nil for scalars
		value  float64 // scalar value, unscaled
	}
	raw := [3]struct {
		v    any
		coef float64
	}{{x, alpha}, {y, beta}, {z, gamma}}

	var tensors []operand
	var scalars []operand
	for i, r := range raw {
		if v, ok := scalarValue(r.v); ok {
			scalars = append(scalars, operand{slot: TernarySlot(i), coef: r.coef, value: v})
			continue
		}
		t, err := operandTensor(opName, r.v)
		if err != nil {
			return err
		}
		tensors = append(tensors, operand{slot: TernarySlot(i), coef: r.coef, tensor: t})
	}

	if len(tensors) == 0 {
		return assignConstant(ctx, dest,
			EvalTernary(op, alpha*scalars[0].value, beta*scalars[1].value, gamma*scalars[2].value))
	}

	operands := []*Tensor{dest}
	n := dest.Ecount()
	for _, o := range tensors {
		if exactAlias(dest, o.tensor) {
			return &compute.AliasError{
				Op:     opName,
				Reason: fmt.Sprintf("destination aliases operand %s; ternary ops have no accumulate form", o.slot),
			}
		}
		if err := ensureCommensurate(opName, dest.Ecount(), o.tensor.Ecount()); err != nil {
			return err
		}
		operands = append(operands, o.tensor)
		n = max(n, o.tensor.Ecount())
	}
	if err := sameDatatype(opName, operands...); err != nil {
		return err
	}
	if err := sameDevice(opName, operands...); err != nil {
		return err
	}
	if err := noPartialOverlap(opName, operands...); err != nil {
		return err
	}

	q := ctx.Queue()
	switch len(tensors) {
	case 3:
		return q.Ternary(dest.Buffer(), dest.Dims(),
			tensors[0].tensor.Buffer(), tensors[0].tensor.Dims(), tensors[0].coef,
			tensors[1].tensor.Buffer(), tensors[1].tensor.Dims(), tensors[1].coef,
			tensors[2].tensor.Buffer(), tensors[2].tensor.Dims(), tensors[2].coef,
			op, n)
	case 2:
		a, b, c := tensors[0], tensors[1], scalars[0]
		return q.TernaryConstant(dest.Buffer(), dest.Dims(),
			a.tensor.Buffer(), a.tensor.Dims(), a.coef, a.slot,
			b.tensor.Buffer(), b.tensor.Dims(), b.coef, b.slot,
			c.coef*c.value, op, n)
	default:
		a, c1, c2 := tensors[0], scalars[0], scalars[1]
		return q.TernaryConstants(dest.Buffer(), dest.Dims(),
			a.tensor.Buffer(), a.tensor.Dims(), a.coef, a.slot,
			c1.coef*c1.value, c2.coef*c2.value, op, n)
	}
}
