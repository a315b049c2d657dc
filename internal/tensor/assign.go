package tensor

import (
	"k8s.io/klog/v2"

	"github.com/substrate-ml/substrate/internal/compute"
)

// Assign implements dest = src, where src is a number or a *Tensor.
//
// A scalar source takes a memset fast path on dense destinations and the
// generic constant-assignment kernel otherwise. A tensor source must be
// commensurate with and no larger than the destination; it is repeated to
// cover the destination per the broadcasting contract. Dense, same-type,
// equal-size pairs use a raw bulk copy, which may cross devices of one
// driver.
func Assign(ctx *Context, dest *Tensor, src any) error {
	const op = "assign"
	if err := ctx.check(op); err != nil {
		return err
	}
	if v, ok := scalarValue(src); ok {
		return assignConstant(ctx, dest, v)
	}
	st, err := operandTensor(op, src)
	if err != nil {
		return err
	}

	if exactAlias(dest, st) && dest.Dims().Equal(st.Dims()) {
		return nil
	}
	if dest.Ecount() < st.Ecount() {
		return &compute.IncommensurateError{Op: op, DestEcount: dest.Ecount(), OtherEcount: st.Ecount()}
	}
	if err := ensureCommensurate(op, dest.Ecount(), st.Ecount()); err != nil {
		return err
	}
	if err := noPartialOverlap(op, dest, st); err != nil {
		return err
	}

	bulk := dest.Dims().Dense() && st.Dims().Dense() &&
		dest.DType() == st.DType() && dest.Ecount() == st.Ecount()
	if bulk {
		// Bulk copies only need driver equality, not device equality.
		if err := sameDriver(op, dest, st); err != nil {
			return err
		}
		klog.V(2).Infof("assign: bulk copy fast path, %d elements of %s", dest.Ecount(), dest.DType())
		return dest.Device().Driver().Copy(ctx.Queue(), dest.Buffer(), st.Buffer(), dest.Ecount())
	}

	if err := sameDatatype(op, dest, st); err != nil {
		return err
	}
	if err := sameDevice(op, dest, st); err != nil {
		return err
	}
	return ctx.Queue().Assign(dest.Buffer(), dest.Dims(), st.Buffer(), st.Dims(), dest.Ecount())
}

// Fill assigns a constant to every element of dest.
func Fill(ctx *Context, dest *Tensor, value float64) error {
	if err := ctx.check("fill"); err != nil {
		return err
	}
	return assignConstant(ctx, dest, value)
}

func assignConstant(ctx *Context, dest *Tensor, value float64) error {
	if dest.Dims().Dense() {
		klog.V(2).Infof("assign: memset fast path, %d elements of %s", dest.Ecount(), dest.DType())
		return dest.Device().Driver().Memset(ctx.Queue(), dest.Buffer(), value, dest.Ecount())
	}
	return ctx.Queue().AssignConstant(dest.Buffer(), dest.Dims(), value, dest.Ecount())
}
