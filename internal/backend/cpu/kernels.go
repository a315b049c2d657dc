package cpu

import (
	"github.com/substrate-ml/substrate/internal/compute"
	"github.com/substrate-ml/substrate/internal/tensor"
)

// Elementwise kernels. Each loops over the validated count n; operands
// smaller than n repeat by remainder, which is the whole broadcasting
// contract at this level.

// AssignConstant assigns value to n elements of dst.
func (s *Stream) AssignConstant(dst compute.Buffer, dstDims tensor.Dimensions, value float64, n int) error {
	d, err := newView(dst, dstDims)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d.write(i, value)
	}
	return nil
}

// Assign copies src into dst with repeat semantics.
func (s *Stream) Assign(dst compute.Buffer, dstDims tensor.Dimensions, src compute.Buffer, srcDims tensor.Dimensions, n int) error {
	d, err := newView(dst, dstDims)
	if err != nil {
		return err
	}
	sv, err := newView(src, srcDims)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d.write(i, sv.read(i))
	}
	return nil
}

// UnaryAccum computes dst = op(alpha*dst) in place.
func (s *Stream) UnaryAccum(dst compute.Buffer, dstDims tensor.Dimensions, alpha float64, op tensor.Op, n int) error {
	d, err := newView(dst, dstDims)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d.write(i, tensor.EvalUnary(op, alpha*d.read(i)))
	}
	return nil
}

// Unary computes dst = op(alpha*x).
func (s *Stream) Unary(dst compute.Buffer, dstDims tensor.Dimensions, x compute.Buffer, xDims tensor.Dimensions, alpha float64, op tensor.Op, n int) error {
	d, err := newView(dst, dstDims)
	if err != nil {
		return err
	}
	xv, err := newView(x, xDims)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d.write(i, tensor.EvalUnary(op, alpha*xv.read(i)))
	}
	return nil
}

func evalBinary(op tensor.Op, a, b float64, reversed bool) float64 {
	if reversed {
		return tensor.EvalBinary(op, b, a)
	}
	return tensor.EvalBinary(op, a, b)
}

// BinaryAccumConstant computes dst = alpha*dst op value (operands swapped
// when reversed).
func (s *Stream) BinaryAccumConstant(dst compute.Buffer, dstDims tensor.Dimensions, alpha float64, value float64, op tensor.Op, reversed bool, n int) error {
	d, err := newView(dst, dstDims)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d.write(i, evalBinary(op, alpha*d.read(i), value, reversed))
	}
	return nil
}

// BinaryConstant computes dst = alpha*x op value (operands swapped when
// reversed).
func (s *Stream) BinaryConstant(dst compute.Buffer, dstDims tensor.Dimensions, x compute.Buffer, xDims tensor.Dimensions, alpha float64, value float64, op tensor.Op, reversed bool, n int) error {
	d, err := newView(dst, dstDims)
	if err != nil {
		return err
	}
	xv, err := newView(x, xDims)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d.write(i, evalBinary(op, alpha*xv.read(i), value, reversed))
	}
	return nil
}

// BinaryAccum computes dst = alpha*dst op beta*y (operands swapped when
// reversed).
func (s *Stream) BinaryAccum(dst compute.Buffer, dstDims tensor.Dimensions, alpha float64, y compute.Buffer, yDims tensor.Dimensions, beta float64, op tensor.Op, reversed bool, n int) error {
	d, err := newView(dst, dstDims)
	if err != nil {
		return err
	}
	yv, err := newView(y, yDims)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d.write(i, evalBinary(op, alpha*d.read(i), beta*yv.read(i), reversed))
	}
	return nil
}

// Binary computes dst = alpha*x op beta*y.
func (s *Stream) Binary(dst compute.Buffer, dstDims tensor.Dimensions, x compute.Buffer, xDims tensor.Dimensions, alpha float64, y compute.Buffer, yDims tensor.Dimensions, beta float64, op tensor.Op, n int) error {
	d, err := newView(dst, dstDims)
	if err != nil {
		return err
	}
	xv, err := newView(x, xDims)
	if err != nil {
		return err
	}
	yv, err := newView(y, yDims)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d.write(i, tensor.EvalBinary(op, alpha*xv.read(i), beta*yv.read(i)))
	}
	return nil
}

// Ternary computes dst = op(alpha*x, beta*y, gamma*z).
func (s *Stream) Ternary(dst compute.Buffer, dstDims tensor.Dimensions,
	x compute.Buffer, xDims tensor.Dimensions, alpha float64,
	y compute.Buffer, yDims tensor.Dimensions, beta float64,
	z compute.Buffer, zDims tensor.Dimensions, gamma float64,
	op tensor.Op, n int) error {
	d, err := newView(dst, dstDims)
	if err != nil {
		return err
	}
	xv, err := newView(x, xDims)
	if err != nil {
		return err
	}
	yv, err := newView(y, yDims)
	if err != nil {
		return err
	}
	zv, err := newView(z, zDims)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d.write(i, tensor.EvalTernary(op, alpha*xv.read(i), beta*yv.read(i), gamma*zv.read(i)))
	}
	return nil
}

// TernaryConstant reconstructs the logical x/y/z order from the slots of
// the two surviving tensors; the remaining slot takes the folded constant.
func (s *Stream) TernaryConstant(dst compute.Buffer, dstDims tensor.Dimensions,
	a compute.Buffer, aDims tensor.Dimensions, aAlpha float64, aSlot tensor.TernarySlot,
	b compute.Buffer, bDims tensor.Dimensions, bAlpha float64, bSlot tensor.TernarySlot,
	value float64, op tensor.Op, n int) error {
	d, err := newView(dst, dstDims)
	if err != nil {
		return err
	}
	av, err := newView(a, aDims)
	if err != nil {
		return err
	}
	bv, err := newView(b, bDims)
	if err != nil {
		return err
	}
	var vals [3]float64
	constSlot := tensor.SlotX + tensor.SlotY + tensor.SlotZ - aSlot - bSlot
	vals[constSlot] = value
	for i := 0; i < n; i++ {
		vals[aSlot] = aAlpha * av.read(i)
		vals[bSlot] = bAlpha * bv.read(i)
		d.write(i, tensor.EvalTernary(op, vals[0], vals[1], vals[2]))
	}
	return nil
}

// TernaryConstants is the one-tensor variant: v1 and v2 fill the two free
// slots in ascending slot order.
func (s *Stream) TernaryConstants(dst compute.Buffer, dstDims tensor.Dimensions,
	a compute.Buffer, aDims tensor.Dimensions, aAlpha float64, aSlot tensor.TernarySlot,
	v1, v2 float64, op tensor.Op, n int) error {
	d, err := newView(dst, dstDims)
	if err != nil {
		return err
	}
	av, err := newView(a, aDims)
	if err != nil {
		return err
	}
	var vals [3]float64
	consts := []float64{v1, v2}
	for slot := tensor.SlotX; slot <= tensor.SlotZ; slot++ {
		if slot != aSlot {
			vals[slot] = consts[0]
			consts = consts[1:]
		}
	}
	for i := 0; i < n; i++ {
		vals[aSlot] = aAlpha * av.read(i)
		d.write(i, tensor.EvalTernary(op, vals[0], vals[1], vals[2]))
	}
	return nil
}
