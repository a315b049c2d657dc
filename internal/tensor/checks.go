package tensor

import (
	"fmt"

	"github.com/substrate-ml/substrate/internal/compute"
)

// Commensurate reports whether two element counts satisfy the broadcasting
// contract: the smaller count evenly divides the larger. Zero-size operands
// are commensurate with anything. The relation is symmetric, and reflexive
// for nonzero counts.
func Commensurate(n1, n2 int) bool {
	if n1 < n2 {
		n1, n2 = n2, n1
	}
	return n2 == 0 || n1%n2 == 0
}

// sameDatatype checks every operand against the first one's datatype.
func sameDatatype(op string, operands ...*Tensor) error {
	want := operands[0].DType()
	for _, t := range operands[1:] {
		if t.DType() != want {
			got := make([]compute.DataType, len(operands))
			for i, o := range operands {
				got[i] = o.DType()
			}
			return &compute.DatatypeMismatchError{Op: op, Want: want, Got: got}
		}
	}
	return nil
}

// sameDevice enforces the strict device rule: every operand lives on the
// first operand's device.
func sameDevice(op string, operands ...*Tensor) error {
	want := operands[0].Device()
	for _, t := range operands[1:] {
		if t.Device() != want {
			return &compute.DeviceMismatchError{Op: op, Want: want.String(), Got: t.Device().String()}
		}
	}
	return nil
}

// sameDriver is the relaxed rule used only for dense same-datatype bulk
// copies, which may cross devices of one backend.
func sameDriver(op string, a, b *Tensor) error {
	if a.Device().Driver() != b.Device().Driver() {
		return &compute.DriverMismatchError{
			Op:   op,
			Want: a.Device().Driver().Name(),
			Got:  b.Device().Driver().Name(),
		}
	}
	return nil
}

// ensureCommensurate rejects element-count pairs that violate the
// broadcasting contract.
func ensureCommensurate(op string, destN, otherN int) error {
	if !Commensurate(destN, otherN) {
		return &compute.IncommensurateError{Op: op, DestEcount: destN, OtherEcount: otherN}
	}
	return nil
}

// noPartialOverlap rejects any pair of operands whose buffers share memory
// without being exact aliases. Exact aliasing is legal (dispatch handles it
// as an accumulate fast path); partial overlap is undefined and refused
// before any backend call.
func noPartialOverlap(op string, operands ...*Tensor) error {
	driver := operands[0].Device().Driver()
	for i := 0; i < len(operands); i++ {
		for j := i + 1; j < len(operands); j++ {
			if driver.PartialAlias(operands[i].Buffer(), operands[j].Buffer()) {
				return &compute.AliasError{
					Op:     op,
					Reason: fmt.Sprintf("operands %d and %d partially overlap", i, j),
				}
			}
		}
	}
	return nil
}

// denseOperands rejects views the flat kernels cannot address. The
// batch-norm, activation-gradient and softmax entry points pass bare
// buffers plus counts, and their kernels walk elements contiguously, so a
// padded view would compute on padding cells instead of logical elements.
func denseOperands(op string, operands ...*Tensor) error {
	for _, t := range operands {
		if !t.Dims().Dense() {
			return &compute.ShapeError{
				Op:     op,
				Reason: fmt.Sprintf("view %s must be dense", t.Dims()),
				Axis:   -1,
			}
		}
	}
	return nil
}

// exactAlias reports whether two tensors reference the identical buffer
// region.
func exactAlias(a, b *Tensor) bool {
	return a.Device().Driver().Alias(a.Buffer(), b.Buffer())
}

// scalarValue classifies an operand: a Go number yields its float64 value,
// anything else is expected to be a *Tensor.
func scalarValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	default:
		return 0, false
	}
}

// operandTensor resolves a non-scalar operand, rejecting anything that is
// neither a number nor a tensor.
func operandTensor(op string, v any) (*Tensor, error) {
	t, ok := v.(*Tensor)
	if !ok || t == nil {
		return nil, &compute.UnsupportedOperandError{
			Op:     op,
			Reason: fmt.Sprintf("operand must be a number or *Tensor, got %T", v),
		}
	}
	return t, nil
}
