package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/substrate-ml/substrate/internal/compute"
)

// Host interop: conversions between tensors and host-resident array
// representations, used for fixtures and host-side staging. Transfers go
// through the driver's host-copy primitives, which synchronize the stream
// before host memory is read.

// FromFloat64s allocates a dense tensor of the context's default datatype
// and fills it from a host slice.
func FromFloat64s(ctx *Context, data []float64, shape ...int) (*Tensor, error) {
	const op = "from-float64s"
	if err := ctx.check(op); err != nil {
		return nil, err
	}
	t, err := New(ctx, shape...)
	if err != nil {
		return nil, err
	}
	if len(data) != t.Ecount() {
		return nil, &compute.ShapeError{
			Op:     op,
			Reason: fmt.Sprintf("shape %v requires %d elements, got %d", shape, t.Ecount(), len(data)),
			Axis:   -1,
		}
	}
	if err := CopyFromHost(ctx, t, data); err != nil {
		return nil, err
	}
	return t, nil
}

// CopyFromHost writes a host slice into a dense destination tensor,
// converting to the tensor's datatype.
func CopyFromHost(ctx *Context, dest *Tensor, data []float64) error {
	const op = "copy-from-host"
	if err := ctx.check(op); err != nil {
		return err
	}
	if !dest.Dims().Dense() {
		return &compute.ShapeError{Op: op, Reason: "destination must be dense", Axis: -1}
	}
	if len(data) != dest.Ecount() {
		return &compute.ShapeError{
			Op:     op,
			Reason: "element count mismatch",
			Axis:   -1,
			Want:   []int{dest.Ecount()},
			Got:    []int{len(data)},
		}
	}
	return dest.Device().Driver().CopyFromHost(ctx.Queue(), dest.Buffer(), data)
}

// CopyToHost reads a dense tensor into a fresh host slice, converting to
// float64. It synchronizes the stream before returning.
func CopyToHost(ctx *Context, src *Tensor) ([]float64, error) {
	const op = "copy-to-host"
	if err := ctx.check(op); err != nil {
		return nil, err
	}
	if !src.Dims().Dense() {
		return nil, &compute.ShapeError{Op: op, Reason: "source must be dense", Axis: -1}
	}
	out := make([]float64, src.Ecount())
	if err := src.Device().Driver().CopyToHost(ctx.Queue(), out, src.Buffer(), src.Ecount()); err != nil {
		return nil, err
	}
	return out, nil
}

// FromDense builds a tensor from a gonum matrix.
func FromDense(ctx *Context, m *mat.Dense) (*Tensor, error) {
	rows, cols := m.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, m.RawRowView(i)...)
	}
	return FromFloat64s(ctx, data, rows, cols)
}

// Dense converts a rank-2 dense tensor to a gonum matrix.
func (t *Tensor) Dense(ctx *Context) (*mat.Dense, error) {
	const op = "to-dense"
	if t.Dims().Rank() != 2 {
		return nil, &compute.ShapeError{
			Op:     op,
			Reason: fmt.Sprintf("rank-2 tensor required, got %s", t.Dims()),
			Axis:   -1,
		}
	}
	data, err := CopyToHost(ctx, t)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(t.Shape()[0], t.Shape()[1], data), nil
}
