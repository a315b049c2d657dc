package tensor

import (
	"fmt"

	"github.com/substrate-ml/substrate/internal/compute"
)

// Tensor binds a device handle, a dimension view and a backend buffer. It
// does not own the buffer; lifetime belongs to the allocating driver. Two
// tensors may reference the same buffer (an exact alias); dispatch turns
// that into an accumulate fast path where one exists.
type Tensor struct {
	device compute.Device
	dims   Dimensions
	buffer compute.Buffer
}

// Wrap binds an existing buffer under the given dimensions. The buffer must
// be large enough to address the whole view.
func Wrap(device compute.Device, dims Dimensions, buffer compute.Buffer) (*Tensor, error) {
	if need := dims.BufferEcount(); buffer.Ecount() < need {
		return nil, &compute.ShapeError{
			Op:     "wrap",
			Reason: fmt.Sprintf("buffer of %d elements cannot address view %s needing %d", buffer.Ecount(), dims, need),
			Axis:   -1,
		}
	}
	return &Tensor{device: device, dims: dims, buffer: buffer}, nil
}

// New allocates a dense tensor of the context's default datatype.
func New(ctx *Context, shape ...int) (*Tensor, error) {
	if err := ctx.check("new-tensor"); err != nil {
		return nil, err
	}
	return NewOfType(ctx, ctx.DType(), shape...)
}

// NewOfType allocates a dense tensor of an explicit datatype.
func NewOfType(ctx *Context, dtype compute.DataType, shape ...int) (*Tensor, error) {
	if err := ctx.check("new-tensor"); err != nil {
		return nil, err
	}
	dims, err := NewDimensions(shape, nil)
	if err != nil {
		return nil, err
	}
	dev := ctx.Queue().Device()
	buf, err := dev.Driver().Allocate(dev, dtype, dims.Ecount())
	if err != nil {
		return nil, err
	}
	return &Tensor{device: dev, dims: dims, buffer: buf}, nil
}

// Clone allocates a dense tensor of the same datatype and shape and copies
// src into it.
func Clone(ctx *Context, src *Tensor) (*Tensor, error) {
	dst, err := NewOfType(ctx, src.DType(), src.Shape()...)
	if err != nil {
		return nil, err
	}
	if err := Assign(ctx, dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// Device returns the device the tensor lives on.
func (t *Tensor) Device() compute.Device { return t.device }

// Dims returns the tensor's dimension view.
func (t *Tensor) Dims() Dimensions { return t.dims }

// Buffer returns the underlying buffer handle.
func (t *Tensor) Buffer() compute.Buffer { return t.buffer }

// DType returns the element type.
func (t *Tensor) DType() compute.DataType { return t.buffer.DType() }

// Shape returns the extents of the view.
func (t *Tensor) Shape() []int { return t.dims.Shape() }

// Ecount returns the number of logical elements.
func (t *Tensor) Ecount() int { return t.dims.Ecount() }

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%s on %s", t.DType(), t.dims, t.device)
}

// Reinterpret returns a zero-copy view of the same buffer under new
// dimensions. The new view must fit in the buffer.
func (t *Tensor) Reinterpret(dims Dimensions) (*Tensor, error) {
	return Wrap(t.device, dims, t.buffer)
}

// vectorCoercible is the contract for the vector and row/column views: the
// tensor must be dense, or its secondary dimension must be trivial.
func (t *Tensor) vectorCoercible(op string) error {
	if t.dims.Dense() || t.dims.NumColumns() == 1 {
		return nil
	}
	return &compute.ShapeError{
		Op:     op,
		Reason: fmt.Sprintf("view %s is neither dense nor column-trivial", t.dims),
		Axis:   -1,
	}
}

// AsVector reinterprets the tensor as a rank-1 view over all elements.
func (t *Tensor) AsVector() (*Tensor, error) {
	if err := t.vectorCoercible("as-vector"); err != nil {
		return nil, err
	}
	dims := Dimensions{shape: []int{t.Ecount()}, strides: []int{1}}
	if !t.dims.Dense() {
		// Column-trivial strided view: one element per row.
		dims = Dimensions{shape: []int{t.dims.Outermost()}, strides: []int{t.dims.ColumnStride()}}
	}
	return t.Reinterpret(dims)
}

// AsRowVector reinterprets the tensor as a 1 x n matrix.
func (t *Tensor) AsRowVector() (*Tensor, error) {
	v, err := t.AsVector()
	if err != nil {
		return nil, &compute.ShapeError{Op: "as-row-vector", Reason: err.Error(), Axis: -1}
	}
	n := v.dims.shape[0]
	return t.Reinterpret(Dimensions{shape: []int{1, n}, strides: []int{n * v.dims.strides[0], v.dims.strides[0]}})
}

// AsColumnVector reinterprets the tensor as an n x 1 matrix.
func (t *Tensor) AsColumnVector() (*Tensor, error) {
	v, err := t.AsVector()
	if err != nil {
		return nil, &compute.ShapeError{Op: "as-column-vector", Reason: err.Error(), Axis: -1}
	}
	n := v.dims.shape[0]
	return t.Reinterpret(Dimensions{shape: []int{n, 1}, strides: []int{v.dims.strides[0], 1}})
}

// As2D reinterprets the tensor with the outer axes collapsed into rows and
// the innermost axis as columns.
func (t *Tensor) As2D() *Tensor {
	return &Tensor{device: t.device, dims: t.dims.As2D(), buffer: t.buffer}
}

// AsBatch reinterprets the tensor with axis 0 preserved as the batch axis
// and the rest collapsed.
func (t *Tensor) AsBatch() *Tensor {
	return &Tensor{device: t.device, dims: t.dims.AsBatch(), buffer: t.buffer}
}

// Slice returns a tensor over a sub-buffer starting at the given element
// offset, shaped by shape. Zero-copy; the sub-buffer shares the allocation.
func (t *Tensor) Slice(offset int, shape ...int) (*Tensor, error) {
	dims, err := NewDimensions(shape, nil)
	if err != nil {
		return nil, err
	}
	sub, err := t.device.Driver().SubBuffer(t.buffer, offset, dims.Ecount())
	if err != nil {
		return nil, err
	}
	return &Tensor{device: t.device, dims: dims, buffer: sub}, nil
}
